package diagnostics

import (
	"context"
	"encoding/json"

	log "github.com/Goden-Gun/fault-lib/pkg/logger"
)

// Publisher is satisfied by *kafka.Manager.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// KafkaSink publishes each event as JSON keyed by its error code.
type KafkaSink struct {
	pub   Publisher
	topic string
}

// NewKafkaSink returns nil when pub is nil; Record on a nil sink is a no-op.
func NewKafkaSink(pub Publisher, topic string) *KafkaSink {
	if pub == nil {
		return nil
	}
	return &KafkaSink{pub: pub, topic: topic}
}

func (s *KafkaSink) Record(ctx context.Context, ev Event) {
	if s == nil {
		return
	}
	ev.EnrichFromContext(ctx)
	value, err := json.Marshal(ev)
	if err != nil {
		log.WithTrace(ctx).WithError(err).Warn("diagnostics: encode fault event failed")
		return
	}
	pubCtx, cancel := detach(ctx)
	defer cancel()
	if err := s.pub.Publish(pubCtx, s.topic, []byte(ev.Code), value); err != nil {
		log.WithTrace(ctx).WithError(err).WithField("topic", s.topic).Warn("diagnostics: publish fault event failed")
	}
}
