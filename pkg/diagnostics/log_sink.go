package diagnostics

import (
	"context"
	"net/http"

	log "github.com/Goden-Gun/fault-lib/pkg/logger"
)

// LogSink writes events through the shared logrus logger. Server-side
// failures log at error level, client-side ones at warn.
type LogSink struct{}

func (LogSink) Record(ctx context.Context, ev Event) {
	entry := log.WithTrace(ctx).WithFields(log.Fields{
		"error_code": ev.Code,
		"error_name": ev.Name,
		"status":     ev.Status,
		"category":   ev.Category,
		"path":       ev.Path,
	})
	if ev.Details != "" {
		entry = entry.WithField("details", ev.Details)
	}
	if len(ev.Causes) > 0 {
		entry = entry.WithField("causes", ev.Causes)
	}
	if ev.Err != nil {
		entry = entry.WithError(ev.Err)
	}
	if ev.Status >= http.StatusInternalServerError {
		entry.Errorf("%s exception occurred: %s", ev.Category, ev.Message)
		return
	}
	entry.Warnf("%s exception occurred: %s", ev.Category, ev.Message)
}
