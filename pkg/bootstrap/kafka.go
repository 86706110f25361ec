package bootstrap

import (
	log "github.com/sirupsen/logrus"

	"github.com/Goden-Gun/fault-lib/pkg/config"
	"github.com/Goden-Gun/fault-lib/pkg/kafka"
)

// InitKafka 初始化共享 Kafka producer，observer 可为 nil
func InitKafka(cfg config.KafkaConfig, observer kafka.PublishObserver) (*kafka.Manager, error) {
	manager, err := kafka.NewManager(cfg.Producer())
	if err != nil {
		log.Errorf("kafka初始化失败: %v", err)
		return nil, err
	}
	if observer != nil {
		manager.SetPublishObserver(observer)
	}
	log.WithField("brokers", cfg.Brokers).Info("kafka initialized successfully")
	return manager, nil
}
