package bootstrap

import (
	"context"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/Goden-Gun/fault-lib/pkg/config"
	"github.com/Goden-Gun/fault-lib/pkg/diagnostics"
)

// InitRedis 初始化故障计数使用的 Redis 客户端并测试连接
func InitRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.Db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		log.WithField("addr", cfg.Addr).Errorf("redis初始化失败: %v", err)
		return nil, err
	}

	log.WithFields(log.Fields{"addr": cfg.Addr, "db": cfg.Db}).Info("redis initialized successfully")
	return client, nil
}

// newCounter 在 Redis 上创建按错误码、按天的故障计数器
// prefix 与 ttl 为空时使用 diagnostics 默认值
func newCounter(client redis.Cmdable, cfg config.DiagnosticsConfig) *diagnostics.RedisCounter {
	counter := diagnostics.NewRedisCounter(client, cfg.CounterPrefix, cfg.CounterTTL.Duration())
	if counter == nil {
		return nil
	}
	log.WithFields(log.Fields{
		"prefix": counter.Prefix(),
		"ttl":    counter.TTL().String(),
	}).Info("fault counter enabled")
	return counter
}
