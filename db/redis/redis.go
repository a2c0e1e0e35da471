package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kamari/service/config"
	"github.com/kamari/service/logger"
)

// NewClient 创建redis客户端
func NewClient(cfg config.Redis) (*redis.Client, func(), error) {
	cli := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})
	cleanFunc := func() {
		if err := cli.Close(); err != nil {
			logger.Errorf(nil, "redis close error: %s", err.Error())
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, cleanFunc, err
	}
	return cli, cleanFunc, nil
}
