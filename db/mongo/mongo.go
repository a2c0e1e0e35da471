package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kamari/service/config"
	"github.com/kamari/service/logger"
)

// NewClient 创建mongo客户端
func NewClient(cfg config.Mongo) (*mongo.Client, func(), error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.PoolSize).
		SetHeartbeatInterval(30 * time.Second).
		SetMaxConnIdleTime(30 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OpTimeout())
	defer cancel()
	cli, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	cleanFunc := func() {
		if err := cli.Disconnect(context.Background()); err != nil {
			logger.Errorf(nil, "mongo close error: %s", err.Error())
		}
	}
	if err := cli.Ping(ctx, nil); err != nil {
		return nil, cleanFunc, err
	}
	return cli, cleanFunc, nil
}
