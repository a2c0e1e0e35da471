package rabbit

import (
	"context"
	"sync"

	"github.com/streadway/amqp"

	"github.com/kamari/service/config"
	"github.com/kamari/service/errors"
	"github.com/kamari/service/logger"
)

// Handler 消费消息处理函数，返回 error 时消息重新入队
type Handler func(ctx context.Context, payload []byte) error

// Queue 单一队列的发布与消费
type Queue struct {
	name string
	conn *amqp.Connection

	mu sync.Mutex
	ch *amqp.Channel
}

// NewClient 连接 rabbitmq
func NewClient(cfg config.RabbitMQ) (*amqp.Connection, func(), error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, errors.Wrap(errors.UpstreamFailure, err, "rabbitmq dial")
	}
	cleanFunc := func() {
		if err := conn.Close(); err != nil {
			logger.Errorf(nil, "rabbitmq close error: %s", err.Error())
		}
	}
	return conn, cleanFunc, nil
}

// NewQueue 声明持久化队列
func NewQueue(conn *amqp.Connection, name string) (*Queue, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Wrap(errors.UpstreamFailure, err, "rabbitmq channel")
	}
	if _, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		_ = ch.Close()
		return nil, errors.Wrap(errors.UpstreamFailure, err, "rabbitmq queue declare")
	}
	return &Queue{name: name, conn: conn, ch: ch}, nil
}

// Name returns the declared queue name.
func (q *Queue) Name() string { return q.name }

// Publish sends a persistent JSON message to the queue.
func (q *Queue) Publish(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// amqp channels are not safe for concurrent publishing
	q.mu.Lock()
	defer q.mu.Unlock()
	err := q.ch.Publish(
		"",     // default exchange
		q.name, // routing key
		false,  // mandatory
		false,  // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         payload,
		})
	if err != nil {
		return errors.Wrap(errors.UpstreamFailure, err, "rabbitmq publish")
	}
	return nil
}

// Consume delivers messages to handler until ctx is done.
func (q *Queue) Consume(ctx context.Context, handler Handler) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return errors.Wrap(errors.UpstreamFailure, err, "rabbitmq channel")
	}
	if err := ch.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	); err != nil {
		_ = ch.Close()
		return errors.Wrap(errors.UpstreamFailure, err, "rabbitmq qos")
	}
	messages, err := ch.Consume(
		q.name, // queue
		"",     // consumer
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		_ = ch.Close()
		return errors.Wrap(errors.UpstreamFailure, err, "rabbitmq consume")
	}
	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-messages:
				if !ok {
					return
				}
				if err := handler(ctx, d.Body); err != nil {
					logger.Errorf(map[string]interface{}{"queue": q.name}, "handle message error: %s", err.Error())
					_ = d.Nack(false, !d.Redelivered)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()
	return nil
}

// Close releases the publishing channel.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ch.Close()
}
