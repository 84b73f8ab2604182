package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/example/goshop/internal/config"
)

// Dial 建立 RabbitMQ 连接
func Dial(cfg *config.RabbitMQConfig) (*amqp.Connection, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	return conn, nil
}

func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	return err
}

// Publisher 向持久化队列发送 JSON 消息。amqp.Channel 不是并发安全的，发送时加锁。
type Publisher struct {
	mu    sync.Mutex
	ch    *amqp.Channel
	queue string
}

// NewPublisher 打开 channel 并声明队列
func NewPublisher(conn *amqp.Connection, queue string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := declare(ch, queue); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &Publisher{ch: ch, queue: queue}, nil
}

func (p *Publisher) Publish(ctx context.Context, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(
		ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

// Handler 处理单条消息；返回 error 时消息被拒绝且不重新入队
type Handler func(ctx context.Context, body []byte) error

// Consume 手动确认模式消费队列，直到 ctx 结束或连接断开
func Consume(ctx context.Context, conn *amqp.Connection, queue string, log *zap.Logger, handle Handler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := declare(ch, queue); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := ch.Qos(16, 0, false); err != nil {
		return err
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return amqp.ErrClosed
			}
			if err := handle(ctx, d.Body); err != nil {
				log.Warn("message rejected", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
