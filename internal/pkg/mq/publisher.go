package mq

import (
	"context"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// Publisher 发布消息到 broker。
type Publisher interface {
	Publish(ctx context.Context, msgs ...Message) error
}

// KafkaPublisher 是基于 kafka.Writer 的 Publisher。
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// Publish 同步写入，所有副本确认后返回。
func (p *KafkaPublisher) Publish(ctx context.Context, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	kmsgs := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		kmsgs = append(kmsgs, m.ToKafka())
	}
	if err := p.writer.WriteMessages(ctx, kmsgs...); err != nil {
		return errors.Wrapf(err, "write %d message(s), first topic %s", len(kmsgs), kmsgs[0].Topic)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// PublishEvents 编码后直接发布，不经过 outbox。
func PublishEvents(ctx context.Context, p Publisher, events ...contract.Event) error {
	msgs, err := EncodeAll(ctx, events...)
	if err != nil {
		return err
	}
	return p.Publish(ctx, msgs...)
}
