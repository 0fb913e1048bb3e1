// Package mq 封装 kafka-go：消息编码、发布、顺序消费与死信处理。
package mq

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// 业务消息头
const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderCorrelationID = "correlation-id"
)

// 死信消息头
const (
	HeaderOriginalTopic     = "x-original-topic"
	HeaderOriginalPartition = "x-original-partition"
	HeaderOriginalOffset    = "x-original-offset"
	HeaderExceptionFqcn     = "x-exception-fqcn"
	HeaderExceptionMessage  = "x-exception-message"
)

// KafkaHeaderCarrier 让 kafka 消息头实现 propagation.TextMapCarrier。
type KafkaHeaderCarrier []kafka.Header

func (c *KafkaHeaderCarrier) Get(key string) string {
	for _, h := range *c {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *KafkaHeaderCarrier) Set(key, value string) {
	for i, h := range *c {
		if h.Key == key {
			(*c)[i].Value = []byte(value)
			return
		}
	}
	*c = append(*c, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *KafkaHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(*c))
	for _, h := range *c {
		keys = append(keys, h.Key)
	}
	return keys
}

// ReaderOptions 控制消费者的拉取行为。
type ReaderOptions struct {
	// Prefetch 为客户端预取队列长度，默认 1
	Prefetch int
	MaxWait  time.Duration
}

// NewKafkaReader 创建单 topic 的消费组 reader，offset 由调用方显式提交。
func NewKafkaReader(brokers []string, groupID, topic string, opts ReaderOptions) *kafka.Reader {
	return kafka.NewReader(readerConfig(brokers, groupID, opts, func(cfg *kafka.ReaderConfig) {
		cfg.Topic = topic
	}))
}

// NewKafkaGroupReader 创建同时订阅多个 topic 的 reader。
func NewKafkaGroupReader(brokers []string, groupID string, topics []string, opts ReaderOptions) *kafka.Reader {
	return kafka.NewReader(readerConfig(brokers, groupID, opts, func(cfg *kafka.ReaderConfig) {
		cfg.GroupTopics = topics
	}))
}

func readerConfig(brokers []string, groupID string, opts ReaderOptions, apply func(*kafka.ReaderConfig)) kafka.ReaderConfig {
	if opts.Prefetch <= 0 {
		opts.Prefetch = 1
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 500 * time.Millisecond
	}
	cfg := kafka.ReaderConfig{
		Brokers:       brokers,
		GroupID:       groupID,
		QueueCapacity: opts.Prefetch,
		MinBytes:      1,
		MaxBytes:      10e6,
		MaxWait:       opts.MaxWait,
		StartOffset:   kafka.FirstOffset,
	}
	apply(&cfg)
	return cfg
}

// NewKafkaWriter 创建一个不绑定 topic 的 writer，topic 由每条消息指定。
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
}
