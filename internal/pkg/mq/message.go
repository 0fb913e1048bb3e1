package mq

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/correlation"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Message 是一条待发布的消息，与 broker 无关，可以原样落入 outbox。
type Message struct {
	Topic   string
	Key     string
	Value   []byte
	Headers map[string]string
}

// EventID 返回消息头里的 eventId。
func (m Message) EventID() string {
	return m.Headers[HeaderEventID]
}

// Encode 将事件序列化为消息，并写入 eventId、类型、关联ID和 trace 上下文。
func Encode(ctx context.Context, ev contract.Event) (Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return Message{}, errors.Wrapf(err, "marshal %s", ev.Queue())
	}
	headers := map[string]string{
		HeaderEventID:   ev.Metadata().EventID,
		HeaderEventType: ev.Queue(),
	}
	if id := correlation.FromContext(ctx); id != "" {
		headers[HeaderCorrelationID] = id
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(headers))
	return Message{Topic: ev.Queue(), Key: ev.Key(), Value: value, Headers: headers}, nil
}

// EncodeAll 按顺序编码多个事件。
func EncodeAll(ctx context.Context, events ...contract.Event) ([]Message, error) {
	msgs := make([]Message, 0, len(events))
	for _, ev := range events {
		msg, err := Encode(ctx, ev)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// ToKafka 转换为 kafka-go 的消息，消息头按 key 排序。
func (m Message) ToKafka() kafka.Message {
	keys := make([]string, 0, len(m.Headers))
	for k := range m.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	headers := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(m.Headers[k])})
	}
	return kafka.Message{
		Topic:   m.Topic,
		Key:     []byte(m.Key),
		Value:   m.Value,
		Headers: headers,
	}
}

// Decode 反序列化消息体；格式错误视为永久失败，直接进入死信。
func Decode[T any](msg kafka.Message) (*T, error) {
	var v T
	if err := json.Unmarshal(msg.Value, &v); err != nil {
		return nil, Permanent(errors.Wrapf(err, "decode message from %s", msg.Topic))
	}
	return &v, nil
}

// Handle 把强类型处理函数适配为 HandlerFunc。
func Handle[T any](fn func(ctx context.Context, ev *T) error) HandlerFunc {
	return func(ctx context.Context, msg kafka.Message) error {
		ev, err := Decode[T](msg)
		if err != nil {
			return err
		}
		return fn(ctx, ev)
	}
}
