package mq

import (
	"context"
	"io"
	"time"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/correlation"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/logger"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrPermanent 标记不应重试的失败。
var ErrPermanent = errors.New("permanent failure")

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }
func (e *permanentError) Is(target error) bool {
	return target == ErrPermanent
}

// Permanent 包装一个错误，使消费者跳过重试直接进入死信。
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Reader 是消费者依赖的 kafka.Reader 子集。
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Inbox 记录已处理的 eventId。
type Inbox interface {
	Seen(ctx context.Context, consumer, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, consumer, eventID string) error
}

// HandlerFunc 处理一条消息。
type HandlerFunc func(ctx context.Context, msg kafka.Message) error

// RetryPolicy 进程内重试策略，耗尽后交给 FailureHandler。
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy 三次尝试，200ms 起指数退避。
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, InitialBackoff: 200 * time.Millisecond, MaxBackoff: 5 * time.Second}

// ConsumerAdapter 顺序消费一个队列：取消息、去重、处理、失败转死信、提交 offset。
type ConsumerAdapter struct {
	name           string
	topic          string
	reader         Reader
	handler        HandlerFunc
	inbox          Inbox
	failureHandler *FailureHandler
	retry          RetryPolicy
	tracer         trace.Tracer
}

type ConsumerOption func(*ConsumerAdapter)

func WithInbox(inbox Inbox) ConsumerOption {
	return func(a *ConsumerAdapter) { a.inbox = inbox }
}

func WithFailureHandler(h *FailureHandler) ConsumerOption {
	return func(a *ConsumerAdapter) { a.failureHandler = h }
}

func WithRetryPolicy(p RetryPolicy) ConsumerOption {
	return func(a *ConsumerAdapter) {
		if p.MaxAttempts < 1 {
			p.MaxAttempts = 1
		}
		a.retry = p
	}
}

// NewConsumerAdapter 创建消费者。name 同时作为 inbox 的命名空间。
func NewConsumerAdapter(name, topic string, reader Reader, handler HandlerFunc, opts ...ConsumerOption) *ConsumerAdapter {
	a := &ConsumerAdapter{
		name:    name,
		topic:   topic,
		reader:  reader,
		handler: handler,
		retry:   DefaultRetryPolicy,
		tracer:  otel.Tracer("mq"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run 阻塞消费直到 ctx 取消，退出时关闭 reader。
func (a *ConsumerAdapter) Run(ctx context.Context) error {
	defer a.reader.Close()
	logger.Ctx(ctx).Info().Str("consumer", a.name).Str("topic", a.topic).Msg("✅ Kafka consumer started")

	for {
		// FetchMessage 而不是 ReadMessage，offset 在处理之后提交
		msg, err := a.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				logger.Ctx(ctx).Info().Str("consumer", a.name).Msg("🛑 Kafka consumer shutting down")
				return nil
			}
			logger.Ctx(ctx).Error().Err(err).Str("topic", a.topic).Msg("could not fetch message, retrying")
			if !sleep(ctx, time.Second) {
				return nil
			}
			continue
		}

		if !a.process(ctx, msg) {
			// 处理被中断，不提交，重启后重新投递
			return nil
		}
		if err := a.reader.CommitMessages(ctx, msg); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("topic", msg.Topic).Int64("offset", msg.Offset).Msg("failed to commit message")
		}
	}
}

// process 返回 false 表示 ctx 已取消且消息未处理完。
func (a *ConsumerAdapter) process(ctx context.Context, msg kafka.Message) bool {
	carrier := KafkaHeaderCarrier(msg.Headers)
	msgCtx := otel.GetTextMapPropagator().Extract(ctx, &carrier)
	msgCtx = correlation.WithID(msgCtx, carrier.Get(HeaderCorrelationID))
	msgCtx, span := a.tracer.Start(msgCtx, "consume "+msg.Topic, trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	eventID := carrier.Get(HeaderEventID)
	span.SetAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination", msg.Topic),
		attribute.String("messaging.message_id", eventID),
		attribute.String("messaging.consumer", a.name),
	)
	log := logger.Ctx(msgCtx).With().Str("consumer", a.name).Str("topic", msg.Topic).Str("event_id", eventID).Logger()

	if a.inbox != nil && eventID != "" {
		seen, err := a.inbox.Seen(msgCtx, a.name, eventID)
		if err != nil {
			// inbox 不可用时继续处理，处理函数本身按 orderId 幂等
			log.Warn().Err(err).Msg("inbox lookup failed, processing anyway")
		} else if seen {
			log.Debug().Msg("duplicate event skipped")
			metrics.MessagesConsumed.WithLabelValues(msg.Topic, "duplicate").Inc()
			return true
		}
	}

	start := time.Now()
	err := a.handleWithRetry(msgCtx, msg, &log)
	metrics.HandlerDuration.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "message handling failed")
		metrics.MessagesConsumed.WithLabelValues(msg.Topic, "dead_lettered").Inc()
		if a.failureHandler == nil {
			log.Error().Err(err).Msg("CRITICAL: message handling failed and no DLT is configured")
			return true
		}
		return a.park(msgCtx, msg, err)
	}

	if a.inbox != nil && eventID != "" {
		if err := a.inbox.MarkProcessed(msgCtx, a.name, eventID); err != nil {
			log.Warn().Err(err).Msg("failed to mark event as processed")
		}
	}
	metrics.MessagesConsumed.WithLabelValues(msg.Topic, "processed").Inc()
	return true
}

// park 转发到死信直到成功；转发失败时不提交 offset，分区在此阻塞。
// 返回 false 表示 ctx 已取消，消息会在重启后重新投递。
func (a *ConsumerAdapter) park(ctx context.Context, msg kafka.Message, cause error) bool {
	backoff := a.retry.InitialBackoff
	for {
		if err := a.failureHandler.Handle(ctx, msg, cause); err == nil {
			return true
		}
		metrics.MessagesConsumed.WithLabelValues(msg.Topic, "dlt_failed").Inc()
		if !sleep(ctx, backoff) {
			return false
		}
		backoff *= 2
		if backoff == 0 {
			backoff = a.retry.MaxBackoff
		}
		if a.retry.MaxBackoff > 0 && backoff > a.retry.MaxBackoff {
			backoff = a.retry.MaxBackoff
		}
	}
}

func (a *ConsumerAdapter) handleWithRetry(ctx context.Context, msg kafka.Message, log *zerolog.Logger) error {
	backoff := a.retry.InitialBackoff
	for attempt := 1; ; attempt++ {
		err := a.handler(ctx, msg)
		if err == nil || errors.Is(err, ErrPermanent) || attempt >= a.retry.MaxAttempts {
			return err
		}
		log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", backoff).Msg("handler failed, retrying")
		if !sleep(ctx, backoff) {
			return err
		}
		backoff *= 2
		if a.retry.MaxBackoff > 0 && backoff > a.retry.MaxBackoff {
			backoff = a.retry.MaxBackoff
		}
	}
}

// sleep 等待 d，ctx 取消时返回 false。
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
