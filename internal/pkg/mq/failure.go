package mq

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/logger"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// FailureHandler 把处理失败的消息转发到 <topic>.dlt。
type FailureHandler struct {
	publisher Publisher
}

func NewFailureHandler(publisher Publisher) *FailureHandler {
	return &FailureHandler{publisher: publisher}
}

// Handle 原样转发消息体与消息头，并附加来源与异常信息。
func (h *FailureHandler) Handle(ctx context.Context, msg kafka.Message, cause error) error {
	headers := make(map[string]string, len(msg.Headers)+5)
	for _, hd := range msg.Headers {
		headers[hd.Key] = string(hd.Value)
	}
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderOriginalPartition] = strconv.Itoa(msg.Partition)
	headers[HeaderOriginalOffset] = strconv.FormatInt(msg.Offset, 10)
	headers[HeaderExceptionFqcn] = fmt.Sprintf("%T", rootCause(cause))
	headers[HeaderExceptionMessage] = cause.Error()

	dlt := Message{
		Topic:   contract.DeadLetterQueue(msg.Topic),
		Key:     string(msg.Key),
		Value:   msg.Value,
		Headers: headers,
	}
	if err := h.publisher.Publish(ctx, dlt); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("topic", msg.Topic).
			Int64("offset", msg.Offset).
			Str("cause", cause.Error()).
			Msg("CRITICAL: failed to publish message to DLT, offset not committed")
		return err
	}

	logger.Ctx(ctx).Error().Err(cause).
		Str("topic", msg.Topic).
		Str("dlt", dlt.Topic).
		Int64("offset", msg.Offset).
		Msg("message parked on DLT")
	return nil
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
