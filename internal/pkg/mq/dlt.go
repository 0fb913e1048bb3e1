package mq

import (
	"context"
	"strings"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/logger"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/metrics"
	"github.com/segmentio/kafka-go"
)

// DeadLetterQueues 返回给定队列对应的全部死信队列。
func DeadLetterQueues(queues []string) []string {
	dlts := make([]string, 0, len(queues))
	for _, q := range queues {
		dlts = append(dlts, contract.DeadLetterQueue(q))
	}
	return dlts
}

// LogDeadLetter 以结构化日志记录一条死信，作为 dlt-monitor 的处理函数。
// DLT 中的消息总是视为已处理。
func LogDeadLetter(ctx context.Context, msg kafka.Message) error {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}

	original := headers[HeaderOriginalTopic]
	if original == "" {
		original = strings.TrimSuffix(msg.Topic, contract.DLTSuffix)
	}
	metrics.DeadLetters.WithLabelValues(original).Inc()

	logger.Ctx(ctx).Error().
		Str("reason", "dead_letter_message_received").
		Str("original_topic", original).
		Str("original_partition", headers[HeaderOriginalPartition]).
		Str("original_offset", headers[HeaderOriginalOffset]).
		Str("exception_fqcn", headers[HeaderExceptionFqcn]).
		Str("exception_message", headers[HeaderExceptionMessage]).
		Str("event_id", headers[HeaderEventID]).
		Str("key", string(msg.Key)).
		Str("value", string(msg.Value)).
		Msg("🚨 CRITICAL: Dead letter message received")
	return nil
}
