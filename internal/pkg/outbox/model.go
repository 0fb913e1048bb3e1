// Package outbox 实现事务性发件箱：业务变更与待发消息在同一个事务中落库，
// 由 Relay 异步投递到 Kafka。
package outbox

import (
	"encoding/json"
	"time"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/pkg/errors"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusInFlight Status = "in_flight"
	StatusSent     Status = "sent"
	StatusFailed   Status = "failed"
)

// Record 对应 outbox_messages 表。
type Record struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	EventID       string    `gorm:"size:64;uniqueIndex"`
	Topic         string    `gorm:"size:128;index"`
	MessageKey    string    `gorm:"size:128"`
	Payload       []byte    `gorm:"not null"`
	Headers       string    `gorm:"type:text"`
	Status        Status    `gorm:"size:16;index:idx_outbox_due,priority:1"`
	NextAttemptAt time.Time `gorm:"index:idx_outbox_due,priority:2"`
	Attempts      int
	LastError     string `gorm:"type:text"`
	CreatedAt     time.Time
	SentAt        *time.Time
}

func (Record) TableName() string {
	return "outbox_messages"
}

// Message 还原为可发布的消息。
func (r *Record) Message() (mq.Message, error) {
	headers := map[string]string{}
	if r.Headers != "" {
		if err := json.Unmarshal([]byte(r.Headers), &headers); err != nil {
			return mq.Message{}, errors.Wrapf(err, "decode headers of outbox record %d", r.ID)
		}
	}
	return mq.Message{Topic: r.Topic, Key: r.MessageKey, Value: r.Payload, Headers: headers}, nil
}
