package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Enqueue 在调用方的事务里写入待发消息。
func Enqueue(tx *gorm.DB, msgs ...mq.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	records := make([]Record, 0, len(msgs))
	for _, m := range msgs {
		headers, err := json.Marshal(m.Headers)
		if err != nil {
			return errors.Wrap(err, "encode outbox headers")
		}
		eventID := m.EventID()
		if eventID == "" {
			eventID = uuid.NewString()
		}
		records = append(records, Record{
			EventID:       eventID,
			Topic:         m.Topic,
			MessageKey:    m.Key,
			Payload:       m.Value,
			Headers:       string(headers),
			Status:        StatusPending,
			NextAttemptAt: now,
			CreatedAt:     now,
		})
	}
	if err := tx.Create(&records).Error; err != nil {
		return errors.Wrap(err, "insert outbox records")
	}
	return nil
}

// Store 负责 outbox 行的认领与状态更新。
type Store struct {
	db    *gorm.DB
	lease time.Duration
}

func NewStore(db *gorm.DB, lease time.Duration) *Store {
	if lease <= 0 {
		lease = 30 * time.Second
	}
	return &Store{db: db, lease: lease}
}

// Claim 认领到期的行并设置租约，租约过期的 in_flight 行会被重新认领。
// 多实例时依靠 FOR UPDATE SKIP LOCKED 互斥。
func (s *Store) Claim(ctx context.Context, limit int, now time.Time) ([]Record, error) {
	var records []Record
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status IN ? AND next_attempt_at <= ?", []Status{StatusPending, StatusInFlight}, now).
			Order("id").
			Limit(limit).
			Find(&records).Error
		if err != nil || len(records) == 0 {
			return err
		}
		ids := make([]uint64, 0, len(records))
		for _, r := range records {
			ids = append(ids, r.ID)
		}
		return tx.Model(&Record{}).Where("id IN ?", ids).Updates(map[string]interface{}{
			"status":          StatusInFlight,
			"next_attempt_at": now.Add(s.lease),
		}).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "claim outbox records")
	}
	return records, nil
}

func (s *Store) MarkSent(ctx context.Context, id uint64, now time.Time) error {
	err := s.db.WithContext(ctx).Model(&Record{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":  StatusSent,
		"sent_at": now,
	}).Error
	return errors.Wrapf(err, "mark outbox record %d sent", id)
}

func (s *Store) MarkRetry(ctx context.Context, id uint64, attempts int, next time.Time, lastErr string) error {
	err := s.db.WithContext(ctx).Model(&Record{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":          StatusPending,
		"attempts":        attempts,
		"next_attempt_at": next,
		"last_error":      lastErr,
	}).Error
	return errors.Wrapf(err, "reschedule outbox record %d", id)
}

func (s *Store) MarkFailed(ctx context.Context, id uint64, attempts int, lastErr string) error {
	err := s.db.WithContext(ctx).Model(&Record{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     StatusFailed,
		"attempts":   attempts,
		"last_error": lastErr,
	}).Error
	return errors.Wrapf(err, "mark outbox record %d failed", id)
}

// CountByStatus 用于巡检。
func (s *Store) CountByStatus(ctx context.Context, status Status) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Record{}).Where("status = ?", status).Count(&n).Error
	return n, errors.Wrap(err, "count outbox records")
}
