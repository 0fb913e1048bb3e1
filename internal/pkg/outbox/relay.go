package outbox

import (
	"context"
	"time"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/logger"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/metrics"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
)

const maxBackoff = 5 * time.Minute

// Locker 是分布式锁，持有者成为唯一的 relay。
type Locker interface {
	Lock() error
	Unlock() error
}

type RelayConfig struct {
	Interval    time.Duration `yaml:"interval"`
	BatchSize   int           `yaml:"batchSize"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Lease       time.Duration `yaml:"lease"`
}

func (c RelayConfig) withDefaults() RelayConfig {
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 10
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = time.Second
	}
	return c
}

// Relay 周期性地把 outbox 行投递到 broker。
type Relay struct {
	name      string
	store     *Store
	publisher mq.Publisher
	cfg       RelayConfig
	leader    Locker
	now       func() time.Time
}

type RelayOption func(*Relay)

// WithLeaderLock 只有拿到锁的实例才会投递。
func WithLeaderLock(l Locker) RelayOption {
	return func(r *Relay) { r.leader = l }
}

func NewRelay(name string, store *Store, publisher mq.Publisher, cfg RelayConfig, opts ...RelayOption) *Relay {
	r := &Relay{
		name:      name,
		store:     store,
		publisher: publisher,
		cfg:       cfg.withDefaults(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run 阻塞运行直到 ctx 取消。
func (r *Relay) Run(ctx context.Context) error {
	log := logger.Ctx(ctx).With().Str("relay", r.name).Logger()

	if r.leader != nil {
		for {
			err := r.leader.Lock()
			if err == nil {
				break
			}
			log.Warn().Err(err).Msg("outbox relay leadership not acquired, waiting")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(r.cfg.Interval):
			}
		}
		defer func() {
			if err := r.leader.Unlock(); err != nil {
				log.Warn().Err(err).Msg("failed to release outbox relay leadership")
			}
		}()
		log.Info().Msg("outbox relay leadership acquired")
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		n, err := r.DrainOnce(ctx)
		if err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("outbox drain failed")
		}
		// 满批说明还有积压，立即继续
		if n >= r.cfg.BatchSize && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			log.Info().Msg("outbox relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// DrainOnce 认领一批记录并逐条投递，返回认领的数量。
func (r *Relay) DrainOnce(ctx context.Context) (int, error) {
	now := r.now()
	records, err := r.store.Claim(ctx, r.cfg.BatchSize, now)
	if err != nil {
		return 0, err
	}

	for i := range records {
		rec := &records[i]
		msg, err := rec.Message()
		if err == nil {
			err = r.publisher.Publish(ctx, msg)
		}
		if err == nil {
			if markErr := r.store.MarkSent(ctx, rec.ID, r.now()); markErr != nil {
				// 消息已发出，重复投递由下游 inbox 去重
				logger.Ctx(ctx).Error().Err(markErr).Uint64("outbox_id", rec.ID).Msg("failed to mark outbox record sent")
			}
			metrics.OutboxDispatched.WithLabelValues(rec.Topic, "sent").Inc()
			continue
		}
		r.handlePublishFailure(ctx, rec, err)
	}
	return len(records), nil
}

func (r *Relay) handlePublishFailure(ctx context.Context, rec *Record, cause error) {
	attempts := rec.Attempts + 1
	log := logger.Ctx(ctx).With().
		Str("relay", r.name).
		Uint64("outbox_id", rec.ID).
		Str("topic", rec.Topic).
		Str("key", rec.MessageKey).
		Str("event_id", rec.EventID).
		Int("attempts", attempts).
		Logger()

	if attempts >= r.cfg.MaxAttempts {
		if err := r.store.MarkFailed(ctx, rec.ID, attempts, cause.Error()); err != nil {
			log.Error().Err(err).Msg("failed to mark outbox record failed")
		}
		metrics.OutboxDispatched.WithLabelValues(rec.Topic, "failed").Inc()
		log.Error().Err(cause).Str("alert", "outbox_exhausted").Msg("CRITICAL: outbox message exhausted its attempts and will not be published")
		return
	}

	next := r.now().Add(r.backoff(attempts))
	if err := r.store.MarkRetry(ctx, rec.ID, attempts, next, cause.Error()); err != nil {
		log.Error().Err(err).Msg("failed to reschedule outbox record")
	}
	metrics.OutboxDispatched.WithLabelValues(rec.Topic, "retry").Inc()
	log.Error().Err(cause).Time("next_attempt_at", next).Msg("CRITICAL: failed to publish outbox message, will retry")
}

func (r *Relay) backoff(attempts int) time.Duration {
	d := r.cfg.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
