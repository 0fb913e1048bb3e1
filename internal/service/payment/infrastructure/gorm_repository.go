package infrastructure

import (
	"context"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/database"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/outbox"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/payment/domain"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var mutableColumns = []string{"status", "transaction_id", "refunded_amount", "failure_reason", "version", "updated_at"}

// GormPaymentRepository 是 PaymentRepository 的 GORM 实现
type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&PaymentModel{}, &outbox.Record{})
}

func (r *GormPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	if err := r.db.WithContext(ctx).Create(toModel(p)).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return domain.ErrDuplicatePayment
		}
		return errors.Wrapf(err, "insert payment for order %s", p.OrderID)
	}
	return nil
}

func (r *GormPaymentRepository) Save(ctx context.Context, p *domain.Payment, msgs ...mq.Message) error {
	expected := p.Version
	model := toModel(p)
	model.Version = expected + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(model).Where("version = ?", expected).Select(mutableColumns).Updates(model)
		if res.Error != nil {
			return errors.Wrapf(res.Error, "update payment %s", p.ID)
		}
		if res.RowsAffected == 0 {
			return domain.ErrConcurrentUpdate
		}
		return outbox.Enqueue(tx, msgs...)
	})
	if err != nil {
		return err
	}
	p.Version = model.Version
	return nil
}

func (r *GormPaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	var model PaymentModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, errors.Wrapf(err, "find payment for order %s", orderID)
	}
	return toDomain(&model), nil
}
