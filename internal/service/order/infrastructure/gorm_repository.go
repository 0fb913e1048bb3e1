package infrastructure

import (
	"context"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/outbox"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// mutableColumns 是订单创建后允许更新的列，金额列不在其中。
var mutableColumns = []string{"status", "payment_status", "refunded_amount", "history", "cancel_reason", "version", "updated_at"}

// GormOrderRepository 是 OrderRepository 的 GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// AutoMigrate 建表，包括 outbox。
func (r *GormOrderRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&OrderModel{}, &outbox.Record{})
}

func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order, msgs ...mq.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(FromDomainOrder(order)).Error; err != nil {
			return errors.Wrapf(err, "insert order %s", order.ID)
		}
		return outbox.Enqueue(tx, msgs...)
	})
}

func (r *GormOrderRepository) Update(ctx context.Context, order *domain.Order, msgs ...mq.Message) error {
	expected := order.Version
	model := FromDomainOrder(order)
	model.Version = expected + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(model).
			Where("version = ?", expected).
			Select(mutableColumns).
			Updates(model)
		if res.Error != nil {
			return errors.Wrapf(res.Error, "update order %s", order.ID)
		}
		if res.RowsAffected == 0 {
			return domain.ErrConcurrentUpdate
		}
		return outbox.Enqueue(tx, msgs...)
	})
	if err != nil {
		return err
	}
	order.Version = model.Version
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrapf(err, "find order %s", id)
	}
	return ToDomainOrder(&model), nil
}
