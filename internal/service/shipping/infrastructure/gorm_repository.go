package infrastructure

import (
	"context"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/database"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/outbox"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/shipping/domain"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var mutableColumns = []string{
	"user_id", "carrier", "tracking_number", "shipping_address", "items",
	"status", "history", "version", "updated_at",
}

type GormShipmentRepository struct {
	db *gorm.DB
}

func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

func (r *GormShipmentRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&ShipmentModel{}, &outbox.Record{})
}

func (r *GormShipmentRepository) Create(ctx context.Context, s *domain.Shipment, msgs ...mq.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(toModel(s)).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return domain.ErrDuplicateShipment
			}
			return errors.Wrapf(err, "insert shipment for order %s", s.OrderID)
		}
		return outbox.Enqueue(tx, msgs...)
	})
}

func (r *GormShipmentRepository) Save(ctx context.Context, s *domain.Shipment, msgs ...mq.Message) error {
	expected := s.Version
	model := toModel(s)
	model.Version = expected + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(model).Where("version = ?", expected).Select(mutableColumns).Updates(model)
		if res.Error != nil {
			return errors.Wrapf(res.Error, "update shipment %s", s.ID)
		}
		if res.RowsAffected == 0 {
			return domain.ErrConcurrentUpdate
		}
		return outbox.Enqueue(tx, msgs...)
	})
	if err != nil {
		return err
	}
	s.Version = model.Version
	return nil
}

func (r *GormShipmentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Shipment, error) {
	var model ShipmentModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, errors.Wrapf(err, "find shipment for order %s", orderID)
	}
	return toDomain(&model), nil
}
