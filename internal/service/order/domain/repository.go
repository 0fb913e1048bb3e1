// internal/service/order/domain/repository.go
package domain

import (
	"context"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
)

// OrderRepository 定义了订单聚合的持久化接口。
// msgs 与订单变更在同一事务中写入 outbox。
type OrderRepository interface {
	// Create 保存新订单。
	Create(ctx context.Context, order *Order, msgs ...mq.Message) error

	// Update 以 Version 做乐观锁，冲突时返回 ErrConcurrentUpdate，成功后 Version 自增。
	Update(ctx context.Context, order *Order, msgs ...mq.Message) error

	// FindByID 找不到时返回 ErrOrderNotFound。
	FindByID(ctx context.Context, id string) (*Order, error)
}
