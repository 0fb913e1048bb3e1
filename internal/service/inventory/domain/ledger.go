package domain

import "context"

// Ledger 是库存账本的持久化接口，每个方法都是原子的。
type Ledger interface {
	CheckBulk(ctx context.Context, lines []Line) ([]Availability, error)
	// Reserve 全部满足才预留，按 orderId 幂等。
	Reserve(ctx context.Context, orderID string, lines []Line) (ReserveResult, error)
	// Release 归还预留；未知订单写入 released 墓碑，返回是否真正归还了库存。
	Release(ctx context.Context, orderID string) (bool, error)
	// Commit 仅在 reserved 状态下生效，返回是否发生了变化。
	Commit(ctx context.Context, orderID string) (bool, error)
	SetStock(ctx context.Context, productID string, available int) (StockLevel, error)
	GetReservation(ctx context.Context, orderID string) (*Reservation, error)
}
