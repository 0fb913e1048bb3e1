package port

import "context"

type StockQuery struct {
	ProductID string
	Quantity  int
}

// StockAvailability 是库存服务对单个商品的检查结果。
type StockAvailability struct {
	ProductID string
	Requested int
	Available int
	InStock   bool
	Reason    string
}

// InventoryService 是库存检查的出站端口，预留本身通过消息异步完成。
type InventoryService interface {
	CheckBulk(ctx context.Context, items []StockQuery) ([]StockAvailability, error)
}
