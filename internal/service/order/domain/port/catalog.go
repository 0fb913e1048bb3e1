package port

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product 是商品目录返回的商品快照。
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	IsActive bool
}

// CatalogService 是商品目录的出站端口。
type CatalogService interface {
	// FetchProducts 按 ID 批量查询，不存在的商品不出现在结果中。
	FetchProducts(ctx context.Context, ids []string) (map[string]Product, error)
}
