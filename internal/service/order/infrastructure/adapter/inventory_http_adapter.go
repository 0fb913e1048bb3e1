package adapter

import (
	"context"
	"fmt"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/httpclient"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain/port"
)

const inventoryCheckBulkPath = "/inventory/check-bulk"

// InventoryHTTPAdapter 实现了 port.InventoryService 接口。
type InventoryHTTPAdapter struct {
	client  *httpclient.Client
	service string
}

// NewInventoryHTTPAdapter 创建一个新的库存服务适配器。
func NewInventoryHTTPAdapter(client *httpclient.Client, service string) *InventoryHTTPAdapter {
	return &InventoryHTTPAdapter{client: client, service: service}
}

type stockItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type checkBulkRequest struct {
	Items []stockItem `json:"items"`
}

type checkBulkResponse struct {
	Items []struct {
		ProductID string `json:"productId"`
		Requested int    `json:"requested"`
		Available int    `json:"available"`
		InStock   bool   `json:"inStock"`
		Reason    string `json:"reason"`
	} `json:"items"`
}

// CheckBulk 只读检查，不做预留。
func (a *InventoryHTTPAdapter) CheckBulk(ctx context.Context, items []port.StockQuery) ([]port.StockAvailability, error) {
	req := checkBulkRequest{Items: make([]stockItem, 0, len(items))}
	for _, it := range items {
		req.Items = append(req.Items, stockItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	var resp checkBulkResponse
	if err := a.client.PostJSON(ctx, a.service, inventoryCheckBulkPath, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: inventory: %v", domain.ErrDependencyUnavailable, err)
	}
	out := make([]port.StockAvailability, 0, len(resp.Items))
	for _, it := range resp.Items {
		out = append(out, port.StockAvailability{
			ProductID: it.ProductID,
			Requested: it.Requested,
			Available: it.Available,
			InStock:   it.InStock,
			Reason:    it.Reason,
		})
	}
	return out, nil
}
