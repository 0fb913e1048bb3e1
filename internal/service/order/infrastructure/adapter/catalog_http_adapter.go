package adapter

import (
	"context"
	"fmt"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/httpclient"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain/port"
	"github.com/shopspring/decimal"
)

const catalogBulkPath = "/products/bulk"

// CatalogHTTPAdapter 实现了 port.CatalogService 接口。
type CatalogHTTPAdapter struct {
	client  *httpclient.Client
	service string
}

// NewCatalogHTTPAdapter service 为商品服务在注册中心里的名字。
func NewCatalogHTTPAdapter(client *httpclient.Client, service string) *CatalogHTTPAdapter {
	return &CatalogHTTPAdapter{client: client, service: service}
}

type bulkProductsRequest struct {
	IDs []string `json:"ids"`
}

type bulkProductsResponse struct {
	Products []struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		Price    decimal.Decimal `json:"price"`
		IsActive bool            `json:"isActive"`
	} `json:"products"`
}

// FetchProducts 任何调用失败都视为依赖不可用。
func (a *CatalogHTTPAdapter) FetchProducts(ctx context.Context, ids []string) (map[string]port.Product, error) {
	var resp bulkProductsResponse
	if err := a.client.PostJSON(ctx, a.service, catalogBulkPath, bulkProductsRequest{IDs: ids}, &resp); err != nil {
		return nil, fmt.Errorf("%w: catalog: %v", domain.ErrDependencyUnavailable, err)
	}
	products := make(map[string]port.Product, len(resp.Products))
	for _, p := range resp.Products {
		products[p.ID] = port.Product{ID: p.ID, Name: p.Name, Price: p.Price, IsActive: p.IsActive}
	}
	return products, nil
}
