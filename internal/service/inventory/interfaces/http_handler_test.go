package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/inventory/domain"
)

type stubInventory struct {
	stock map[string]int
}

func (s *stubInventory) CheckBulk(ctx context.Context, lines []domain.Line) ([]domain.Availability, error) {
	out := []domain.Availability{}
	for _, l := range lines {
		out = append(out, domain.Availability{ProductID: l.ProductID, Requested: l.Quantity, Available: s.stock[l.ProductID], InStock: s.stock[l.ProductID] >= l.Quantity})
	}
	return out, nil
}

func (s *stubInventory) SetStock(ctx context.Context, productID string, available int) (domain.StockLevel, error) {
	if available < 0 {
		return domain.StockLevel{}, domain.ErrInvalidLine
	}
	s.stock[productID] = available
	return domain.StockLevel{ProductID: productID, Available: available}, nil
}

func (s *stubInventory) GetReservation(ctx context.Context, orderID string) (*domain.Reservation, error) {
	return nil, domain.ErrReservationNotFound
}

func do(h *InventoryHandler, method, path, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestInventoryHandler(t *testing.T) {
	h := NewInventoryHandler(&stubInventory{stock: map[string]int{}})

	if rec := do(h, http.MethodPut, "/inventory/stock/p-1", `{"available":3}`); rec.Code != http.StatusOK {
		t.Fatalf("set stock code = %d", rec.Code)
	}
	if rec := do(h, http.MethodPut, "/inventory/stock/p-1", `{"available":-1}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative stock code = %d", rec.Code)
	}

	rec := do(h, http.MethodPost, "/inventory/check-bulk", `{"items":[{"productId":"p-1","quantity":5}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("check code = %d", rec.Code)
	}
	var resp checkBulkResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Items) != 1 || resp.Items[0].InStock || resp.Items[0].Available != 3 {
		t.Errorf("resp = %+v", resp)
	}

	if rec := do(h, http.MethodGet, "/inventory/reservations/o-1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("reservation code = %d", rec.Code)
	}
}
