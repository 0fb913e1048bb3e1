package interfaces

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/payment/domain"
	"github.com/shopspring/decimal"
)

type stubReader map[string]*domain.Payment

func (s stubReader) GetPayment(ctx context.Context, orderID string) (*domain.Payment, error) {
	if p, ok := s[orderID]; ok {
		return p, nil
	}
	return nil, domain.ErrPaymentNotFound
}

func TestPaymentHandler(t *testing.T) {
	mux := http.NewServeMux()
	NewPaymentHandler(stubReader{"o-1": domain.NewPayment("o-1", "u-1", decimal.NewFromInt(12), "card")}).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/o-1", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"pending"`) {
		t.Fatalf("code = %d body = %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/o-2", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d", rec.Code)
	}
}
