package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/httpclient"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/payment/domain/port"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestFakeGateway(t *testing.T) {
	g := NewFakeGateway([]string{"crypto"}, decimal.NewFromInt(1000))
	ctx := context.Background()

	ok, _ := g.Charge(ctx, port.ChargeRequest{IdempotencyKey: "o-1", Amount: decimal.NewFromInt(10), Method: "card"})
	again, _ := g.Charge(ctx, port.ChargeRequest{IdempotencyKey: "o-1", Amount: decimal.NewFromInt(10), Method: "card"})
	if !ok.Approved || ok.TransactionID == "" || ok.TransactionID != again.TransactionID {
		t.Fatalf("charge = %+v / %+v", ok, again)
	}

	if res, _ := g.Charge(ctx, port.ChargeRequest{IdempotencyKey: "o-2", Amount: decimal.NewFromInt(10), Method: "CRYPTO"}); res.Approved {
		t.Error("declined method approved")
	}
	if res, _ := g.Charge(ctx, port.ChargeRequest{IdempotencyKey: "o-3", Amount: decimal.NewFromInt(1001), Method: "card"}); res.Approved {
		t.Error("amount above limit approved")
	}
}

func TestHTTPGateway_Charge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body chargeBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.URL.Path != "/charges" || body.IdempotencyKey != "o-1" {
			t.Errorf("path = %s body = %+v", r.URL.Path, body)
		}
		w.Write([]byte(`{"transactionId":"tx-9","approved":true}`))
	}))
	defer srv.Close()

	client := httpclient.NewClient(noop.NewTracerProvider().Tracer("test"), httpclient.StaticResolver{"gateway": srv.URL})
	g := NewHTTPGateway(client, "gateway", time.Second)
	res, err := g.Charge(context.Background(), port.ChargeRequest{IdempotencyKey: "o-1", OrderID: "o-1", Amount: decimal.NewFromInt(5)})
	if err != nil || !res.Approved || res.TransactionID != "tx-9" {
		t.Fatalf("res = %+v err = %v", res, err)
	}
}

func TestHTTPGateway_RefundError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := httpclient.NewClient(noop.NewTracerProvider().Tracer("test"), httpclient.StaticResolver{"gateway": srv.URL})
	if _, err := NewHTTPGateway(client, "gateway", time.Second).Refund(context.Background(), port.RefundRequest{IdempotencyKey: "e-1"}); err == nil {
		t.Fatal("expected error")
	}
}
