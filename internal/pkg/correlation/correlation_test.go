package correlation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEnsure_KeepsExistingID(t *testing.T) {
	ctx := WithID(context.Background(), "abc")
	ctx, id := Ensure(ctx)
	if id != "abc" || FromContext(ctx) != "abc" {
		t.Fatalf("expected existing id to be kept, got %q", id)
	}
}

func TestEnsure_GeneratesID(t *testing.T) {
	ctx, id := Ensure(context.Background())
	if id == "" {
		t.Fatal("expected generated id")
	}
	if FromContext(ctx) != id {
		t.Fatalf("context id mismatch: %q vs %q", FromContext(ctx), id)
	}
}

func TestMiddleware_PropagatesHeader(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(Header, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "req-1" {
		t.Errorf("handler saw %q, want req-1", seen)
	}
	if got := rec.Header().Get(Header); got != "req-1" {
		t.Errorf("response header = %q, want req-1", got)
	}
}
