package infrastructure

import (
	"context"
	"errors"
	"testing"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/database/dbtest"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/outbox"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain"
	"github.com/shopspring/decimal"
)

func newRepo(t *testing.T) *GormOrderRepository {
	t.Helper()
	return NewGormOrderRepository(dbtest.Open(t, &OrderModel{}, &outbox.Record{}))
}

func sampleOrder(t *testing.T) *domain.Order {
	t.Helper()
	items := []domain.Item{domain.NewItem("p-1", "Mug", 2, decimal.RequireFromString("19.99"))}
	o, err := domain.NewOrder("u-1", "u@example.com", items,
		domain.DefaultPricingRules().Compute(items, decimal.Zero),
		domain.Address{FullName: "Ada", City: "Ankara", Country: "TR"}, "card")
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func encode(t *testing.T, ev contract.Event) mq.Message {
	t.Helper()
	m, err := mq.Encode(context.Background(), ev)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func countOutbox(t *testing.T, r *GormOrderRepository) int64 {
	t.Helper()
	var n int64
	r.db.Model(&outbox.Record{}).Count(&n)
	return n
}

func TestGormOrderRepository_CreateWritesOutboxAtomically(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	o := sampleOrder(t)

	err := repo.Create(ctx, o,
		encode(t, contract.InventoryReserve{Meta: contract.NewMeta(), OrderID: o.ID}),
		encode(t, contract.PaymentProcess{Meta: contract.NewMeta(), OrderID: o.ID}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if n := countOutbox(t, repo); n != 2 {
		t.Fatalf("outbox rows = %d, want 2", n)
	}

	got, err := repo.FindByID(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.OrderNumber != o.OrderNumber || len(got.Items) != 1 || got.Items[0].Quantity != 2 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.Totals.Total.Equal(o.Totals.Total) {
		t.Errorf("total = %s, want %s", got.Totals.Total, o.Totals.Total)
	}
	if got.ShippingAddress.City != "Ankara" || len(got.History) != 1 {
		t.Errorf("address/history lost: %+v", got)
	}
}

func TestGormOrderRepository_OptimisticLock(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	o := sampleOrder(t)
	if err := repo.Create(ctx, o); err != nil {
		t.Fatal(err)
	}

	a, _ := repo.FindByID(ctx, o.ID)
	b, _ := repo.FindByID(ctx, o.ID)

	_ = a.Confirm("tx-1")
	if err := repo.Update(ctx, a, encode(t, contract.OrderConfirmed{Meta: contract.NewMeta(), OrderID: o.ID})); err != nil {
		t.Fatal(err)
	}
	if a.Version != 2 {
		t.Errorf("version = %d, want 2", a.Version)
	}

	_ = b.Cancel("late", domain.ActorCustomer)
	err := repo.Update(ctx, b, encode(t, contract.OrderCancelled{Meta: contract.NewMeta(), OrderID: o.ID}))
	if !errors.Is(err, domain.ErrConcurrentUpdate) {
		t.Fatalf("stale update: got %v, want ErrConcurrentUpdate", err)
	}
	// 冲突的更新不能留下 outbox 行
	if n := countOutbox(t, repo); n != 1 {
		t.Errorf("outbox rows = %d, want 1", n)
	}

	got, _ := repo.FindByID(ctx, o.ID)
	if got.Status != domain.StatusConfirmed || got.PaymentStatus != domain.PaymentCompleted || len(got.History) != 2 {
		t.Errorf("persisted state: %s %s %d", got.Status, got.PaymentStatus, len(got.History))
	}
}

func TestGormOrderRepository_NotFound(t *testing.T) {
	repo := newRepo(t)
	if _, err := repo.FindByID(context.Background(), "missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("got %v", err)
	}
}
