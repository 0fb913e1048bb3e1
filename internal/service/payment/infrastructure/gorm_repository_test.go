package infrastructure

import (
	"context"
	"errors"
	"testing"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/database/dbtest"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/outbox"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/payment/domain"
	"github.com/shopspring/decimal"
)

func TestGormPaymentRepository(t *testing.T) {
	db := dbtest.Open(t, &PaymentModel{}, &outbox.Record{})
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	p := domain.NewPayment("o-1", "u-1", decimal.RequireFromString("99.90"), "card")
	if err := repo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}
	dup := domain.NewPayment("o-1", "u-1", decimal.RequireFromString("99.90"), "card")
	if err := repo.Create(ctx, dup); !errors.Is(err, domain.ErrDuplicatePayment) {
		t.Fatalf("duplicate err = %v", err)
	}

	stale, _ := repo.FindByOrderID(ctx, "o-1")
	_ = p.Complete("tx-1")
	msg, err := mq.Encode(ctx, contract.PaymentCompleted{Meta: contract.NewMeta(), OrderID: "o-1", TransactionID: "tx-1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, p, msg); err != nil {
		t.Fatal(err)
	}

	_ = stale.Fail("late")
	if err := repo.Save(ctx, stale, msg); !errors.Is(err, domain.ErrConcurrentUpdate) {
		t.Fatalf("stale save err = %v", err)
	}

	got, err := repo.FindByOrderID(ctx, "o-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusCompleted || got.TransactionID != "tx-1" || !got.Amount.Equal(decimal.RequireFromString("99.9")) {
		t.Fatalf("got %+v", got)
	}
	var n int64
	db.Model(&outbox.Record{}).Count(&n)
	if n != 1 {
		t.Errorf("outbox rows = %d", n)
	}
	if _, err := repo.FindByOrderID(ctx, "missing"); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Errorf("missing err = %v", err)
	}
}
