package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func completed(t *testing.T, amount string) *Payment {
	t.Helper()
	p := NewPayment("o-1", "u-1", dec(amount), "card")
	if err := p.Complete("tx-1"); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPayment_TerminalOnlyOnce(t *testing.T) {
	p := NewPayment("o-1", "u-1", dec("10"), "card")
	if err := p.Fail("declined"); err != nil {
		t.Fatal(err)
	}
	if err := p.Complete("tx"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v", err)
	}
	if !p.Status.Terminal() {
		t.Error("failed should be terminal")
	}
}

func TestPayment_RefundCap(t *testing.T) {
	p := completed(t, "100.00")

	over := dec("150")
	if got := p.RefundAmountFor(&over); !got.Equal(dec("100")) {
		t.Fatalf("over-request refunds %s", got)
	}
	part := dec("30")
	if err := p.ApplyRefund(p.RefundAmountFor(&part)); err != nil {
		t.Fatal(err)
	}
	if p.Status != StatusCompleted || !p.Refundable().Equal(dec("70")) {
		t.Fatalf("after partial: %s remaining %s", p.Status, p.Refundable())
	}
	if err := p.ApplyRefund(dec("70.01")); !errors.Is(err, ErrRefundExceedsAmount) {
		t.Fatalf("err = %v", err)
	}
	if err := p.ApplyRefund(p.RefundAmountFor(nil)); err != nil {
		t.Fatal(err)
	}
	if p.Status != StatusRefunded || !p.RefundedAmount.Equal(p.Amount) {
		t.Fatalf("after full: %s %s", p.Status, p.RefundedAmount)
	}
	if !p.RefundAmountFor(nil).IsZero() {
		t.Error("nothing should remain refundable")
	}
	if err := p.ApplyRefund(dec("1")); !errors.Is(err, ErrNotRefundable) {
		t.Fatalf("err = %v", err)
	}
}
