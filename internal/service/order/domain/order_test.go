package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	items := []Item{NewItem("p-1", "Mug", 2, dec("60"))}
	o, err := NewOrder("u-1", "u1@example.com", items, DefaultPricingRules().Compute(items, decimal.Zero), Address{City: "Istanbul"}, "card")
	if err != nil {
		t.Fatal(err)
	}
	return o
}

// isValidPath 检查历史是否是状态机上的合法路径
func isValidPath(h []HistoryEntry) bool {
	if len(h) == 0 || h[0].Status != StatusPending {
		return false
	}
	for i := 1; i < len(h); i++ {
		if !CanTransition(h[i-1].Status, h[i].Status) {
			return false
		}
	}
	return true
}

func TestNewOrder(t *testing.T) {
	o := newTestOrder(t)
	if o.Status != StatusPending || o.PaymentStatus != PaymentPending || o.Version != 1 {
		t.Fatalf("unexpected initial state: %+v", o)
	}
	if !strings.HasPrefix(o.OrderNumber, "ORD-") || len(o.OrderNumber) != len("ORD-20250101-ABCDEF") {
		t.Errorf("order number %q has wrong format", o.OrderNumber)
	}
	if len(o.History) != 1 {
		t.Errorf("history = %+v", o.History)
	}
}

func TestValidateLines(t *testing.T) {
	if err := ValidateLines(nil); !errors.Is(err, ErrEmptyCart) {
		t.Errorf("empty cart: %v", err)
	}
	if err := ValidateLines([]LineRequest{{ProductID: "p", Quantity: 0}}); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("zero quantity: %v", err)
	}
	if err := ValidateLines([]LineRequest{{ProductID: "p", Quantity: 1}}); err != nil {
		t.Errorf("valid lines: %v", err)
	}
}

func TestCanTransition_ForwardOnly(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusProcessing, true},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusPending, StatusShipped, false},
		{StatusShipped, StatusProcessing, false},
		{StatusDelivered, StatusPending, false},
		{StatusPending, StatusCancelled, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusCancelled, false},
		{StatusCancelled, StatusRefunded, true},
		{StatusDelivered, StatusRefunded, false},
		{StatusRefunded, StatusCancelled, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestUpdateStatus_RejectsSkipsAndBackwards(t *testing.T) {
	o := newTestOrder(t)
	if err := o.UpdateStatus(StatusShipped, ActorAdmin, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("skip: %v", err)
	}
	if err := o.UpdateStatus(StatusConfirmed, ActorAdmin, ""); err != nil {
		t.Fatal(err)
	}
	if err := o.UpdateStatus(StatusPending, ActorAdmin, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("backwards: %v", err)
	}
	if err := o.UpdateStatus(StatusCancelled, ActorAdmin, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel through UpdateStatus: %v", err)
	}
	if !isValidPath(o.History) {
		t.Errorf("history is not a valid path: %+v", o.History)
	}
}

func TestCancel_Gating(t *testing.T) {
	for _, st := range []Status{StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded} {
		o := newTestOrder(t)
		o.Status = st
		if err := o.Cancel("changed mind", ActorCustomer); !errors.Is(err, ErrNotCancellable) {
			t.Errorf("cancel from %s: got %v, want ErrNotCancellable", st, err)
		}
	}

	o := newTestOrder(t)
	_ = o.Confirm("tx-1")
	if err := o.Cancel("changed mind", ActorCustomer); err != nil {
		t.Fatal(err)
	}
	if o.Status != StatusCancelled || o.CancelReason != "changed mind" {
		t.Errorf("after cancel: %s %q", o.Status, o.CancelReason)
	}
	if !isValidPath(o.History) {
		t.Errorf("history is not a valid path: %+v", o.History)
	}
}

func TestAdvanceTo_RecordsIntermediateSteps(t *testing.T) {
	o := newTestOrder(t)
	_ = o.Confirm("tx-1")

	changed, err := o.AdvanceTo(StatusDelivered, ActorShipping, "")
	if err != nil || !changed {
		t.Fatalf("AdvanceTo = %v, %v", changed, err)
	}
	if o.Status != StatusDelivered || len(o.History) != 5 {
		t.Fatalf("status %s, history %d entries", o.Status, len(o.History))
	}
	if !isValidPath(o.History) {
		t.Errorf("history is not a valid path: %+v", o.History)
	}

	// 过期的状态更新被忽略
	changed, err = o.AdvanceTo(StatusShipped, ActorShipping, "")
	if err != nil || changed {
		t.Errorf("stale update changed order: %v, %v", changed, err)
	}
}

func TestAdvanceTo_IgnoredAfterCancel(t *testing.T) {
	o := newTestOrder(t)
	_ = o.Cancel("x", ActorCustomer)
	changed, err := o.AdvanceTo(StatusProcessing, ActorShipping, "")
	if err != nil || changed {
		t.Fatalf("cancelled order advanced: %v, %v", changed, err)
	}
}

func TestApplyRefund(t *testing.T) {
	o := newTestOrder(t)
	_ = o.Confirm("tx-1")
	_ = o.Cancel("x", ActorCustomer)

	half := o.Totals.Total.Div(decimal.NewFromInt(2))
	changed, _ := o.ApplyRefund(half)
	if !changed || o.PaymentStatus != PaymentPartiallyRefunded || o.Status != StatusCancelled {
		t.Fatalf("partial refund: %v %s %s", changed, o.PaymentStatus, o.Status)
	}

	// 重复事件不改变订单
	if changed, _ := o.ApplyRefund(half); changed {
		t.Fatal("duplicate refund event changed order")
	}

	changed, err := o.ApplyRefund(o.Totals.Total)
	if err != nil || !changed {
		t.Fatalf("full refund: %v %v", changed, err)
	}
	if o.PaymentStatus != PaymentRefunded || o.Status != StatusRefunded {
		t.Errorf("after full refund: %s %s", o.PaymentStatus, o.Status)
	}
	if !isValidPath(o.History) {
		t.Errorf("history is not a valid path: %+v", o.History)
	}
}
