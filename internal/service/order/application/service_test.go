package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain/port"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace/noop"
)

// memRepo 是内存版仓储，记录所有随变更写入的消息。
type memRepo struct {
	mu        sync.Mutex
	orders    map[string]*domain.Order
	msgs      []mq.Message
	conflicts int
}

func newMemRepo() *memRepo {
	return &memRepo{orders: map[string]*domain.Order{}}
}

func clone(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.Item(nil), o.Items...)
	c.History = append([]domain.HistoryEntry(nil), o.History...)
	return &c
}

func (r *memRepo) Create(ctx context.Context, o *domain.Order, msgs ...mq.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = clone(o)
	r.msgs = append(r.msgs, msgs...)
	return nil
}

func (r *memRepo) Update(ctx context.Context, o *domain.Order, msgs ...mq.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts > 0 {
		r.conflicts--
		r.orders[o.ID].Version++
		return domain.ErrConcurrentUpdate
	}
	if r.orders[o.ID].Version != o.Version {
		return domain.ErrConcurrentUpdate
	}
	o.Version++
	r.orders[o.ID] = clone(o)
	r.msgs = append(r.msgs, msgs...)
	return nil
}

func (r *memRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return clone(o), nil
}

func (r *memRepo) count(topic string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if m.Topic == topic {
			n++
		}
	}
	return n
}

type fakeCatalog struct {
	products map[string]port.Product
	err      error
}

func (c *fakeCatalog) FetchProducts(ctx context.Context, ids []string) (map[string]port.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := map[string]port.Product{}
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeInventory struct {
	available map[string]int
}

func (i *fakeInventory) CheckBulk(ctx context.Context, items []port.StockQuery) ([]port.StockAvailability, error) {
	out := make([]port.StockAvailability, 0, len(items))
	for _, it := range items {
		a := i.available[it.ProductID]
		out = append(out, port.StockAvailability{ProductID: it.ProductID, Requested: it.Quantity, Available: a, InStock: a >= it.Quantity})
	}
	return out, nil
}

func newTestService(repo *memRepo) (*OrderApplicationService, *fakeCatalog) {
	catalog := &fakeCatalog{products: map[string]port.Product{
		"p-100": {ID: "p-100", Name: "Kettle", Price: decimal.NewFromInt(100), IsActive: true},
		"p-50":  {ID: "p-50", Name: "Mug", Price: decimal.NewFromInt(50), IsActive: true},
		"p-old": {ID: "p-old", Name: "Retired", Price: decimal.NewFromInt(10), IsActive: false},
	}}
	svc := NewOrderApplicationService(Dependencies{
		Repo:      repo,
		Tracer:    noop.NewTracerProvider().Tracer("test"),
		Catalog:   catalog,
		Inventory: &fakeInventory{available: map[string]int{"p-100": 10, "p-50": 2, "p-old": 10}},
		Rules:     domain.DefaultPricingRules(),
	})
	return svc, catalog
}

func createRequest(lines ...LineItemDTO) *CreateOrderRequest {
	return &CreateOrderRequest{
		UserID:          "u-1",
		UserEmail:       "u1@example.com",
		Items:           lines,
		ShippingAddress: contract.Address{FullName: "A B", Line1: "Main 1", City: "Istanbul", PostalCode: "34000", Country: "TR"},
		PaymentMethod:   "credit_card",
	}
}

func placeOrder(t *testing.T, svc *OrderApplicationService) *domain.Order {
	t.Helper()
	o, err := svc.CreateOrder(context.Background(), createRequest(LineItemDTO{ProductID: "p-100", Quantity: 2}))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return o
}

func TestCreateOrder_PersistsAndEnqueues(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)

	o := placeOrder(t, svc)
	if o.Status != domain.StatusPending || o.PaymentStatus != domain.PaymentPending {
		t.Fatalf("status = %s/%s", o.Status, o.PaymentStatus)
	}
	// 200 达到包邮门槛
	if !o.Totals.ShippingCost.IsZero() || !o.Totals.Total.Equal(decimal.NewFromInt(236)) {
		t.Errorf("totals = %+v", o.Totals)
	}
	if repo.count(contract.QueueInventoryReserve) != 1 || repo.count(contract.QueuePaymentProcess) != 1 {
		t.Errorf("messages = %+v", repo.msgs)
	}
}

func TestCreateOrder_MergesDuplicateLinesAndChargesShipping(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)

	o, err := svc.CreateOrder(context.Background(), createRequest(
		LineItemDTO{ProductID: "p-50", Quantity: 1},
		LineItemDTO{ProductID: "p-50", Quantity: 1},
	))
	if err != nil {
		t.Fatal(err)
	}
	if len(o.Items) != 1 || o.Items[0].Quantity != 2 {
		t.Fatalf("items = %+v", o.Items)
	}
	if !o.Totals.ShippingCost.Equal(decimal.RequireFromString("29.90")) {
		t.Errorf("shipping = %s", o.Totals.ShippingCost)
	}
}

func TestCreateOrder_Rejections(t *testing.T) {
	cases := []struct {
		name  string
		lines []LineItemDTO
		want  error
	}{
		{"empty cart", nil, domain.ErrEmptyCart},
		{"zero quantity", []LineItemDTO{{ProductID: "p-100", Quantity: 0}}, domain.ErrInvalidQuantity},
		{"unknown product", []LineItemDTO{{ProductID: "p-404", Quantity: 1}}, domain.ErrProductUnavailable},
		{"inactive product", []LineItemDTO{{ProductID: "p-old", Quantity: 1}}, domain.ErrProductUnavailable},
		{"insufficient stock", []LineItemDTO{{ProductID: "p-50", Quantity: 3}}, domain.ErrInsufficientStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMemRepo()
			svc, _ := newTestService(repo)
			_, err := svc.CreateOrder(context.Background(), createRequest(tc.lines...))
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if len(repo.orders) != 0 || len(repo.msgs) != 0 {
				t.Error("nothing should be persisted")
			}
		})
	}
}

func TestCreateOrder_DependencyUnavailable(t *testing.T) {
	repo := newMemRepo()
	svc, catalog := newTestService(repo)
	catalog.err = domain.ErrDependencyUnavailable

	_, err := svc.CreateOrder(context.Background(), createRequest(LineItemDTO{ProductID: "p-100", Quantity: 1}))
	if !errors.Is(err, domain.ErrDependencyUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if len(repo.msgs) != 0 {
		t.Error("nothing should be published")
	}
}

func TestPaymentFailed_CancelsWithoutRefund(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	o := placeOrder(t, svc)
	ctx := context.Background()

	ev := &contract.PaymentFailed{Meta: contract.NewMeta(), OrderID: o.ID, Reason: "card declined"}
	if err := svc.HandlePaymentFailed(ctx, ev); err != nil {
		t.Fatal(err)
	}
	if err := svc.HandlePaymentFailed(ctx, ev); err != nil {
		t.Fatal(err)
	}

	got, _ := repo.FindByID(ctx, o.ID)
	if got.Status != domain.StatusCancelled || got.PaymentStatus != domain.PaymentFailed {
		t.Fatalf("status = %s/%s", got.Status, got.PaymentStatus)
	}
	if repo.count(contract.QueuePaymentRefund) != 0 || repo.count(contract.QueueOrderConfirmed) != 0 {
		t.Error("no refund and no confirmation expected")
	}
	if repo.count(contract.QueueProductStockIncrease) != 1 || repo.count(contract.QueueOrderCancelled) != 1 {
		t.Errorf("compensations: stock=%d cancelled=%d", repo.count(contract.QueueProductStockIncrease), repo.count(contract.QueueOrderCancelled))
	}
}

func TestCancelPaidOrder_RefundsOnce(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	o := placeOrder(t, svc)
	ctx := context.Background()

	if err := svc.HandlePaymentCompleted(ctx, &contract.PaymentCompleted{Meta: contract.NewMeta(), OrderID: o.ID, TransactionID: "tx-1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CancelOrder(ctx, o.ID, "changed my mind", domain.ActorCustomer); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CancelOrder(ctx, o.ID, "again", domain.ActorCustomer); !errors.Is(err, domain.ErrNotCancellable) {
		t.Fatalf("second cancel err = %v", err)
	}

	if n := repo.count(contract.QueuePaymentRefund); n != 1 {
		t.Errorf("refunds = %d", n)
	}
	if n := repo.count(contract.QueueProductStockIncrease); n != 1 {
		t.Errorf("stock releases = %d", n)
	}
	if n := repo.count(contract.QueueNotificationOrderCancelled); n != 1 {
		t.Errorf("notifications = %d", n)
	}
}

func TestPaymentCompleted_DuplicateConfirmsOnce(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	o := placeOrder(t, svc)
	ctx := context.Background()

	ev := &contract.PaymentCompleted{Meta: contract.NewMeta(), OrderID: o.ID, TransactionID: "tx-1"}
	for i := 0; i < 2; i++ {
		if err := svc.HandlePaymentCompleted(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := repo.FindByID(ctx, o.ID)
	if got.Status != domain.StatusConfirmed || got.PaymentStatus != domain.PaymentCompleted {
		t.Fatalf("status = %s/%s", got.Status, got.PaymentStatus)
	}
	if n := repo.count(contract.QueueOrderConfirmed); n != 1 {
		t.Errorf("order.confirmed = %d", n)
	}
}

func TestPaymentCompleted_AfterCancelRequestsRefund(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	o := placeOrder(t, svc)
	ctx := context.Background()

	if _, err := svc.CancelOrder(ctx, o.ID, "", domain.ActorCustomer); err != nil {
		t.Fatal(err)
	}
	if repo.count(contract.QueuePaymentRefund) != 0 {
		t.Fatal("unpaid cancel must not refund")
	}

	ev := &contract.PaymentCompleted{Meta: contract.NewMeta(), OrderID: o.ID, TransactionID: "tx-late"}
	_ = svc.HandlePaymentCompleted(ctx, ev)
	_ = svc.HandlePaymentCompleted(ctx, ev)

	got, _ := repo.FindByID(ctx, o.ID)
	if got.Status != domain.StatusCancelled || got.PaymentStatus != domain.PaymentCompleted {
		t.Fatalf("status = %s/%s", got.Status, got.PaymentStatus)
	}
	if n := repo.count(contract.QueuePaymentRefund); n != 1 {
		t.Errorf("refunds = %d", n)
	}
	if repo.count(contract.QueueOrderConfirmed) != 0 {
		t.Error("cancelled order must not be confirmed")
	}
}

func TestRefundEvents_MoveCancelledOrderToRefunded(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	o := placeOrder(t, svc)
	ctx := context.Background()

	_ = svc.HandlePaymentCompleted(ctx, &contract.PaymentCompleted{Meta: contract.NewMeta(), OrderID: o.ID, TransactionID: "tx"})
	if _, err := svc.CancelOrder(ctx, o.ID, "", domain.ActorAdmin); err != nil {
		t.Fatal(err)
	}

	partial := &contract.PaymentRefunded{Meta: contract.NewMeta(), OrderID: o.ID, RefundAmount: decimal.NewFromInt(100), TotalRefunded: decimal.NewFromInt(100)}
	if err := svc.HandlePaymentRefunded(ctx, partial); err != nil {
		t.Fatal(err)
	}
	got, _ := repo.FindByID(ctx, o.ID)
	if got.Status != domain.StatusCancelled || got.PaymentStatus != domain.PaymentPartiallyRefunded {
		t.Fatalf("after partial: %s/%s", got.Status, got.PaymentStatus)
	}

	full := &contract.PaymentRefunded{Meta: contract.NewMeta(), OrderID: o.ID, RefundAmount: decimal.NewFromInt(136), TotalRefunded: decimal.NewFromInt(236)}
	if err := svc.HandlePaymentRefunded(ctx, full); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.FindByID(ctx, o.ID)
	if got.Status != domain.StatusRefunded || got.PaymentStatus != domain.PaymentRefunded {
		t.Fatalf("after full: %s/%s", got.Status, got.PaymentStatus)
	}
}

func TestShippingStatus_AdvancesAlongPath(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	o := placeOrder(t, svc)
	ctx := context.Background()
	_ = svc.HandlePaymentCompleted(ctx, &contract.PaymentCompleted{Meta: contract.NewMeta(), OrderID: o.ID, TransactionID: "tx"})

	// shipped 先于 processing 到达
	for _, s := range []string{"shipped", "processing", "delivered", "cancelled"} {
		ev := &contract.ShippingStatusUpdated{Meta: contract.NewMeta(), OrderID: o.ID, NewStatus: s, Carrier: "fake", TrackingNumber: "TRK1"}
		if err := svc.HandleShippingStatusUpdated(ctx, ev); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}

	got, _ := repo.FindByID(ctx, o.ID)
	if got.Status != domain.StatusDelivered {
		t.Fatalf("status = %s", got.Status)
	}
	want := []domain.Status{domain.StatusPending, domain.StatusConfirmed, domain.StatusProcessing, domain.StatusShipped, domain.StatusDelivered}
	if len(got.History) != len(want) {
		t.Fatalf("history = %+v", got.History)
	}
	for i, h := range got.History {
		if h.Status != want[i] {
			t.Errorf("history[%d] = %s, want %s", i, h.Status, want[i])
		}
	}
}

func TestShippingStatusBeforePayment_Retried(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	o := placeOrder(t, svc)
	ctx := context.Background()

	shipped := &contract.ShippingStatusUpdated{Meta: contract.NewMeta(), OrderID: o.ID, NewStatus: "shipped", Carrier: "fake", TrackingNumber: "TRK1"}
	err := svc.HandleShippingStatusUpdated(ctx, shipped)
	if !errors.Is(err, domain.ErrPaymentPending) {
		t.Fatalf("err = %v", err)
	}
	if errors.Is(err, mq.ErrPermanent) {
		t.Fatal("early shipping status must stay retryable")
	}
	got, _ := repo.FindByID(ctx, o.ID)
	if got.Status != domain.StatusPending || got.PaymentStatus != domain.PaymentPending {
		t.Fatalf("status = %s/%s", got.Status, got.PaymentStatus)
	}

	if err := svc.HandlePaymentCompleted(ctx, &contract.PaymentCompleted{Meta: contract.NewMeta(), OrderID: o.ID, TransactionID: "tx"}); err != nil {
		t.Fatal(err)
	}
	if n := repo.count(contract.QueueOrderConfirmed); n != 1 {
		t.Fatalf("order.confirmed = %d", n)
	}

	// 重投递
	if err := svc.HandleShippingStatusUpdated(ctx, shipped); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.FindByID(ctx, o.ID)
	if got.Status != domain.StatusShipped || got.PaymentStatus != domain.PaymentCompleted {
		t.Fatalf("status = %s/%s", got.Status, got.PaymentStatus)
	}
	for _, h := range got.History {
		if h.Status == domain.StatusConfirmed && h.Actor != domain.ActorPayment {
			t.Errorf("confirmed by %s", h.Actor)
		}
	}
}

func TestShippingFailed_CancelsOrder(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	o := placeOrder(t, svc)
	ctx := context.Background()
	_ = svc.HandlePaymentCompleted(ctx, &contract.PaymentCompleted{Meta: contract.NewMeta(), OrderID: o.ID, TransactionID: "tx"})

	if err := svc.HandleShippingStatusUpdated(ctx, &contract.ShippingStatusUpdated{Meta: contract.NewMeta(), OrderID: o.ID, NewStatus: "failed"}); err != nil {
		t.Fatal(err)
	}
	got, _ := repo.FindByID(ctx, o.ID)
	if got.Status != domain.StatusCancelled {
		t.Fatalf("status = %s", got.Status)
	}
	if repo.count(contract.QueuePaymentRefund) != 1 {
		t.Error("paid order cancelled by shipping must be refunded")
	}
}

func TestReservationFailed_CancelsPendingOrder(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	o := placeOrder(t, svc)

	ev := &contract.InventoryReservationFailed{Meta: contract.NewMeta(), OrderID: o.ID, Reason: "insufficient stock"}
	if err := svc.HandleReservationFailed(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	got, _ := repo.FindByID(context.Background(), o.ID)
	if got.Status != domain.StatusCancelled || got.History[len(got.History)-1].Actor != domain.ActorInventory {
		t.Fatalf("got %s by %s", got.Status, got.History[len(got.History)-1].Actor)
	}
}

func TestMutate_RetriesOnVersionConflict(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	o := placeOrder(t, svc)
	repo.conflicts = 2

	if _, err := svc.UpdateStatus(context.Background(), o.ID, domain.StatusConfirmed, domain.ActorAdmin, "manual"); err != nil {
		t.Fatal(err)
	}
	if n := repo.count(contract.QueueOrderStatusUpdated); n != 1 {
		t.Errorf("status updates = %d", n)
	}
}

func TestUpdateStatus(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	o := placeOrder(t, svc)
	ctx := context.Background()

	if _, err := svc.UpdateStatus(ctx, o.ID, domain.StatusShipped, domain.ActorAdmin, ""); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("skip ahead err = %v", err)
	}
	got, err := svc.UpdateStatus(ctx, o.ID, domain.StatusCancelled, domain.ActorAdmin, "fraud")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusCancelled || got.CancelReason != "fraud" {
		t.Fatalf("got %s %q", got.Status, got.CancelReason)
	}
	if _, err := svc.GetOrder(ctx, "missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("missing order err = %v", err)
	}
}

func TestReconciliation_UnknownOrderIsPermanent(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	err := svc.HandlePaymentCompleted(context.Background(), &contract.PaymentCompleted{Meta: contract.NewMeta(), OrderID: "nope"})
	if !errors.Is(err, mq.ErrPermanent) {
		t.Fatalf("err = %v", err)
	}
}
