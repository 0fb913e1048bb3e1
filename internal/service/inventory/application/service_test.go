package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/redis"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/inventory/domain"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/inventory/infrastructure"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace/noop"
)

type recordingPublisher struct {
	msgs []mq.Message
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, msgs ...mq.Message) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func newTestService(t *testing.T, stock map[string]int) (*InventoryService, *recordingPublisher) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	ledger := infrastructure.NewRedisLedger(redis.Wrap(rdb), time.Hour)
	for pid, n := range stock {
		if _, err := ledger.SetStock(context.Background(), pid, n); err != nil {
			t.Fatal(err)
		}
	}
	pub := &recordingPublisher{}
	return NewInventoryService(ledger, pub, noop.NewTracerProvider().Tracer("test")), pub
}

func reserve(orderID string, items ...contract.LineItem) *contract.InventoryReserve {
	return &contract.InventoryReserve{Meta: contract.NewMeta(), OrderID: orderID, Items: items}
}

func TestHandleReserve_InsufficientPublishesFailure(t *testing.T) {
	svc, pub := newTestService(t, map[string]int{"a": 1})
	ctx := context.Background()

	if err := svc.HandleReserve(ctx, reserve("o-1", contract.LineItem{ProductID: "a", Quantity: 2})); err != nil {
		t.Fatal(err)
	}
	if len(pub.msgs) != 1 || pub.msgs[0].Topic != contract.QueueInventoryReservationFailed || pub.msgs[0].Key != "o-1" {
		t.Fatalf("msgs = %+v", pub.msgs)
	}
}

func TestHandleReserve_RepublishesAfterPublishFailure(t *testing.T) {
	svc, pub := newTestService(t, map[string]int{"a": 1})
	ctx := context.Background()
	ev := reserve("o-1", contract.LineItem{ProductID: "a", Quantity: 2})

	pub.err = errors.New("broker down")
	if err := svc.HandleReserve(ctx, ev); err == nil {
		t.Fatal("publish failure must surface for retry")
	}
	pub.err = nil
	if err := svc.HandleReserve(ctx, ev); err != nil {
		t.Fatal(err)
	}
	if len(pub.msgs) != 1 {
		t.Fatalf("msgs = %d", len(pub.msgs))
	}
}

func TestHandleReserve_SuccessAndDuplicatePublishNothing(t *testing.T) {
	svc, pub := newTestService(t, map[string]int{"a": 5})
	ctx := context.Background()
	ev := reserve("o-1", contract.LineItem{ProductID: "a", Quantity: 2})

	for i := 0; i < 2; i++ {
		if err := svc.HandleReserve(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}
	if len(pub.msgs) != 0 {
		t.Fatalf("msgs = %+v", pub.msgs)
	}
	r, _ := svc.GetReservation(ctx, "o-1")
	if r.State != domain.StateReserved {
		t.Errorf("state = %s", r.State)
	}
}

func TestHandleReserve_InvalidItems(t *testing.T) {
	svc, pub := newTestService(t, nil)
	if err := svc.HandleReserve(context.Background(), reserve("o-1")); err != nil {
		t.Fatal(err)
	}
	if len(pub.msgs) != 1 {
		t.Fatal("empty reservation should be rejected")
	}
}

func TestReleaseAndCommitFlow(t *testing.T) {
	svc, _ := newTestService(t, map[string]int{"a": 5})
	ctx := context.Background()
	_ = svc.HandleReserve(ctx, reserve("o-1", contract.LineItem{ProductID: "a", Quantity: 2}))
	_ = svc.HandleReserve(ctx, reserve("o-2", contract.LineItem{ProductID: "a", Quantity: 1}))

	release := &contract.ProductStockIncrease{Meta: contract.NewMeta(), OrderID: "o-1"}
	for i := 0; i < 2; i++ {
		if err := svc.HandleRelease(ctx, release); err != nil {
			t.Fatal(err)
		}
	}
	if err := svc.HandleShippingStatus(ctx, &contract.ShippingStatusUpdated{OrderID: "o-2", NewStatus: "processing"}); err != nil {
		t.Fatal(err)
	}
	if r, _ := svc.GetReservation(ctx, "o-2"); r.State != domain.StateReserved {
		t.Fatalf("processing must not commit, state = %s", r.State)
	}
	if err := svc.HandleShippingStatus(ctx, &contract.ShippingStatusUpdated{OrderID: "o-2", NewStatus: "shipped"}); err != nil {
		t.Fatal(err)
	}

	res, _ := svc.CheckBulk(ctx, []domain.Line{{ProductID: "a", Quantity: 1}})
	if res[0].Available != 4 {
		t.Errorf("available = %d", res[0].Available)
	}
	if r, _ := svc.GetReservation(ctx, "o-2"); r.State != domain.StateCommitted {
		t.Errorf("state = %s", r.State)
	}
}

func TestSetStock_RejectsNegative(t *testing.T) {
	svc, _ := newTestService(t, nil)
	if _, err := svc.SetStock(context.Background(), "a", -1); !errors.Is(err, domain.ErrInvalidLine) {
		t.Fatalf("err = %v", err)
	}
}
