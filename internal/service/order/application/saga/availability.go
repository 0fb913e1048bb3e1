package saga

import (
	"context"
	"fmt"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/logger"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain/port"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// AvailabilityHandler 并发查询商品目录和库存，两个调用共享同一个超时。
type AvailabilityHandler struct {
	NextHandler
}

func (h *AvailabilityHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Availability")
	defer span.End()

	if orderCtx.CheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, orderCtx.CheckTimeout)
		defer cancel()
	}

	lines := orderCtx.Input.Lines
	ids := make([]string, 0, len(lines))
	queries := make([]port.StockQuery, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
		queries = append(queries, port.StockQuery{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	var (
		products map[string]port.Product
		stock    []port.StockAvailability
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = orderCtx.Catalog.FetchProducts(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		stock, err = orderCtx.Inventory.CheckBulk(gctx, queries)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "availability check failed")
		logger.Ctx(ctx).Warn().Err(err).Msg("availability check failed")
		return err
	}

	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok || !p.IsActive {
			span.SetStatus(codes.Error, "product unavailable")
			return fmt.Errorf("%w: %s", domain.ErrProductUnavailable, l.ProductID)
		}
	}

	byProduct := make(map[string]port.StockAvailability, len(stock))
	for _, s := range stock {
		byProduct[s.ProductID] = s
	}
	for _, l := range lines {
		s, ok := byProduct[l.ProductID]
		if !ok || !s.InStock || s.Available < l.Quantity {
			span.SetStatus(codes.Error, "insufficient stock")
			return fmt.Errorf("%w: %s requested %d, available %d", domain.ErrInsufficientStock, l.ProductID, l.Quantity, s.Available)
		}
	}

	orderCtx.products = products
	return h.executeNext(orderCtx)
}
