package carrier

import (
	"context"
	"strings"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/shipping/domain/port"
	"github.com/google/uuid"
)

var trackingNamespace = uuid.MustParse("b3a1e0f4-7c2d-4d8e-9f61-2a5c7e0d4b19")

// FakeCarrier 拒绝配置的目的国，运单号由订单号派生。
type FakeCarrier struct {
	name            string
	rejectCountries map[string]struct{}
}

func NewFakeCarrier(name string, rejectCountries []string) *FakeCarrier {
	if name == "" {
		name = "fake"
	}
	m := make(map[string]struct{}, len(rejectCountries))
	for _, c := range rejectCountries {
		m[strings.ToUpper(c)] = struct{}{}
	}
	return &FakeCarrier{name: name, rejectCountries: m}
}

func (c *FakeCarrier) Book(ctx context.Context, req port.BookingRequest) (port.Booking, error) {
	if err := ctx.Err(); err != nil {
		return port.Booking{}, err
	}
	if _, ok := c.rejectCountries[strings.ToUpper(req.Address.Country)]; ok {
		return port.Booking{}, &port.RejectionError{Reason: "destination " + req.Address.Country + " not served"}
	}
	id := strings.ReplaceAll(uuid.NewSHA1(trackingNamespace, []byte(req.OrderID)).String(), "-", "")
	return port.Booking{Carrier: c.name, TrackingNumber: "TRK" + strings.ToUpper(id[:12])}, nil
}

func (c *FakeCarrier) Cancel(ctx context.Context, trackingNumber string) error {
	return ctx.Err()
}
