package port

import (
	"context"
	"errors"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/shipping/domain"
)

// ErrCarrierRejected 承运商拒绝承运，属于业务失败，不需要重试。
var ErrCarrierRejected = errors.New("carrier rejected shipment")

// RejectionError 携带承运商给出的拒绝原因，errors.Is 匹配 ErrCarrierRejected。
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return ErrCarrierRejected.Error() + ": " + e.Reason
}

func (e *RejectionError) Is(target error) bool {
	return target == ErrCarrierRejected
}

type BookingRequest struct {
	OrderID string
	Address domain.Address
	Items   []domain.Line
}

type Booking struct {
	Carrier        string
	TrackingNumber string
}

// Carrier 外部承运商。以 OrderID 作为幂等键。
type Carrier interface {
	Book(ctx context.Context, req BookingRequest) (Booking, error)
	Cancel(ctx context.Context, trackingNumber string) error
}
