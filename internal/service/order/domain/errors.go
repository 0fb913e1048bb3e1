package domain

import "errors"

var (
	ErrEmptyCart             = errors.New("cart is empty")
	ErrInvalidQuantity       = errors.New("quantity must be positive")
	ErrProductUnavailable    = errors.New("product unavailable")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrOrderNotFound         = errors.New("order not found")
	ErrNotCancellable        = errors.New("order cannot be cancelled in its current status")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrConcurrentUpdate      = errors.New("order was modified concurrently")
	// ErrPaymentPending 物流状态先于支付结果到达，稍后重试。
	ErrPaymentPending = errors.New("payment not settled yet")
)
