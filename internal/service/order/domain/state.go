// internal/service/order/domain/state.go
package domain

// Status 定义了订单的生命周期状态
type Status string

const (
	StatusPending    Status = "pending"    // 已创建，等待支付
	StatusConfirmed  Status = "confirmed"  // 支付成功
	StatusProcessing Status = "processing" // 物流已接单
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded" // 取消后已全额退款
)

// forwardPath 是正向履约路径，顺序即状态先后。
var forwardPath = []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered}

// Valid 判断是否为已知状态。
func (s Status) Valid() bool {
	return s.rank() >= 0 || s == StatusCancelled || s == StatusRefunded
}

// Cancellable 只有尚未发货的订单可以取消。
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusProcessing
}

// rank 返回在正向路径上的位置，不在路径上返回 -1。
func (s Status) rank() int {
	for i, st := range forwardPath {
		if st == s {
			return i
		}
	}
	return -1
}

// next 返回正向路径上的下一个状态。
func (s Status) next() (Status, bool) {
	r := s.rank()
	if r < 0 || r == len(forwardPath)-1 {
		return "", false
	}
	return forwardPath[r+1], true
}

// CanTransition 描述完整的状态机：
// 正向单步推进；pending/confirmed/processing 可取消；cancelled 可转为 refunded。
func CanTransition(from, to Status) bool {
	switch to {
	case StatusCancelled:
		return from.Cancellable()
	case StatusRefunded:
		return from == StatusCancelled
	}
	n, ok := from.next()
	return ok && n == to
}

// PaymentStatus 是订单视角的支付状态。
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentCompleted         PaymentStatus = "completed"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)
