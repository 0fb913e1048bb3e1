// internal/service/order/domain/order.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 状态历史中的操作者
const (
	ActorCustomer  = "customer"
	ActorAdmin     = "admin"
	ActorPayment   = "payment"
	ActorInventory = "inventory"
	ActorShipping  = "shipping"
	ActorSystem    = "system"
)

// Item 是订单行，价格是下单时的快照。
type Item struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// NewItem 按快照价格计算行金额。
func NewItem(productID, name string, quantity int, unitPrice decimal.Decimal) Item {
	return Item{
		ProductID: productID,
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		LineTotal: Round(unitPrice.Mul(decimal.NewFromInt(int64(quantity)))),
	}
}

type Address struct {
	FullName   string
	Phone      string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// HistoryEntry 是一次状态变更记录，只追加。
type HistoryEntry struct {
	Status Status
	Actor  string
	At     time.Time
	Note   string
}

// Order 是订单聚合的根实体
type Order struct {
	ID              string
	OrderNumber     string
	UserID          string
	UserEmail       string
	Items           []Item
	Totals          Totals
	ShippingAddress Address
	PaymentMethod   string
	Status          Status
	PaymentStatus   PaymentStatus
	RefundedAmount  decimal.Decimal
	History         []HistoryEntry
	CancelReason    string
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LineRequest 是客户端提交的一行商品。
type LineRequest struct {
	ProductID string
	Quantity  int
}

// ValidateLines 校验购物车非空且数量为正。
func ValidateLines(lines []LineRequest) error {
	if len(lines) == 0 {
		return ErrEmptyCart
	}
	for _, l := range lines {
		if strings.TrimSpace(l.ProductID) == "" {
			return fmt.Errorf("%w: product id is required", ErrProductUnavailable)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("%w: product %s has quantity %d", ErrInvalidQuantity, l.ProductID, l.Quantity)
		}
	}
	return nil
}

// NewOrder 工厂函数，创建 pending 状态的订单。
func NewOrder(userID, userEmail string, items []Item, totals Totals, addr Address, paymentMethod string) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	now := time.Now().UTC()
	id := uuid.NewString()
	return &Order{
		ID:              id,
		OrderNumber:     newOrderNumber(now, id),
		UserID:          userID,
		UserEmail:       userEmail,
		Items:           items,
		Totals:          totals,
		ShippingAddress: addr,
		PaymentMethod:   paymentMethod,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		RefundedAmount:  decimal.Zero,
		History:         []HistoryEntry{{Status: StatusPending, Actor: ActorCustomer, At: now, Note: "order placed"}},
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// newOrderNumber 格式 ORD-YYYYMMDD-XXXXXX
func newOrderNumber(now time.Time, id string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id, "-", ""))[:6]
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

// LineItems 返回 productId/quantity 对，用于库存消息。
func (o *Order) LineItems() []LineRequest {
	out := make([]LineRequest, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, LineRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

func (o *Order) transition(to Status, actor, note string) error {
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	now := time.Now().UTC()
	o.Status = to
	o.History = append(o.History, HistoryEntry{Status: to, Actor: actor, At: now, Note: note})
	o.UpdatedAt = now
	return nil
}

// UpdateStatus 单步正向推进，取消和退款不走这里。
func (o *Order) UpdateStatus(to Status, actor, note string) error {
	if to == StatusCancelled || to == StatusRefunded || !to.Valid() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	return o.transition(to, actor, note)
}

// Cancel 取消订单，只允许 pending/confirmed/processing。
func (o *Order) Cancel(reason, actor string) error {
	if !o.Status.Cancellable() {
		return fmt.Errorf("%w: status is %s", ErrNotCancellable, o.Status)
	}
	if err := o.transition(StatusCancelled, actor, reason); err != nil {
		return err
	}
	o.CancelReason = reason
	return nil
}

// Confirm 支付成功后 pending -> confirmed。
func (o *Order) Confirm(transactionID string) error {
	if err := o.transition(StatusConfirmed, ActorPayment, "payment completed: "+transactionID); err != nil {
		return err
	}
	o.PaymentStatus = PaymentCompleted
	return nil
}

// MarkPaymentCompleted 只记录支付结果，不改变订单状态（已取消订单的迟到支付）。
func (o *Order) MarkPaymentCompleted() {
	o.PaymentStatus = PaymentCompleted
	o.UpdatedAt = time.Now().UTC()
}

func (o *Order) MarkPaymentFailed() {
	o.PaymentStatus = PaymentFailed
	o.UpdatedAt = time.Now().UTC()
}

// AdvanceTo 沿正向路径推进到 target，中间状态也会记入历史。
// 目标不在当前状态之后，或订单已取消时返回 false。
func (o *Order) AdvanceTo(target Status, actor, note string) (bool, error) {
	if target.rank() < 0 {
		return false, fmt.Errorf("%w: %s is not a fulfilment status", ErrInvalidTransition, target)
	}
	if o.Status.rank() < 0 || target.rank() <= o.Status.rank() {
		return false, nil
	}
	for o.Status != target {
		next, _ := o.Status.next()
		if err := o.transition(next, actor, note); err != nil {
			return false, err
		}
	}
	return true, nil
}

// ApplyRefund 记录支付服务报告的累计退款额，全额退款时已取消订单转为 refunded。
// 返回值表示订单是否发生变化。
func (o *Order) ApplyRefund(totalRefunded decimal.Decimal) (bool, error) {
	if !totalRefunded.GreaterThan(o.RefundedAmount) {
		return false, nil
	}
	o.RefundedAmount = totalRefunded
	o.UpdatedAt = time.Now().UTC()
	if totalRefunded.LessThan(o.Totals.Total) {
		o.PaymentStatus = PaymentPartiallyRefunded
		return true, nil
	}
	o.PaymentStatus = PaymentRefunded
	if o.Status == StatusCancelled {
		if err := o.transition(StatusRefunded, ActorPayment, "payment fully refunded"); err != nil {
			return true, err
		}
	}
	return true, nil
}
