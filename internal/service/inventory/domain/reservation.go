// internal/service/inventory/domain/reservation.go
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ReservationState 预留的生命周期
type ReservationState string

const (
	StateReserved  ReservationState = "reserved"
	StateReleased  ReservationState = "released"
	StateCommitted ReservationState = "committed"
	// StateRejected 库存不足时留下的记录，重复投递时据此重发失败事件
	StateRejected ReservationState = "rejected"
)

var (
	ErrInvalidLine         = errors.New("invalid reservation line")
	ErrReservationNotFound = errors.New("reservation not found")
)

type Line struct {
	ProductID string
	Quantity  int
}

// Reservation 是按 orderId 记录的库存占用。
type Reservation struct {
	OrderID string
	State   ReservationState
	Lines   []Line
}

// StockLevel 是单个商品的库存快照。
type StockLevel struct {
	ProductID string
	Available int
	Reserved  int
}

// Availability 是只读检查的结果。
type Availability struct {
	ProductID string
	Requested int
	Available int
	InStock   bool
	Reason    string
}

// ReserveStatus 是一次预留尝试的结果
type ReserveStatus int

const (
	ReserveOK ReserveStatus = iota
	ReserveInsufficient
	// ReserveAlreadyRejected 之前已因库存不足被拒绝
	ReserveAlreadyRejected
	// ReserveDuplicate 该订单已有 reserved/released/committed 记录
	ReserveDuplicate
)

type ReserveResult struct {
	Status ReserveStatus
	// PriorState 仅在 ReserveDuplicate 时有值
	PriorState ReservationState
	// ProductID/Available 仅在 ReserveInsufficient 时有值
	ProductID string
	Available int
}

// Reason 是发送给订单服务的失败原因。
func (r ReserveResult) Reason() string {
	if r.ProductID == "" {
		return "insufficient stock"
	}
	return fmt.Sprintf("insufficient stock for product %s (available %d)", r.ProductID, r.Available)
}

// NormalizeLines 校验并合并同一商品的多行，保持首次出现的顺序。
func NormalizeLines(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrInvalidLine)
	}
	index := make(map[string]int, len(lines))
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l.ProductID) == "" || l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %q quantity %d", ErrInvalidLine, l.ProductID, l.Quantity)
		}
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out, nil
}
