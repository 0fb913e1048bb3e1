package infrastructure

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/redis"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/inventory/domain"
	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

const (
	stockKey       = "{inventory}:stock"
	reservedKey    = "{inventory}:reserved"
	reservationFmt = "{inventory}:reservation:%s"
	stateField     = "__state"
	itemPrefix     = "item:"
)

// RedisLedger 是 domain.Ledger 的 Redis 实现，变更都通过 Lua 脚本原子完成。
type RedisLedger struct {
	client       *redis.Client
	tombstoneTTL time.Duration
}

func NewRedisLedger(client *redis.Client, tombstoneTTL time.Duration) *RedisLedger {
	if tombstoneTTL <= 0 {
		tombstoneTTL = 7 * 24 * time.Hour
	}
	return &RedisLedger{client: client, tombstoneTTL: tombstoneTTL}
}

func reservationKey(orderID string) string {
	return fmt.Sprintf(reservationFmt, orderID)
}

func (l *RedisLedger) keys(orderID string) []string {
	return []string{stockKey, reservedKey, reservationKey(orderID)}
}

func (l *RedisLedger) CheckBulk(ctx context.Context, lines []domain.Line) ([]domain.Availability, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(lines))
	for _, ln := range lines {
		ids = append(ids, ln.ProductID)
	}
	vals, err := l.client.GetClient().HMGet(ctx, stockKey, ids...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "read stock levels")
	}

	out := make([]domain.Availability, 0, len(lines))
	for i, ln := range lines {
		a := domain.Availability{ProductID: ln.ProductID, Requested: ln.Quantity}
		switch {
		case vals[i] == nil:
			a.Reason = "unknown product"
		default:
			a.Available = toInt(vals[i])
			a.InStock = a.Available >= ln.Quantity
			if !a.InStock {
				a.Reason = "insufficient stock"
			}
		}
		out = append(out, a)
	}
	return out, nil
}

func (l *RedisLedger) Reserve(ctx context.Context, orderID string, lines []domain.Line) (domain.ReserveResult, error) {
	args := make([]interface{}, 0, len(lines)*2)
	for _, ln := range lines {
		args = append(args, ln.ProductID, ln.Quantity)
	}
	res, err := l.run(ctx, reserveScript, orderID, args...)
	if err != nil {
		return domain.ReserveResult{}, err
	}

	parts := strings.Split(res, "|")
	switch parts[0] {
	case "reserved":
		return domain.ReserveResult{Status: domain.ReserveOK}, nil
	case "rejected":
		return domain.ReserveResult{Status: domain.ReserveAlreadyRejected}, nil
	case "duplicate":
		return domain.ReserveResult{Status: domain.ReserveDuplicate, PriorState: domain.ReservationState(parts[1])}, nil
	case "insufficient":
		avail, _ := strconv.Atoi(parts[2])
		return domain.ReserveResult{Status: domain.ReserveInsufficient, ProductID: parts[1], Available: avail}, nil
	}
	return domain.ReserveResult{}, errors.Errorf("unexpected reserve result %q", res)
}

func (l *RedisLedger) Release(ctx context.Context, orderID string) (bool, error) {
	res, err := l.run(ctx, releaseScript, orderID, int(l.tombstoneTTL.Seconds()))
	if err != nil {
		return false, err
	}
	return res == "released", nil
}

func (l *RedisLedger) Commit(ctx context.Context, orderID string) (bool, error) {
	res, err := l.run(ctx, commitScript, orderID)
	if err != nil {
		return false, err
	}
	return res == "committed", nil
}

func (l *RedisLedger) SetStock(ctx context.Context, productID string, available int) (domain.StockLevel, error) {
	rdb := l.client.GetClient()
	if err := rdb.HSet(ctx, stockKey, productID, available).Err(); err != nil {
		return domain.StockLevel{}, errors.Wrapf(err, "set stock for %s", productID)
	}
	reserved, err := rdb.HGet(ctx, reservedKey, productID).Int()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return domain.StockLevel{}, errors.Wrapf(err, "read reserved for %s", productID)
	}
	return domain.StockLevel{ProductID: productID, Available: available, Reserved: reserved}, nil
}

func (l *RedisLedger) GetReservation(ctx context.Context, orderID string) (*domain.Reservation, error) {
	fields, err := l.client.GetClient().HGetAll(ctx, reservationKey(orderID)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "read reservation %s", orderID)
	}
	state, ok := fields[stateField]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	r := &domain.Reservation{OrderID: orderID, State: domain.ReservationState(state)}
	for f, v := range fields {
		if pid, ok := strings.CutPrefix(f, itemPrefix); ok {
			r.Lines = append(r.Lines, domain.Line{ProductID: pid, Quantity: toInt(v)})
		}
	}
	sort.Slice(r.Lines, func(i, j int) bool { return r.Lines[i].ProductID < r.Lines[j].ProductID })
	return r, nil
}

func (l *RedisLedger) run(ctx context.Context, script *goredis.Script, orderID string, args ...interface{}) (string, error) {
	res, err := l.client.RunScript(ctx, script, l.keys(orderID), args...)
	if err != nil {
		return "", errors.Wrapf(err, "inventory script for order %s", orderID)
	}
	s, ok := res.(string)
	if !ok {
		return "", errors.Errorf("unexpected script result type %T", res)
	}
	return s, nil
}

func toInt(v interface{}) int {
	switch x := v.(type) {
	case string:
		n, _ := strconv.Atoi(x)
		return n
	case int64:
		return int(x)
	}
	return 0
}
