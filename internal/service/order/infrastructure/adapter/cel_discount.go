package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain/port"
	"github.com/google/cel-go/cel"
	"github.com/shopspring/decimal"
)

// CELDiscountPolicy 用 CEL 表达式计算折扣，实现 port.DiscountPolicy。
// 可用变量: subtotal(double), itemCount(int), userId(string), paymentMethod(string)。
// 例如: subtotal >= 1000.0 ? subtotal * 0.05 : 0.0
type CELDiscountPolicy struct {
	prg cel.Program
}

// NewCELDiscountPolicy 表达式为空时折扣恒为 0。
func NewCELDiscountPolicy(expression string) (*CELDiscountPolicy, error) {
	if strings.TrimSpace(expression) == "" {
		return &CELDiscountPolicy{}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("subtotal", cel.DoubleType),
		cel.Variable("itemCount", cel.IntType),
		cel.Variable("userId", cel.StringType),
		cel.Variable("paymentMethod", cel.StringType),
	)
	if err != nil {
		return nil, err
	}
	ast, iss := env.Compile(expression)
	if iss.Err() != nil {
		return nil, fmt.Errorf("compile discount expression: %w", iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.DoubleType) {
		return nil, fmt.Errorf("discount expression must evaluate to double, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build discount program: %w", err)
	}
	return &CELDiscountPolicy{prg: prg}, nil
}

func (p *CELDiscountPolicy) Discount(ctx context.Context, in port.DiscountInput) (decimal.Decimal, error) {
	if p.prg == nil {
		return decimal.Zero, nil
	}
	subtotal, _ := in.Subtotal.Float64()
	out, _, err := p.prg.ContextEval(ctx, map[string]interface{}{
		"subtotal":      subtotal,
		"itemCount":     int64(in.ItemCount),
		"userId":        in.UserID,
		"paymentMethod": in.PaymentMethod,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("evaluate discount: %w", err)
	}
	v, ok := out.Value().(float64)
	if !ok {
		return decimal.Zero, fmt.Errorf("discount expression returned %T", out.Value())
	}
	return domain.Round(decimal.NewFromFloat(v)), nil
}
