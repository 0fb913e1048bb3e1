package domain

import "github.com/shopspring/decimal"

// PricingRules 税率与运费规则。
type PricingRules struct {
	TaxRate               decimal.Decimal
	FlatShippingFee       decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

// DefaultPricingRules 18% 税，29.90 运费，满 200 包邮。
func DefaultPricingRules() PricingRules {
	return PricingRules{
		TaxRate:               decimal.RequireFromString("0.18"),
		FlatShippingFee:       decimal.RequireFromString("29.90"),
		FreeShippingThreshold: decimal.NewFromInt(200),
	}
}

// Totals 是订单金额快照，创建后不再改变。
type Totals struct {
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	ShippingCost decimal.Decimal
	Discount     decimal.Decimal
	Total        decimal.Decimal
}

// Subtotal 汇总行金额。
func (r PricingRules) Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal)
	}
	return Round(sum)
}

// Compute 计算金额，discount 会被限制在 [0, subtotal]。
func (r PricingRules) Compute(items []Item, discount decimal.Decimal) Totals {
	subtotal := r.Subtotal(items)
	tax := Round(subtotal.Mul(r.TaxRate))

	shipping := Round(r.FlatShippingFee)
	if subtotal.GreaterThanOrEqual(r.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	discount = Round(discount)

	return Totals{
		Subtotal:     subtotal,
		Tax:          tax,
		ShippingCost: shipping,
		Discount:     discount,
		Total:        Round(subtotal.Add(tax).Add(shipping).Sub(discount)),
	}
}

// Round 保留两位小数，四舍五入（远离零）。
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
