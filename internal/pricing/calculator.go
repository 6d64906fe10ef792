// Package pricing computes line totals with cascading discounts and tax.
package pricing

import (
	"github.com/shopspring/decimal"
)

// MaxDiscountLevels bounds the discount cascade per line.
const MaxDiscountLevels = 4

var oneHundred = decimal.NewFromInt(100)

// LineItem is a quantity/price pair with up to four sequential discounts.
type LineItem struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Discounts []decimal.Decimal
}

// LineResult carries per-line amounts after the discount cascade.
type LineResult struct {
	Gross           decimal.Decimal
	DiscountAmounts []decimal.Decimal
	Net             decimal.Decimal
}

// Totals aggregates a document's amounts.
type Totals struct {
	Subtotal            decimal.Decimal
	DiscountTotals      []decimal.Decimal
	TotalAfterDiscounts decimal.Decimal
	TaxAmount           decimal.Decimal
	GrandTotal          decimal.Decimal
}

// CalculateLine applies each discount percentage to the already-discounted
// remainder, in order. Levels beyond MaxDiscountLevels are ignored.
func CalculateLine(item LineItem) LineResult {
	gross := item.Quantity.Mul(item.UnitPrice)
	result := LineResult{
		Gross:           gross,
		DiscountAmounts: make([]decimal.Decimal, MaxDiscountLevels),
		Net:             gross,
	}
	for level := 0; level < MaxDiscountLevels; level++ {
		result.DiscountAmounts[level] = decimal.Zero
	}
	discounts := item.Discounts
	if len(discounts) > MaxDiscountLevels {
		discounts = discounts[:MaxDiscountLevels]
	}
	for level, pct := range discounts {
		if pct.Sign() <= 0 {
			continue
		}
		amount := result.Net.Mul(pct).Div(oneHundred)
		result.DiscountAmounts[level] = amount
		result.Net = result.Net.Sub(amount)
	}
	return result
}

// Calculate aggregates all lines and applies tax on the discounted total.
func Calculate(items []LineItem, taxPercent decimal.Decimal) Totals {
	totals := Totals{
		Subtotal:       decimal.Zero,
		DiscountTotals: make([]decimal.Decimal, MaxDiscountLevels),
	}
	for level := 0; level < MaxDiscountLevels; level++ {
		totals.DiscountTotals[level] = decimal.Zero
	}
	var discounted decimal.Decimal
	for _, item := range items {
		line := CalculateLine(item)
		totals.Subtotal = totals.Subtotal.Add(line.Gross)
		for level, amount := range line.DiscountAmounts {
			totals.DiscountTotals[level] = totals.DiscountTotals[level].Add(amount)
		}
		discounted = discounted.Add(line.Net)
	}
	totals.TotalAfterDiscounts = discounted
	if taxPercent.Sign() > 0 {
		totals.TaxAmount = discounted.Mul(taxPercent).Div(oneHundred)
	} else {
		totals.TaxAmount = decimal.Zero
	}
	totals.GrandTotal = totals.TotalAfterDiscounts.Add(totals.TaxAmount)
	return totals
}

// ParseTaxPercent converts a raw tax rate to a decimal percentage.
// Empty or unparsable input means no tax, never an error.
func ParseTaxPercent(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	pct, err := decimal.NewFromString(raw)
	if err != nil || pct.Sign() < 0 {
		return decimal.Zero
	}
	return pct
}
