package money

import "github.com/shopspring/decimal"

func init() {
	// amounts serialize as JSON numbers, not quoted strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Round applies the cafe's money rule: two decimal places, half away
// from zero. Every price, line total, subtotal, tax and grand total goes
// through this exactly once; results are never re-rounded in aggregate.
func Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// Sum adds already-rounded amounts.
func Sum(vs ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range vs {
		total = total.Add(v)
	}
	return total
}

// Mul multiplies a unit price by a quantity and rounds the result.
func Mul(unit decimal.Decimal, qty int) decimal.Decimal {
	return Round(unit.Mul(decimal.NewFromInt(int64(qty))))
}
