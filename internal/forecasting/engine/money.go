package engine

import "github.com/shopspring/decimal"

// weight scales a currency amount by a probability or ratio. Currency stays
// decimal; only the factor is floating point.
func weight(amount decimal.Decimal, factor float64) decimal.Decimal {
	if factor == 0 || amount.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(decimal.NewFromFloat(factor))
}

// divideByCount returns total/count, or zero when count is zero.
func divideByCount(total decimal.Decimal, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(count)))
}

// divideByDays returns total/days, or zero for a non-positive day count.
func divideByDays(total decimal.Decimal, days float64) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromFloat(days))
}
