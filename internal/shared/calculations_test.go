package shared

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculateLine(t *testing.T) {
	lt := CalculateLine(LineInput{
		Qty:       d("10"),
		UnitPrice: d("25.50"),
		Discount:  d("5"),
		TaxRate:   d("10"),
	})
	require.True(t, lt.Gross.Equal(d("250")), "gross %s", lt.Gross)
	require.True(t, lt.Tax.Equal(d("25")), "tax %s", lt.Tax)
	require.True(t, lt.Total.Equal(d("275")), "total %s", lt.Total)
}

func TestCalculateLineNoDiscountNoTax(t *testing.T) {
	lt := CalculateLine(LineInput{Qty: d("3"), UnitPrice: d("7.33")})
	require.True(t, lt.Gross.Equal(d("21.99")))
	require.True(t, lt.Tax.IsZero())
	require.True(t, lt.Total.Equal(d("21.99")))
}

func TestCalculateDocument(t *testing.T) {
	lines := []LineInput{
		{Qty: d("2"), UnitPrice: d("100"), TaxRate: d("5")},
		{Qty: d("1"), UnitPrice: d("50"), Discount: d("10"), TaxRate: d("5")},
	}
	totals := CalculateDocument(lines, d("15"))
	require.True(t, totals.Subtotal.Equal(d("240")), "subtotal %s", totals.Subtotal)
	require.True(t, totals.Tax.Equal(d("12")), "tax %s", totals.Tax)
	require.True(t, totals.Net.Equal(d("237")), "net %s", totals.Net)
}

func TestCalculateDocumentEmpty(t *testing.T) {
	totals := CalculateDocument(nil, decimal.Zero)
	require.True(t, totals.Net.IsZero())
}
