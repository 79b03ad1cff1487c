package shared

import "github.com/shopspring/decimal"

// LineInput carries the raw figures of one document line. Discount is an
// absolute amount, TaxRate a percentage.
type LineInput struct {
	Qty       decimal.Decimal
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
	TaxRate   decimal.Decimal
}

// LineTotals is the computed result for one line.
type LineTotals struct {
	Gross decimal.Decimal
	Tax   decimal.Decimal
	Total decimal.Decimal
}

// DocumentTotals aggregates line totals with a document level discount.
type DocumentTotals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Net      decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// CalculateLine computes gross, tax and total for a single line.
// gross = qty * unitPrice - discount, tax = gross * rate / 100.
func CalculateLine(in LineInput) LineTotals {
	gross := in.Qty.Mul(in.UnitPrice).Sub(in.Discount)
	tax := gross.Mul(in.TaxRate).DivRound(hundred, 2)
	return LineTotals{
		Gross: gross,
		Tax:   tax,
		Total: gross.Add(tax),
	}
}

// CalculateDocument folds line totals into document totals.
// net = subtotal + tax - document discount.
func CalculateDocument(lines []LineInput, docDiscount decimal.Decimal) DocumentTotals {
	totals := DocumentTotals{Discount: docDiscount}
	for _, line := range lines {
		lt := CalculateLine(line)
		totals.Subtotal = totals.Subtotal.Add(lt.Gross)
		totals.Tax = totals.Tax.Add(lt.Tax)
	}
	totals.Net = totals.Subtotal.Add(totals.Tax).Sub(docDiscount)
	return totals
}
