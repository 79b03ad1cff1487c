// Package reports builds the receivables and payables aging views.
package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// Aging bucket labels.
const (
	BucketCurrent    = "current"
	BucketDays30     = "1-30"
	BucketDays60     = "31-60"
	BucketDays90Plus = "90+"
)

// AgingDocument is one open invoice or bill feeding the report.
type AgingDocument struct {
	ID        int64           `json:"id"`
	Number    string          `json:"number"`
	PartyID   int64           `json:"partyId"`
	PartyName string          `json:"partyName"`
	DueDate   time.Time       `json:"dueDate"`
	Total     decimal.Decimal `json:"total"`
	Paid      decimal.Decimal `json:"paid"`
}

// AgingRow is a bucketed open document.
type AgingRow struct {
	Number      string          `json:"number"`
	PartyID     int64           `json:"partyId"`
	PartyName   string          `json:"partyName"`
	DueDate     time.Time       `json:"dueDate"`
	Balance     decimal.Decimal `json:"balance"`
	DaysOverdue int             `json:"daysOverdue"`
	Bucket      string          `json:"bucket"`
}

// AgingReport groups open balances by how far past due they are.
// The bucket sums always add up to Total.
type AgingReport struct {
	AsOf       time.Time       `json:"asOf"`
	Current    decimal.Decimal `json:"current"`
	Days30     decimal.Decimal `json:"days30"`
	Days60     decimal.Decimal `json:"days60"`
	Days90Plus decimal.Decimal `json:"days90Plus"`
	Total      decimal.Decimal `json:"total"`
	Rows       []AgingRow      `json:"rows"`
}

// BuildAging buckets every document with an outstanding balance.
// Documents already settled are skipped.
func BuildAging(docs []AgingDocument, asOf time.Time) AgingReport {
	report := AgingReport{
		AsOf:       asOf,
		Current:    decimal.Zero,
		Days30:     decimal.Zero,
		Days60:     decimal.Zero,
		Days90Plus: decimal.Zero,
		Total:      decimal.Zero,
	}
	for _, doc := range docs {
		balance := doc.Total.Sub(doc.Paid)
		if !balance.IsPositive() {
			continue
		}
		days := int(asOf.Sub(doc.DueDate).Hours() / 24)
		overdue := days
		if overdue < 0 {
			// Not yet due: the row reports zero days overdue.
			overdue = 0
		}
		row := AgingRow{
			Number:      doc.Number,
			PartyID:     doc.PartyID,
			PartyName:   doc.PartyName,
			DueDate:     doc.DueDate,
			Balance:     balance,
			DaysOverdue: overdue,
		}
		switch {
		case days <= 0:
			row.Bucket = BucketCurrent
			report.Current = report.Current.Add(balance)
		case days <= 30:
			row.Bucket = BucketDays30
			report.Days30 = report.Days30.Add(balance)
		case days <= 60:
			row.Bucket = BucketDays60
			report.Days60 = report.Days60.Add(balance)
		default:
			row.Bucket = BucketDays90Plus
			report.Days90Plus = report.Days90Plus.Add(balance)
		}
		report.Total = report.Total.Add(balance)
		report.Rows = append(report.Rows, row)
	}
	return report
}
