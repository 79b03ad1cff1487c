package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func asOf() time.Time {
	return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
}

func doc(number string, daysOverdue int, total, paid string) AgingDocument {
	return AgingDocument{
		Number:  number,
		DueDate: asOf().AddDate(0, 0, -daysOverdue),
		Total:   dec(total),
		Paid:    dec(paid),
	}
}

func TestBuildAgingBuckets(t *testing.T) {
	docs := []AgingDocument{
		doc("INV-00001", -5, "100", "0"),   // not yet due
		doc("INV-00002", 0, "200", "50"),   // due today
		doc("INV-00003", 15, "300", "0"),   // 1-30
		doc("INV-00004", 45, "400", "100"), // 31-60
		doc("INV-00005", 95, "500", "0"),   // 90+
	}
	report := BuildAging(docs, asOf())

	require.Len(t, report.Rows, 5)
	require.True(t, report.Current.Equal(dec("250")), "current %s", report.Current)
	require.True(t, report.Days30.Equal(dec("300")))
	require.True(t, report.Days60.Equal(dec("300")))
	require.True(t, report.Days90Plus.Equal(dec("500")))
	require.True(t, report.Total.Equal(dec("1350")))

	require.Equal(t, BucketCurrent, report.Rows[0].Bucket)
	require.Equal(t, BucketCurrent, report.Rows[1].Bucket)
	require.Equal(t, BucketDays30, report.Rows[2].Bucket)
	require.Equal(t, BucketDays60, report.Rows[3].Bucket)
	require.Equal(t, BucketDays90Plus, report.Rows[4].Bucket)
	require.Equal(t, 45, report.Rows[3].DaysOverdue)
}

func TestBuildAgingClampsDaysOverdue(t *testing.T) {
	docs := []AgingDocument{
		doc("INV-00001", -40, "100", "0"),
		doc("INV-00002", 0, "200", "0"),
		doc("INV-00003", 7, "300", "0"),
	}
	report := BuildAging(docs, asOf())

	require.Len(t, report.Rows, 3)
	require.Equal(t, 0, report.Rows[0].DaysOverdue, "future due dates never report negative days")
	require.Equal(t, 0, report.Rows[1].DaysOverdue)
	require.Equal(t, 7, report.Rows[2].DaysOverdue)
	require.True(t, report.Current.Equal(dec("300")))
}

func TestBuildAgingBucketSumsEqualTotal(t *testing.T) {
	docs := []AgingDocument{
		doc("B-1", 3, "120.50", "20.50"),
		doc("B-2", 33, "75", "0"),
		doc("B-3", 61, "999.99", "0.99"),
		doc("B-4", 400, "10", "0"),
	}
	report := BuildAging(docs, asOf())

	sum := report.Current.Add(report.Days30).Add(report.Days60).Add(report.Days90Plus)
	require.True(t, sum.Equal(report.Total), "buckets %s vs total %s", sum, report.Total)
}

func TestBuildAgingSkipsSettledDocuments(t *testing.T) {
	docs := []AgingDocument{
		doc("INV-00001", 10, "100", "100"),
		doc("INV-00002", 10, "100", "40"),
	}
	report := BuildAging(docs, asOf())

	require.Len(t, report.Rows, 1)
	require.True(t, report.Total.Equal(dec("60")))
}

func TestBuildAgingEmpty(t *testing.T) {
	report := BuildAging(nil, asOf())
	require.Empty(t, report.Rows)
	require.True(t, report.Total.IsZero())
}
