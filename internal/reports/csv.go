package reports

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WriteCSV renders the report for download. Amounts are formatted with
// thousands separators for spreadsheet readability.
func WriteCSV(w io.Writer, report AgingReport) error {
	printer := message.NewPrinter(language.English)
	cw := csv.NewWriter(w)

	header := []string{"number", "party", "due_date", "days_overdue", "bucket", "balance"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range report.Rows {
		balance, _ := row.Balance.Float64()
		record := []string{
			row.Number,
			row.PartyName,
			row.DueDate.Format("2006-01-02"),
			printer.Sprintf("%d", row.DaysOverdue),
			row.Bucket,
			printer.Sprintf("%.2f", balance),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	total, _ := report.Total.Float64()
	if err := cw.Write([]string{"total", "", "", "", "", printer.Sprintf("%.2f", total)}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
