package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Scope selects which side of the book an aging report covers.
type Scope string

const (
	ScopeReceivables Scope = "RECEIVABLES"
	ScopePayables    Scope = "PAYABLES"
)

// Valid reports whether the scope is known.
func (s Scope) Valid() bool {
	return s == ScopeReceivables || s == ScopePayables
}

// OpenDocument is an unpaid sale or purchase with a due date.
type OpenDocument struct {
	DocumentID int64
	Number     string
	EntityID   int64
	EntityName string
	DueDate    time.Time
	Remaining  decimal.Decimal
}

// AgingRow holds bucketed totals for one customer or supplier.
// A document's full remaining amount lands in exactly one column.
type AgingRow struct {
	EntityID   int64
	EntityName string
	NotDue     decimal.Decimal
	Days0to30  decimal.Decimal
	Days31to60 decimal.Decimal
	Days61to90 decimal.Decimal
	Over90     decimal.Decimal
	Total      decimal.Decimal
}

// AgingReport is the full aging breakdown as of a date.
type AgingReport struct {
	AsOf       time.Time
	Scope      Scope
	Rows       []AgingRow
	GrandTotal AgingRow
}

// BuildAging buckets each document by days overdue relative to asOf.
// Documents not yet due are reported in the NotDue column, never in an
// overdue bucket. Rows are ordered by entity name, then id.
func BuildAging(asOf time.Time, scope Scope, docs []OpenDocument) AgingReport {
	report := AgingReport{AsOf: asOf, Scope: scope, GrandTotal: zeroRow(0, "TOTAL")}
	byEntity := make(map[int64]*AgingRow)
	for _, doc := range docs {
		if !doc.Remaining.IsPositive() {
			continue
		}
		row, ok := byEntity[doc.EntityID]
		if !ok {
			created := zeroRow(doc.EntityID, doc.EntityName)
			row = &created
			byEntity[doc.EntityID] = row
		}
		overdue := daysOverdue(asOf, doc.DueDate)
		switch {
		case overdue <= 0:
			row.NotDue = row.NotDue.Add(doc.Remaining)
			report.GrandTotal.NotDue = report.GrandTotal.NotDue.Add(doc.Remaining)
		case overdue <= 30:
			row.Days0to30 = row.Days0to30.Add(doc.Remaining)
			report.GrandTotal.Days0to30 = report.GrandTotal.Days0to30.Add(doc.Remaining)
		case overdue <= 60:
			row.Days31to60 = row.Days31to60.Add(doc.Remaining)
			report.GrandTotal.Days31to60 = report.GrandTotal.Days31to60.Add(doc.Remaining)
		case overdue <= 90:
			row.Days61to90 = row.Days61to90.Add(doc.Remaining)
			report.GrandTotal.Days61to90 = report.GrandTotal.Days61to90.Add(doc.Remaining)
		default:
			row.Over90 = row.Over90.Add(doc.Remaining)
			report.GrandTotal.Over90 = report.GrandTotal.Over90.Add(doc.Remaining)
		}
		row.Total = row.Total.Add(doc.Remaining)
		report.GrandTotal.Total = report.GrandTotal.Total.Add(doc.Remaining)
	}
	for _, row := range byEntity {
		report.Rows = append(report.Rows, *row)
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		if report.Rows[i].EntityName != report.Rows[j].EntityName {
			return report.Rows[i].EntityName < report.Rows[j].EntityName
		}
		return report.Rows[i].EntityID < report.Rows[j].EntityID
	})
	return report
}

// daysOverdue counts whole calendar days past the due date.
func daysOverdue(asOf, due time.Time) int {
	asOfDay := truncateDay(asOf)
	dueDay := truncateDay(due)
	return int(asOfDay.Sub(dueDay).Hours() / 24)
}

func truncateDay(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

func zeroRow(id int64, name string) AgingRow {
	return AgingRow{
		EntityID:   id,
		EntityName: name,
		NotDue:     decimal.Zero,
		Days0to30:  decimal.Zero,
		Days31to60: decimal.Zero,
		Days61to90: decimal.Zero,
		Over90:     decimal.Zero,
		Total:      decimal.Zero,
	}
}
