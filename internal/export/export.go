// Package export renders normalized subscriptions as CSV, JSON or
// spreadsheet rows.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"subtrack/internal/analytics"
	"subtrack/internal/core"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "csv" or "json" in any case; empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}

// FileName builds a dated download name such as subscriptions-2025-01-31.csv.
func (f Format) FileName(now time.Time) string {
	return fmt.Sprintf("subscriptions-%s.%s", now.Format("2006-01-02"), f)
}

// Header lists the tabular export columns.
var Header = []string{
	"ID", "Name", "Category", "Status", "Billing Cycle", "Price", "Currency",
	"Shared By", "Monthly Cost", "Display Currency", "Next Billing Date", "Free Trial",
}

// Record is one exported subscription.
type Record struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Category        string `json:"category"`
	Status          string `json:"status"`
	BillingCycle    string `json:"billingCycle"`
	Price           string `json:"price"`
	Currency        string `json:"currency"`
	SharedBy        int    `json:"sharedBy"`
	MonthlyCost     string `json:"monthlyCost"`
	DisplayCurrency string `json:"displayCurrency"`
	NextBillingDate string `json:"nextBillingDate,omitempty"`
	FreeTrial       bool   `json:"freeTrial"`
}

// Fields returns the record in Header order.
func (r Record) Fields() []string {
	return []string{
		r.ID, r.Name, r.Category, r.Status, r.BillingCycle, r.Price, r.Currency,
		strconv.Itoa(r.SharedBy), r.MonthlyCost, r.DisplayCurrency, r.NextBillingDate,
		strconv.FormatBool(r.FreeTrial),
	}
}

// SheetFields is Fields with the free-text columns guarded against being
// evaluated as formulas by spreadsheet software.
func (r Record) SheetFields() []string {
	f := r.Fields()
	f[1] = safeCell(r.Name)
	f[2] = safeCell(r.Category)
	return f
}

// safeCell prefixes a quote to text a spreadsheet would treat as a formula.
func safeCell(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}

// Records flattens subscriptions, resolving category names.
func Records(subs []core.NormalizedSubscription, categories []core.Category) []Record {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	out := make([]Record, 0, len(subs))
	for _, s := range subs {
		cat, ok := names[s.CategoryID]
		if !ok || s.CategoryID == "" {
			cat = core.UncategorizedName
		}
		r := Record{
			ID:              s.ID,
			Name:            s.Name,
			Category:        cat,
			Status:          string(s.Status),
			BillingCycle:    string(s.BillingCycle),
			Price:           money(s.Price),
			Currency:        s.Currency,
			SharedBy:        s.Shares(),
			MonthlyCost:     money(s.ConvertedMonthlyCost),
			DisplayCurrency: s.TargetCurrency,
			FreeTrial:       s.HasFreeTrial,
		}
		if !s.NextBillingDate.IsZero() {
			r.NextBillingDate = s.NextBillingDate.Format("2006-01-02")
		}
		out = append(out, r)
	}
	return out
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Document is the JSON export envelope.
type Document struct {
	ExportedAt    time.Time `json:"exportedAt"`
	Currency      string    `json:"currency"`
	Count         int       `json:"count"`
	TotalMonthly  string    `json:"totalMonthly"`
	Subscriptions []Record  `json:"subscriptions"`
}

// WriteCSV writes a header row followed by one row per subscription.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.SheetFields()); err != nil {
			return fmt.Errorf("write row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes a Document. The monthly total is the dashboard total,
// so it only counts active, paid subscriptions.
func WriteJSON(w io.Writer, subs []core.NormalizedSubscription, records []Record, currency string, now time.Time) error {
	doc := Document{
		ExportedAt:    now.UTC(),
		Currency:      currency,
		Count:         len(records),
		TotalMonthly:  money(analytics.TotalMonthlySpending(subs)),
		Subscriptions: records,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// Write renders subs in format f.
func Write(w io.Writer, f Format, subs []core.NormalizedSubscription, categories []core.Category, currency string, now time.Time) error {
	records := Records(subs, categories)
	switch f {
	case FormatJSON:
		return WriteJSON(w, subs, records, currency, now)
	case FormatCSV:
		return WriteCSV(w, records)
	}
	return fmt.Errorf("unsupported export format %q", f)
}
