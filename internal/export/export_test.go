package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/analytics"
	"subtrack/internal/core"
)

func sampleSubs() []core.NormalizedSubscription {
	return []core.NormalizedSubscription{
		{
			Subscription: core.Subscription{
				ID: "a", Name: "Netflix", Price: 15.5, Currency: "USD",
				BillingCycle: core.Monthly, Status: core.StatusActive, CategoryID: "cat-1",
				SharedBy: 2, NextBillingDate: core.NewDate(2025, 7, 1),
			},
			ConvertedMonthlyCost: 647.125,
			TargetCurrency:       "INR",
		},
		{
			Subscription: core.Subscription{
				ID: "b", Name: "Notion, Pro", Price: 96, Currency: "USD",
				BillingCycle: core.Yearly, Status: core.StatusActive, CategoryID: "missing",
				HasFreeTrial: true,
			},
			ConvertedMonthlyCost: 668,
			TargetCurrency:       "INR",
		},
	}
}

var sampleCats = []core.Category{{ID: "cat-1", Name: "Streaming"}}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{" json ", FormatJSON, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestFormatMetadata(t *testing.T) {
	now := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "subscriptions-2025-01-31.csv", FormatCSV.FileName(now))
	assert.Equal(t, "subscriptions-2025-01-31.json", FormatJSON.FileName(now))
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Contains(t, FormatCSV.ContentType(), "text/csv")
}

func TestRecords(t *testing.T) {
	recs := Records(sampleSubs(), sampleCats)
	require.Len(t, recs, 2)

	assert.Equal(t, "Streaming", recs[0].Category)
	assert.Equal(t, "15.50", recs[0].Price)
	assert.Equal(t, "647.13", recs[0].MonthlyCost)
	assert.Equal(t, 2, recs[0].SharedBy)
	assert.Equal(t, "2025-07-01", recs[0].NextBillingDate)

	assert.Equal(t, core.UncategorizedName, recs[1].Category)
	assert.Equal(t, 1, recs[1].SharedBy)
	assert.Empty(t, recs[1].NextBillingDate)
	assert.True(t, recs[1].FreeTrial)
	assert.Len(t, recs[1].Fields(), len(Header))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleSubs(), sampleCats, "INR", time.Now()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "Notion, Pro", rows[2][1])
}

func TestWriteJSON(t *testing.T) {
	now := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleSubs(), sampleCats, "INR", now))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "INR", doc.Currency)
	assert.Equal(t, 2, doc.Count)
	// The trial subscription is excluded from the total.
	assert.Equal(t, "647.13", doc.TotalMonthly)
	assert.True(t, doc.ExportedAt.Equal(now))
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, nil, nil, "USD", time.Now()))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	assert.Error(t, Write(&buf, Format("xml"), nil, nil, "USD", time.Now()))
}

func TestWriteJSONTotalMatchesDashboard(t *testing.T) {
	subs := append(sampleSubs(),
		core.NormalizedSubscription{
			Subscription:         core.Subscription{ID: "c", Name: "Spotify", Status: core.StatusActive},
			ConvertedMonthlyCost: 119.2,
		},
		core.NormalizedSubscription{
			Subscription:         core.Subscription{ID: "d", Name: "Hulu", Status: core.StatusCancelled},
			ConvertedMonthlyCost: 500,
		},
	)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, subs, sampleCats, "INR", time.Now()))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, money(analytics.TotalMonthlySpending(subs)), doc.TotalMonthly)
	assert.Equal(t, "766.33", doc.TotalMonthly)
}

func TestWriteCSVEscapesFormulas(t *testing.T) {
	recs := []Record{
		{ID: "a", Name: `=HYPERLINK("http://x","y")`, Category: "@SUM(A1)", Price: "-1.00"},
		{ID: "b", Name: "+1 Plan", Category: "-Misc"},
		{ID: "c", Name: "Plain", Category: "Streaming"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, recs))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, `'=HYPERLINK("http://x","y")`, rows[1][1])
	assert.Equal(t, "'@SUM(A1)", rows[1][2])
	assert.Equal(t, "-1.00", rows[1][5], "numeric columns stay numeric")
	assert.Equal(t, "'+1 Plan", rows[2][1])
	assert.Equal(t, "'-Misc", rows[2][2])
	assert.Equal(t, "Plain", rows[3][1])
	assert.Equal(t, "Streaming", rows[3][2])
}
