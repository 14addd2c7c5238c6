package sheets

import (
	"context"

	"subtrack/internal/export"
)

// Ports for outbound adapters.
type (
	// SubscriptionExporter pushes export records to a spreadsheet.
	SubscriptionExporter interface {
		// ExportSubscriptions appends one row per record and returns the
		// range that was written.
		ExportSubscriptions(ctx context.Context, records []export.Record) (updatedRange string, err error)
	}
)
