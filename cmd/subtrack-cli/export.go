package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"subtrack/internal/cli"
	"subtrack/internal/export"
	applog "subtrack/internal/log"
	"subtrack/internal/sheets"
	"subtrack/internal/sheets/google"
)

const formatSheets = "sheets"

var errSheetsDisabled = errors.New("google sheets export needs GOOGLE_SPREADSHEET_ID and service account credentials")

func newExportCmd(flags *rootFlags) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export subscriptions as CSV, JSON or to Google Sheets",
		Example: `  subtrack-cli export --format csv --output subs.csv
  subtrack-cli export --format json --currency USD
  subtrack-cli export --format sheets`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			if strings.EqualFold(strings.TrimSpace(format), formatSheets) {
				if !app.Config.SheetsEnabled() {
					return errSheetsDisabled
				}
				client, err := google.New(cmd.Context(), google.Config{
					SpreadsheetID:      app.Config.GoogleSpreadsheetID,
					SheetName:          app.Config.GoogleSheetName,
					ServiceAccountJSON: app.Config.GoogleServiceAccountJSON,
					ServiceAccountFile: app.Config.GoogleServiceAccountFile,
				}, app.Logger)
				if err != nil {
					return err
				}
				return exportToSheet(cmd, app, client, flags.currency)
			}

			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return exportToFile(cmd, app, f, flags.currency, output)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatCSV), "csv, json or sheets")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to stdout)")
	return cmd
}

func exportToFile(cmd *cobra.Command, app *cli.App, f export.Format, currency, path string) error {
	var w io.Writer = cmd.OutOrStdout()
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer file.Close()
		w = file
	}
	if err := app.Spending.Export(cmd.Context(), w, f, currency); err != nil {
		return err
	}
	if path != "" {
		app.Logger.WithComponent(applog.ComponentExport).Debug("Export written", "format", string(f), "path", path)
		fmt.Fprintf(cmd.ErrOrStderr(), "  Wrote %s\n", path)
	}
	return nil
}

func exportToSheet(cmd *cobra.Command, app *cli.App, dst sheets.SubscriptionExporter, currency string) error {
	records, err := app.Spending.ExportRecords(cmd.Context(), currency)
	if err != nil {
		return err
	}
	updated, err := dst.ExportSubscriptions(cmd.Context(), records)
	if err != nil {
		return err
	}
	if updated == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "  No subscriptions to export.")
		return nil
	}
	app.Logger.WithComponent(applog.ComponentExport).Info("Exported subscriptions to sheet",
		applog.FieldCount, len(records),
		"range", updated)
	fmt.Fprintf(cmd.OutOrStdout(), "  Exported %d subscriptions to %s\n", len(records), updated)
	return nil
}
