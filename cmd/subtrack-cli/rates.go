package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"subtrack/internal/core"
)

func newRatesCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Show the exchange rates used for conversion",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			table := app.Rates.Rates(cmd.Context())
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(table)
			}

			fetched := "never"
			if !table.FetchedAt.IsZero() {
				fetched = table.FetchedAt.Format(time.RFC3339)
			}
			fmt.Fprintln(out, renderTitle(fmt.Sprintf("EXCHANGE RATES  1 %s  (%s, fetched %s)", table.Base, table.Source, fetched)))

			// Only the supported display currencies; the remote table carries many more.
			rows := make([][]string, 0, len(core.SupportedCurrencies()))
			for _, c := range core.SupportedCurrencies() {
				rate, ok := table.Rate(c.Code)
				value := "n/a"
				if ok {
					value = fmt.Sprintf("%.4f", rate)
				}
				rows = append(rows, []string{c.Code + " " + c.Symbol, c.Name, value})
			}
			fmt.Fprintln(out, renderTable([]string{"Currency", "Name", "Rate"}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full rate table as JSON")
	return cmd
}
