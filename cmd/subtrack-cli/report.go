package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"subtrack/internal/analytics"
)

func newReportCmd(flags *rootFlags) *cobra.Command {
	var months int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Spending summary, category breakdown and reminders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			d, err := app.Spending.Dashboard(ctx, flags.currency, months)
			if err != nil {
				return err
			}
			reminders, err := app.Spending.Reminders(ctx, d.Currency)
			if err != nil {
				return err
			}
			printReport(cmd, d, reminders)
			return nil
		},
	}
	cmd.Flags().IntVarP(&months, "months", "m", 0, "Trend length in months (defaults to TREND_MONTHS)")
	return cmd
}

func printReport(cmd *cobra.Command, d analytics.Dashboard, reminders []analytics.Reminder) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, renderTitle("SUBSCRIPTION SPENDING  "+d.Currency))
	fmt.Fprintln(out)

	if d.Counts.Total == 0 {
		fmt.Fprintln(out, "  No subscriptions found.")
		return
	}

	fmt.Fprintln(out, renderTable([]string{"Summary", "Value"}, [][]string{
		{"Monthly", money(d.TotalMonthlySpending, d.Currency)},
		{"Yearly", money(d.TotalYearlySpending, d.Currency)},
		{"Average", money(d.Insights.AveragePerSubscription, d.Currency)},
		{"Most expensive", fmt.Sprintf("%s (%s)", d.Insights.MostExpensive.Name, money(d.Insights.MostExpensive.Cost, d.Currency))},
		{"Yearly-plan savings", money(d.Insights.PotentialSavings, d.Currency)},
		{"Active paid", strconv.Itoa(d.Counts.ActivePaid)},
		{"Free trials", strconv.Itoa(d.Counts.ActiveFreeTrial)},
		{"Total", strconv.Itoa(d.Counts.Total)},
	}))

	if len(d.CategoryBreakdown) > 0 {
		rows := make([][]string, 0, len(d.CategoryBreakdown))
		for _, c := range d.CategoryBreakdown {
			rows = append(rows, []string{c.Name, strconv.Itoa(c.Count), money(c.Amount, d.Currency)})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"Category", "Count", "Monthly"}, rows))
	}

	if len(reminders) > 0 {
		rows := make([][]string, 0, len(reminders))
		for _, r := range reminders {
			rows = append(rows, []string{r.Message, r.Priority})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"Reminder", "Priority"}, rows))
	}
}
