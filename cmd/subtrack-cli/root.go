package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"subtrack/internal/cli"
	applog "subtrack/internal/log"
)

type rootFlags struct {
	currency string
	verbose  bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:          "subtrack-cli",
		Short:        "Subscription spending reports and exports",
		Long:         "Inspect subscription spending, exchange rates and exports from the command line.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.currency, "currency", "c", "", "Display currency (defaults to DEFAULT_CURRENCY)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log diagnostics to stderr")

	root.AddCommand(
		newReportCmd(flags),
		newExportCmd(flags),
		newRatesCmd(flags),
		newSeedCmd(flags),
	)
	return root
}

// loadApp wires the application from the environment. Logs go to stderr so
// they never mix with exported data on stdout.
func loadApp(cmd *cobra.Command, flags *rootFlags) (*cli.App, error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}

	logCfg := applog.DefaultConfig()
	logCfg.Output = os.Stderr
	logCfg.Level = slog.LevelWarn
	if flags.verbose {
		logCfg.Level = slog.LevelDebug
	}
	if cfg.LogFormat == "json" {
		logCfg.Format = "json"
	}
	logger := applog.New(logCfg)

	return cli.Bootstrap(cmd.Context(), cfg, logger)
}
