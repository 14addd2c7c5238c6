package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSeedCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default categories on an empty store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			cats, seeded, err := app.Subscriptions.Initialize(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !seeded {
				fmt.Fprintf(out, "  Already initialized (%d categories)\n", len(cats))
				return nil
			}
			fmt.Fprintf(out, "  Seeded %d default categories\n", len(cats))
			for _, c := range cats {
				fmt.Fprintf(out, "    %s\n", c.Name)
			}
			return nil
		},
	}
}
