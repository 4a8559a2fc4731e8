package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole pipeline: fetch, flatten, enrich, index",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		stages := []struct {
			name string
			fn   func() error
		}{
			{"fetch", func() error { return runFetch(ctx, cfg) }},
			{"flatten", func() error { return runFlatten(ctx, cfg) }},
			{"enrich", func() error { return runEnrich(ctx, cfg) }},
			{"index", func() error { return runIndex(ctx, cfg) }},
		}

		for _, stage := range stages {
			fmt.Printf("==> %s\n", stage.name)
			if err := stage.fn(); err != nil {
				return fmt.Errorf("%s: %w", stage.name, err)
			}
		}
		return nil
	},
}
