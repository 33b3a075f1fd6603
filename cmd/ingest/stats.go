package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many passages the store holds",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		n, err := store.Count(cmd.Context())
		if err != nil {
			return err
		}

		color.Cyan("Store:      %s", cfg.Retrieval.Store)
		color.Cyan("Collection: %s", cfg.Retrieval.Collection)
		if n == 0 {
			color.Yellow("⚠ No passages indexed yet. Run: ingest index <pdf>")
			return nil
		}
		color.Green("✓ %d passages", n)
		return nil
	},
}
