package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var fetchOddsCmd = &cobra.Command{
	Use:   "fetch-odds",
	Short: "Fetch current moneylines and refresh the odds cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		if region, _ := cmd.Flags().GetString("region"); region != "" {
			cfg.OddsAPI.Region = region
		}
		if err := validateConfig(); err != nil {
			return err
		}

		client := newOddsClient()
		defer client.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		events, err := client.Refresh(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Fetched %d events into %s\n", len(events), cfg.OddsAPI.CacheFile)
		return nil
	},
}

func init() {
	fetchOddsCmd.Flags().String("region", "", "Sportsbook region (default from config)")
}
