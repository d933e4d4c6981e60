package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/ev-parlay/internal/report"
	"github.com/yourusername/ev-parlay/internal/service"
)

var (
	simParlays     string
	simTrials      int
	simSeed        int64
	simSaveSamples string
	simJSON        bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Monte Carlo the profit distribution of a saved slate",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateConfig(); err != nil {
			return err
		}
		tickets, err := report.ReadTicketsCSV(simParlays)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		svc := service.NewParlayService(cfg, nil, appLog)
		var seed *int64
		if cmd.Flags().Changed("seed") {
			seed = &simSeed
		}

		stats, err := svc.Simulate(ctx, tickets, simTrials, seed)
		if err != nil {
			return err
		}
		if simJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(stats); err != nil {
				return err
			}
		} else {
			report.PrintSimulation(os.Stdout, stats)
		}

		if simSaveSamples != "" {
			profits, err := svc.Samples(ctx, tickets, simTrials, seed)
			if err != nil {
				return err
			}
			if err := report.WriteSamplesCSV(simSaveSamples, profits); err != nil {
				return err
			}
			fmt.Printf("Saved samples to %s\n", simSaveSamples)
		}
		return nil
	},
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simParlays, "parlays", "outputs/parlays.csv", "Path to parlays.csv")
	f.IntVar(&simTrials, "trials", 0, "Monte Carlo trials (default from config)")
	f.Int64Var(&simSeed, "seed", 0, "Random seed (default from config)")
	f.StringVar(&simSaveSamples, "save-samples", "", "Optional CSV of per-trial profits")
	f.BoolVar(&simJSON, "json", false, "Print statistics as JSON")
}
