package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/ev-parlay/internal/oddsapi"
	"github.com/yourusername/ev-parlay/internal/parser"
	"github.com/yourusername/ev-parlay/internal/report"
	"github.com/yourusername/ev-parlay/internal/service"
)

type buildFlags struct {
	model             string
	region            string
	sportsbooks       string
	maxTickets        int
	numParlays        int
	parlaySizes       string
	teamExposureCap   float64
	bankroll          float64
	budget            float64
	beamWidth         int
	candidatePoolSize int
	minEdge           float64
	minParlayEV       float64
	oddsFile          string
	from              string
	to                string
	week              int
	outdir            string
}

var bf buildFlags

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a parlay portfolio from a model file",
	RunE:  runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringVar(&bf.model, "model", "", "Path to model text file")
	f.StringVar(&bf.region, "region", "", "Sportsbook region")
	f.StringVar(&bf.sportsbooks, "sportsbooks", "", "Comma separated sportsbook keys")
	f.IntVar(&bf.maxTickets, "max-tickets", 0, "Maximum number of tickets")
	f.IntVar(&bf.numParlays, "num-parlays", 0, "Exact number of parlays to output")
	f.StringVar(&bf.parlaySizes, "parlay-sizes", "", "Comma separated parlay sizes, e.g. 3,4,5")
	f.Float64Var(&bf.teamExposureCap, "team-exposure-cap", 0, "Maximum share of tickets any team may appear in")
	f.Float64Var(&bf.bankroll, "bankroll", 0, "Bankroll for Kelly sizing")
	f.Float64Var(&bf.budget, "budget", 0, "Total budget for this run (overrides flat/kelly stakes)")
	f.IntVar(&bf.beamWidth, "beam-width", 0, "Beam width per parlay size")
	f.IntVar(&bf.candidatePoolSize, "candidate-pool-size", 0, "Top legs considered by the beam")
	f.Float64Var(&bf.minEdge, "min-edge", 0, "Minimum single-leg edge to include")
	f.Float64Var(&bf.minParlayEV, "min-parlay-ev", 0, "Minimum parlay EV to keep")
	f.StringVar(&bf.oddsFile, "odds-file", "", "Use a saved odds payload instead of fetching")
	f.StringVar(&bf.from, "from", "", "Commence time lower bound (ISO 8601)")
	f.StringVar(&bf.to, "to", "", "Commence time upper bound (ISO 8601)")
	f.IntVar(&bf.week, "week", 0, "Read or write the week-scoped odds cache for this NFL week")
	f.StringVar(&bf.outdir, "outdir", "outputs", "Directory for parlays.csv, exposure.csv and summary.json")
	_ = buildCmd.MarkFlagRequired("model")
}

// applyBuildFlags overrides config values for flags the user set
func applyBuildFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("region") {
		cfg.OddsAPI.Region = bf.region
	}
	if flags.Changed("sportsbooks") {
		cfg.OddsAPI.Sportsbooks = splitList(bf.sportsbooks)
	}
	if flags.Changed("max-tickets") {
		cfg.Parlay.MaxTickets = bf.maxTickets
	}
	if flags.Changed("num-parlays") {
		cfg.Parlay.DesiredNumTickets = bf.numParlays
	}
	if flags.Changed("parlay-sizes") {
		sizes, err := parseSizes(bf.parlaySizes)
		if err != nil {
			return err
		}
		cfg.Parlay.Sizes = sizes
	}
	if flags.Changed("team-exposure-cap") {
		cfg.Parlay.TeamExposureCap = bf.teamExposureCap
	}
	if flags.Changed("bankroll") {
		cfg.Stake.Bankroll = bf.bankroll
	}
	if flags.Changed("budget") {
		cfg.Stake.RunBudget = bf.budget
	}
	if flags.Changed("beam-width") {
		cfg.Parlay.BeamWidth = bf.beamWidth
	}
	if flags.Changed("candidate-pool-size") {
		cfg.Parlay.CandidatePoolSize = bf.candidatePoolSize
	}
	if flags.Changed("min-edge") {
		cfg.Parlay.MinEdge = bf.minEdge
	}
	if flags.Changed("min-parlay-ev") {
		cfg.Parlay.MinParlayEV = bf.minParlayEV
	}
	if flags.Changed("from") {
		cfg.OddsAPI.CommenceFrom = bf.from
	}
	if flags.Changed("to") {
		cfg.OddsAPI.CommenceTo = bf.to
	}
	if flags.Changed("week") {
		cfg.OddsAPI.Week = bf.week
	}
	return nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	if err := applyBuildFlags(cmd); err != nil {
		return err
	}
	if err := validateConfig(); err != nil {
		return err
	}

	selections, err := parser.ParseFile(bf.model)
	if err != nil {
		return err
	}

	req := service.BuildRequest{Selections: selections}
	var source oddsapi.OddsSource
	if bf.oddsFile != "" {
		req.Events, err = oddsapi.LoadFile(bf.oddsFile)
		if err != nil {
			return err
		}
	} else {
		client := newOddsClient()
		defer client.Close()
		source = client
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := service.NewParlayService(cfg, source, appLog).Build(ctx, req)
	if err != nil {
		return err
	}

	report.PrintSingles(os.Stdout, result.Singles)
	report.PrintParlays(os.Stdout, result.Tickets)
	summary, err := report.WriteArtifacts(bf.outdir, result.Tickets)
	if err != nil {
		return err
	}
	report.PrintSummary(os.Stdout, summary)
	return nil
}
