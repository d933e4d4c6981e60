// Package service runs the parlay pipeline end to end.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/ev-parlay/internal/allocator"
	"github.com/yourusername/ev-parlay/internal/builder"
	"github.com/yourusername/ev-parlay/internal/config"
	"github.com/yourusername/ev-parlay/internal/logger"
	"github.com/yourusername/ev-parlay/internal/metrics"
	"github.com/yourusername/ev-parlay/internal/models"
	"github.com/yourusername/ev-parlay/internal/oddsapi"
	"github.com/yourusername/ev-parlay/internal/report"
	"github.com/yourusername/ev-parlay/internal/simulate"
	"github.com/yourusername/ev-parlay/internal/slate"
)

var (
	// ErrNoSelections is returned when a build request carries no model picks
	ErrNoSelections = errors.New("no model selections")
	// ErrNoWeekOdds is returned when a week has no cached odds and the live
	// fetch failed
	ErrNoWeekOdds = errors.New("no cached odds for week and live fetch failed")
	// ErrNoOddsSource is returned when odds must be fetched but no source is set
	ErrNoOddsSource = errors.New("no odds source configured")
)

// BuildRequest is one portfolio build. A nil Config uses the service
// configuration. Nil Events are fetched from the odds source, or from a
// dedicated client when the request's odds settings differ from the service's.
type BuildRequest struct {
	Selections []models.Leg
	Config     *config.Config
	Events     []oddsapi.Event
}

// BuildResult is a finished portfolio build
type BuildResult struct {
	RunID       string          `json:"run_id"`
	Singles     []models.Leg    `json:"singles"`
	Tickets     []models.Ticket `json:"tickets"`
	Summary     report.Summary  `json:"summary"`
	MissingOdds []string        `json:"missing_odds,omitempty"`
}

// ParlayService builds parlay portfolios from model picks and market odds
type ParlayService struct {
	cfg      *config.Config
	odds     oddsapi.OddsSource
	logger   *logrus.Logger
	pipeline *logger.PipelineLogger
	oddsLog  *logger.OddsLogger
}

// NewParlayService creates the pipeline service
func NewParlayService(cfg *config.Config, odds oddsapi.OddsSource, log *logrus.Logger) *ParlayService {
	return &ParlayService{
		cfg:      cfg,
		odds:     odds,
		logger:   log,
		pipeline: logger.NewPipelineLogger(log),
		oddsLog:  logger.NewOddsLogger(log),
	}
}

// Config returns the base configuration
func (s *ParlayService) Config() *config.Config {
	return s.cfg
}

// Build evaluates the picks against the slate, selects the portfolio, applies
// the parlay EV floor and, when a run budget is set, allocates it.
func (s *ParlayService) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	start := time.Now()
	result, err := s.build(ctx, req)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordBuild(outcome, time.Since(start).Seconds())
	return result, err
}

func (s *ParlayService) build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	cfg := req.Config
	if cfg == nil {
		cfg = s.cfg
	}
	if len(req.Selections) == 0 {
		return nil, ErrNoSelections
	}

	runID := uuid.New().String()
	log := s.pipeline.WithRun(runID)

	events := req.Events
	if events == nil {
		fetched, err := s.fetchOdds(ctx, cfg)
		if err != nil {
			return nil, err
		}
		events = fetched
	}

	legs, err := slate.Resolve(req.Selections, oddsapi.BuildGameIndex(events))
	if err != nil {
		return nil, err
	}

	priced, missing := slate.AttachOdds(legs, events, cfg.OddsAPI.Sportsbooks, cfg.OddsAPI.Market, cfg.Parlay.MinEdge)
	if len(missing) > 0 {
		s.oddsLog.LogMissingOdds(missing)
	}
	log.LogLegsEvaluated(len(legs), len(priced), len(missing))

	beamStart := time.Now()
	beamOpts := cfg.BeamOptions()
	bySize := builder.BeamSearch(priced, beamOpts)
	counts := make(map[int]int, len(bySize))
	for size, combos := range bySize {
		counts[size] = len(combos)
	}
	pool := builder.CandidatePool(priced, beamOpts.CandidatePoolSize)
	log.LogBeamSearch(len(pool), counts, float64(time.Since(beamStart).Milliseconds()))

	selectStart := time.Now()
	selector := builder.NewSelector(cfg.NewSolver(), cfg.SelectorOptions(), log)
	tickets, err := builder.New(selector, cfg.DerivationOptions(), log).Build(ctx, bySize)
	if err != nil {
		return nil, fmt.Errorf("select portfolio: %w", err)
	}
	log.LogSelection(len(tickets), totalEV(tickets), float64(time.Since(selectStart).Milliseconds()))

	if floor := cfg.Parlay.MinParlayEV; floor > 0 {
		before := len(tickets)
		kept := tickets[:0]
		for _, t := range tickets {
			if t.ExpectedValue >= floor {
				kept = append(kept, t)
			}
		}
		tickets = kept
		log.LogMinEVFilter(floor, before, len(tickets))
	}

	if cfg.HasBudget() && len(tickets) > 0 {
		alloc := allocator.New(cfg.AllocationOptions(), log)
		tickets, err = alloc.Allocate(tickets)
		if err != nil {
			return nil, fmt.Errorf("allocate budget: %w", err)
		}
		staked := 0.0
		for _, t := range tickets {
			staked += t.Stake()
		}
		log.LogAllocation(cfg.Stake.Method, cfg.Stake.RunBudget, staked, len(tickets))
	}

	for _, t := range tickets {
		metrics.RecordTicket(t.Size)
	}
	metrics.UpdateLastBuild(len(tickets), simulate.ExpectedProfit(tickets))

	return &BuildResult{
		RunID:       runID,
		Singles:     priced,
		Tickets:     tickets,
		Summary:     report.Summarize(tickets),
		MissingOdds: missing,
	}, nil
}

// fetchOdds loads the slate for cfg. The service source serves the configured
// slate; any other odds window gets a one-off client, which only caches on
// disk when a week is set.
func (s *ParlayService) fetchOdds(ctx context.Context, cfg *config.Config) ([]oddsapi.Event, error) {
	source := s.odds
	if cfg != s.cfg && !sameSlate(cfg.OddsAPI, s.cfg.OddsAPI) {
		clientCfg := cfg.OddsClientConfig()
		if cfg.OddsAPI.Week == 0 {
			clientCfg.CacheFile = ""
		}
		client := oddsapi.NewClient(clientCfg, s.oddsLog)
		defer client.Close()
		source = client
	}
	if source == nil {
		return nil, ErrNoOddsSource
	}

	events, err := source.Fetch(ctx)
	if err != nil {
		if week := cfg.OddsAPI.Week; week > 0 {
			return nil, fmt.Errorf("%w (week %d): %w", ErrNoWeekOdds, week, err)
		}
		return nil, fmt.Errorf("load odds: %w", err)
	}
	return events, nil
}

// sameSlate reports whether two odds sections request the same events from
// the same cache. Sportsbook filtering happens after the fetch.
func sameSlate(a, b config.OddsAPIConfig) bool {
	return a.APIKey == b.APIKey &&
		a.BaseURL == b.BaseURL &&
		a.Sport == b.Sport &&
		a.Region == b.Region &&
		a.Market == b.Market &&
		a.Date == b.Date &&
		a.CommenceFrom == b.CommenceFrom &&
		a.CommenceTo == b.CommenceTo &&
		a.CacheFile == b.CacheFile &&
		a.Week == b.Week
}

// Simulate runs the Monte Carlo risk simulation over a slate. A positive
// trials or non-nil seed overrides the configured value.
func (s *ParlayService) Simulate(ctx context.Context, tickets []models.Ticket, trials int, seed *int64) (models.SimulationResult, error) {
	simCfg := s.cfg.SimulationOptions()
	if trials > 0 {
		simCfg.Trials = trials
	}
	if seed != nil {
		simCfg.Seed = *seed
	}

	start := time.Now()
	result, err := simulate.Simulate(ctx, tickets, simCfg)
	if err != nil {
		return models.SimulationResult{}, err
	}
	elapsed := time.Since(start)
	metrics.RecordSimulationDuration(elapsed.Seconds())
	s.pipeline.LogSimulation(result.Trials, result.Mean, result.P05, result.P95, float64(elapsed.Milliseconds()))
	return result, nil
}

// Samples returns the raw per-trial slate profits
func (s *ParlayService) Samples(ctx context.Context, tickets []models.Ticket, trials int, seed *int64) ([]float64, error) {
	simCfg := s.cfg.SimulationOptions()
	if trials > 0 {
		simCfg.Trials = trials
	}
	if seed != nil {
		simCfg.Seed = *seed
	}
	return simulate.Samples(ctx, tickets, simCfg)
}

func totalEV(tickets []models.Ticket) float64 {
	total := 0.0
	for _, t := range tickets {
		total += t.ExpectedValue
	}
	return total
}
