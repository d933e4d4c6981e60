package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourusername/ev-parlay/internal/config"
	"github.com/yourusername/ev-parlay/internal/models"
	"github.com/yourusername/ev-parlay/internal/oddsapi"
	"github.com/yourusername/ev-parlay/internal/parser"
	"github.com/yourusername/ev-parlay/internal/service"
	"github.com/yourusername/ev-parlay/internal/slate"
)

const (
	maxBodyBytes     = 1 << 20
	maxTrials        = 2_000_000
	exampleModelFile = "model.txt"
)

var (
	errModelPathDisabled = errors.New("model_path is not enabled on this server")
	errModelPathInvalid  = errors.New("model_path must name a file inside the model directory")
)

// BuildRequest overrides the server configuration for one build. Omitted
// fields keep the configured values.
type BuildRequest struct {
	ModelText         string   `json:"model_text,omitempty"`
	ModelPath         string   `json:"model_path,omitempty"`
	Region            string   `json:"region,omitempty"`
	Sportsbooks       []string `json:"sportsbooks,omitempty"`
	FromISO           string   `json:"from_iso,omitempty"`
	ToISO             string   `json:"to_iso,omitempty"`
	Week              *int     `json:"week,omitempty"`
	ParlaySizes       []int    `json:"parlay_sizes,omitempty"`
	TeamExposureCap   *float64 `json:"team_exposure_cap,omitempty"`
	BeamWidth         *int     `json:"beam_width,omitempty"`
	CandidatePoolSize *int     `json:"candidate_pool_size,omitempty"`
	MinEdge           *float64 `json:"min_edge,omitempty"`
	MinParlayEV       *float64 `json:"min_parlay_ev,omitempty"`
	DesiredNumTickets *int     `json:"desired_num_tickets,omitempty"`
	Budget            *float64 `json:"budget,omitempty"`
	StakeMethod       string   `json:"stake_method,omitempty"`
	MaxStakePct       *float64 `json:"max_stake_pct,omitempty"`
	MinStake          *float64 `json:"min_stake,omitempty"`
	CorrelationRho    *float64 `json:"correlation_rho,omitempty"`
}

// SingleResponse is one priced leg in a build response
type SingleResponse struct {
	Team     string  `json:"team"`
	ModelP   float64 `json:"model_p"`
	ImpliedP float64 `json:"implied_p"`
	Edge     float64 `json:"edge"`
	Decimal  float64 `json:"dec"`
	EV       float64 `json:"ev"`
	Book     string  `json:"book"`
}

// BuildResponse is the body of a successful build
type BuildResponse struct {
	RunID       string           `json:"run_id"`
	Parlays     []models.Ticket  `json:"parlays"`
	Singles     []SingleResponse `json:"singles"`
	Summary     interface{}      `json:"summary"`
	MissingOdds []string         `json:"missing_odds,omitempty"`
}

// ExampleModelResponse carries the bundled example model text
type ExampleModelResponse struct {
	Text string `json:"text"`
}

// SimulateRequest is a slate to simulate
type SimulateRequest struct {
	Parlays []models.Ticket `json:"parlays"`
	Trials  int             `json:"trials,omitempty"`
	Seed    *int64          `json:"seed,omitempty"`
}

// SimulateResponse carries the simulation statistics
type SimulateResponse struct {
	Stats models.SimulationResult `json:"stats"`
}

// apply copies the request overrides onto a copy of base
func (req BuildRequest) apply(base *config.Config) *config.Config {
	cfg := *base
	if region := strings.ToLower(strings.TrimSpace(req.Region)); region != "" {
		cfg.OddsAPI.Region = region
	}
	if req.FromISO != "" {
		cfg.OddsAPI.CommenceFrom = req.FromISO
	}
	if req.ToISO != "" {
		cfg.OddsAPI.CommenceTo = req.ToISO
	}
	if req.Week != nil {
		cfg.OddsAPI.Week = *req.Week
	}
	if len(req.Sportsbooks) > 0 {
		books := make([]string, len(req.Sportsbooks))
		for i, b := range req.Sportsbooks {
			books[i] = strings.ToLower(strings.TrimSpace(b))
		}
		cfg.OddsAPI.Sportsbooks = books
	}
	if len(req.ParlaySizes) > 0 {
		cfg.Parlay.Sizes = append([]int(nil), req.ParlaySizes...)
	}
	if req.TeamExposureCap != nil {
		cfg.Parlay.TeamExposureCap = *req.TeamExposureCap
	}
	if req.BeamWidth != nil {
		cfg.Parlay.BeamWidth = *req.BeamWidth
	}
	if req.CandidatePoolSize != nil {
		cfg.Parlay.CandidatePoolSize = *req.CandidatePoolSize
	}
	if req.MinEdge != nil {
		cfg.Parlay.MinEdge = *req.MinEdge
	}
	if req.MinParlayEV != nil {
		cfg.Parlay.MinParlayEV = *req.MinParlayEV
	}
	if req.DesiredNumTickets != nil {
		cfg.Parlay.DesiredNumTickets = *req.DesiredNumTickets
	}
	if req.Budget != nil {
		cfg.Stake.RunBudget = *req.Budget
	}
	if req.StakeMethod != "" {
		cfg.Stake.Method = req.StakeMethod
	}
	if req.MaxStakePct != nil {
		cfg.Stake.MaxStakePct = *req.MaxStakePct
	}
	if req.MinStake != nil {
		cfg.Stake.MinStake = *req.MinStake
	}
	if req.CorrelationRho != nil {
		cfg.Parlay.CorrelationRho = *req.CorrelationRho
	}
	return &cfg
}

// validateWindow checks the commence bounds are RFC 3339 timestamps
func (req BuildRequest) validateWindow() error {
	bounds := []struct{ field, value string }{
		{field: "from_iso", value: req.FromISO},
		{field: "to_iso", value: req.ToISO},
	}
	for _, b := range bounds {
		if b.value == "" {
			continue
		}
		if _, err := time.Parse(time.RFC3339, b.value); err != nil {
			return fmt.Errorf("%s must be an RFC 3339 timestamp", b.field)
		}
	}
	return nil
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validateWindow(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := req.apply(s.svc.Config())
	if err := config.Validate(cfg); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	selections, ok := s.selections(w, req)
	if !ok {
		return
	}

	result, err := s.svc.Build(r.Context(), service.BuildRequest{
		Selections: selections,
		Config:     cfg,
	})
	if err != nil {
		s.respondBuildError(w, err)
		return
	}

	singles := make([]SingleResponse, 0, len(result.Singles))
	for _, leg := range result.Singles {
		single := SingleResponse{
			Team:     leg.TeamAbbr,
			ModelP:   leg.ModelWinProb,
			ImpliedP: leg.ImpliedProb,
			Edge:     leg.Edge,
			EV:       leg.ExpectedValue,
			Book:     leg.Book(),
		}
		if leg.BestOdds != nil {
			single.Decimal = leg.BestOdds.Decimal
		}
		singles = append(singles, single)
	}

	respondJSON(w, http.StatusOK, BuildResponse{
		RunID:       result.RunID,
		Parlays:     result.Tickets,
		Singles:     singles,
		Summary:     result.Summary,
		MissingOdds: result.MissingOdds,
	})
}

// selections parses the inline model text, falling back to a model file in
// the model directory. Failures are written to w.
func (s *Server) selections(w http.ResponseWriter, req BuildRequest) ([]models.Leg, bool) {
	if strings.TrimSpace(req.ModelText) != "" {
		legs, err := parser.ParseText(req.ModelText)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
		return legs, true
	}
	if req.ModelPath == "" {
		respondError(w, http.StatusBadRequest, "provide model_text or model_path")
		return nil, false
	}

	path, err := s.modelFile(req.ModelPath)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	legs, err := parser.ParseFile(path)
	if err != nil {
		s.logger.WithError(err).WithField("model_path", req.ModelPath).Warn("Model file unavailable")
		respondError(w, http.StatusBadRequest, "model file not available")
		return nil, false
	}
	return legs, true
}

// modelFile resolves a model file name inside the model directory
func (s *Server) modelFile(name string) (string, error) {
	if s.cfg.ModelDir == "" {
		return "", errModelPathDisabled
	}
	if !filepath.IsLocal(name) {
		return "", errModelPathInvalid
	}
	return filepath.Join(s.cfg.ModelDir, name), nil
}

func (s *Server) handleExampleModel(w http.ResponseWriter, r *http.Request) {
	var text string
	if path, err := s.modelFile(exampleModelFile); err == nil {
		if data, err := os.ReadFile(path); err == nil {
			text = string(data)
		}
	}
	respondJSON(w, http.StatusOK, ExampleModelResponse{Text: text})
}

func (s *Server) respondBuildError(w http.ResponseWriter, err error) {
	var missing *slate.MissingTeamsError
	switch {
	case errors.As(err, &missing):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   err.Error(),
			Missing: missing.Teams,
			Hint:    "Only include teams playing in the current slate, one pick per game.",
		})
	case errors.Is(err, service.ErrNoSelections):
		respondError(w, http.StatusBadRequest, "model contains no parsable picks")
	case errors.Is(err, service.ErrNoWeekOdds):
		s.logger.WithError(err).Warn("No odds for requested week")
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: service.ErrNoWeekOdds.Error(),
			Hint:  "Fetch odds for this week first, or set ODDS_API_KEY.",
		})
	case errors.Is(err, oddsapi.ErrMissingAPIKey):
		respondError(w, http.StatusBadGateway, oddsapi.ErrMissingAPIKey.Error())
	case errors.Is(err, oddsapi.ErrCircuitOpen):
		respondError(w, http.StatusBadGateway, oddsapi.ErrCircuitOpen.Error())
	default:
		s.logger.WithError(err).Error("Build failed")
		respondError(w, http.StatusInternalServerError, "build failed")
	}
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Trials < 0 || req.Trials > maxTrials {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("trials must be between 1 and %d", maxTrials))
		return
	}

	stats, err := s.svc.Simulate(r.Context(), req.Parlays, req.Trials, req.Seed)
	if err != nil {
		s.logger.WithError(err).Error("Simulation failed")
		respondError(w, http.StatusInternalServerError, "simulation failed")
		return
	}
	respondJSON(w, http.StatusOK, SimulateResponse{Stats: stats})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
