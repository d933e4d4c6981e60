package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/ev-parlay/internal/evmath"
	"github.com/yourusername/ev-parlay/internal/metrics"
	"github.com/yourusername/ev-parlay/internal/models"
)

// ErrSolverUnavailable is returned when no integer-program solver is configured
var ErrSolverUnavailable = errors.New("integer program solver unavailable")

const (
	minSolverPool        = 50
	solverPoolMultiplier = 5
)

// SelectorOptions configures portfolio selection
type SelectorOptions struct {
	MaxTickets int
	// DesiredTickets requests an exact ticket count; 0 means unset
	DesiredTickets  int
	TeamExposureCap float64
	Rho             float64
	Bankroll        float64
	KellyMultiplier float64
	FlatStake       float64
}

// CountBound is the ticket count the exposure cap is measured against
func (o SelectorOptions) CountBound() int {
	if o.DesiredTickets > 0 {
		return o.DesiredTickets
	}
	return o.MaxTickets
}

// TeamCap is the maximum number of selected tickets any one team may appear in
func (o SelectorOptions) TeamCap() int {
	return int(math.Floor(o.TeamExposureCap * float64(o.CountBound())))
}

type candidate struct {
	size  int
	legs  Combo
	prob  float64
	dec   float64
	ev    float64
	sig   string
	teams []string
}

// Selector picks the EV-maximizing subset of beam candidates subject to a
// ticket count and per-team exposure limits
type Selector struct {
	solver Solver
	opts   SelectorOptions
	logger logrus.FieldLogger
}

// NewSelector creates a selector. A nil logger discards output.
func NewSelector(solver Solver, opts SelectorOptions, logger logrus.FieldLogger) *Selector {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Selector{solver: solver, opts: opts, logger: logger}
}

// Options returns the selector's configuration
func (s *Selector) Options() SelectorOptions {
	return s.opts
}

// Select solves the portfolio program over every beam and returns the chosen
// tickets, deduplicated and ordered by EV. Infeasible constraints yield an
// empty or short result rather than an error.
func (s *Selector) Select(ctx context.Context, bySize map[int][]Combo) ([]models.Ticket, error) {
	if s.solver == nil {
		return nil, ErrSolverUnavailable
	}

	cands := s.candidates(bySize)
	if len(cands) == 0 {
		return []models.Ticket{}, nil
	}

	prog := s.program(cands, s.opts.DesiredTickets > 0)
	start := time.Now()
	sol, err := s.solver.Solve(ctx, prog)
	metrics.SolverDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("solve portfolio program: %w", err)
	}

	if !sol.Feasible && s.opts.DesiredTickets > 0 {
		s.logger.WithFields(logrus.Fields{
			"desired":    s.opts.DesiredTickets,
			"candidates": len(cands),
		}).Warn("Exact ticket count infeasible, relaxing to an upper bound")
		sol, err = s.solver.Solve(ctx, s.program(cands, false))
		if err != nil {
			return nil, fmt.Errorf("solve relaxed portfolio program: %w", err)
		}
	}
	if !sol.Optimal {
		metrics.SolverFallbacks.Inc()
		s.logger.WithFields(logrus.Fields{
			"nodes":     sol.Nodes,
			"objective": sol.Objective,
		}).Warn("Solver budget exhausted, using best incumbent")
	}

	tickets := make([]models.Ticket, 0, len(sol.Selected))
	for _, idx := range sol.Selected {
		tickets = append(tickets, s.ticket(cands[idx]))
	}
	tickets = models.DedupeBySignature(tickets)
	models.SortByEV(tickets)

	s.logger.WithFields(logrus.Fields{
		"candidates": len(cands),
		"selected":   len(tickets),
		"nodes":      sol.Nodes,
		"optimal":    sol.Optimal,
	}).Debug("Portfolio selected")
	return tickets, nil
}

// candidates flattens the beams, drops non-positive EV, collapses leg
// orderings of the same team set and keeps the top of the pool ordered by EV
// then signature
func (s *Selector) candidates(bySize map[int][]Combo) []candidate {
	sizes := make([]int, 0, len(bySize))
	for size := range bySize {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)

	var cands []candidate
	for _, size := range sizes {
		for _, combo := range bySize[size] {
			prob, dec, ev := evmath.ParlayMetrics(combo, s.opts.Rho)
			if math.IsInf(ev, 0) || math.IsNaN(ev) || ev <= 0 {
				continue
			}
			teams := combo.Teams()
			sorted := append([]string(nil), teams...)
			sort.Strings(sorted)
			cands = append(cands, candidate{
				size:  len(combo),
				legs:  combo,
				prob:  prob,
				dec:   dec,
				ev:    ev,
				sig:   fmt.Sprintf("%d|%s", len(combo), strings.Join(sorted, ",")),
				teams: teams,
			})
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].ev != cands[j].ev {
			return cands[i].ev > cands[j].ev
		}
		return cands[i].sig < cands[j].sig
	})
	cands = uniqueCandidates(cands)
	limit := s.opts.MaxTickets * solverPoolMultiplier
	if limit < minSolverPool {
		limit = minSolverPool
	}
	if len(cands) > limit {
		cands = cands[:limit]
	}
	return cands
}

func uniqueCandidates(cands []candidate) []candidate {
	seen := make(map[string]struct{}, len(cands))
	out := cands[:0]
	for _, c := range cands {
		if _, ok := seen[c.sig]; ok {
			continue
		}
		seen[c.sig] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (s *Selector) program(cands []candidate, exact bool) IntegerProgram {
	prog := IntegerProgram{Objective: make([]float64, len(cands))}
	all := make([]int, len(cands))
	byTeam := make(map[string][]int)
	for i, c := range cands {
		prog.Objective[i] = c.ev
		all[i] = i
		for _, team := range c.teams {
			byTeam[team] = append(byTeam[team], i)
		}
	}

	count := Constraint{Name: "count", Vars: all, Sense: LessEq, RHS: s.opts.MaxTickets}
	if exact {
		count.Sense = Equal
		count.RHS = s.opts.DesiredTickets
	} else if s.opts.DesiredTickets > 0 {
		count.RHS = s.opts.DesiredTickets
	}
	prog.Constraints = append(prog.Constraints, count)

	teamCap := s.opts.TeamCap()
	if teamCap < 0 {
		return prog
	}
	teams := make([]string, 0, len(byTeam))
	for team := range byTeam {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	for _, team := range teams {
		prog.Constraints = append(prog.Constraints, Constraint{
			Name:  "exposure_" + team,
			Vars:  byTeam[team],
			Sense: LessEq,
			RHS:   teamCap,
		})
	}
	return prog
}

func (s *Selector) ticket(c candidate) models.Ticket {
	legs := make([]models.Leg, len(c.legs))
	copy(legs, c.legs)
	kelly := s.opts.Bankroll * s.opts.KellyMultiplier * evmath.KellyFraction(c.prob, c.dec)
	return models.Ticket{
		Size:                c.size,
		Legs:                legs,
		CombinedDecimal:     c.dec,
		CombinedProbability: c.prob,
		ExpectedValue:       c.ev,
		FlatStake:           s.opts.FlatStake,
		KellyStake:          evmath.RoundCents(kelly),
		Books:               books(legs),
	}
}

func books(legs []models.Leg) map[string]string {
	out := make(map[string]string, len(legs))
	for _, leg := range legs {
		out[leg.TeamAbbr] = leg.Book()
	}
	return out
}
