// Package simulate estimates the profit distribution of a ticket slate by
// Monte Carlo.
package simulate

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/ev-parlay/internal/models"
)

// ErrInvalidTrials is returned when the trial count is not positive
var ErrInvalidTrials = errors.New("trials must be positive")

const defaultChunkSize = 4096

// Config configures a simulation run. Trials are split into chunks of
// ChunkSize and chunk i draws from its own source seeded with Seed+i, so the
// outcome depends only on Seed, ChunkSize and the slate, never on Workers.
type Config struct {
	Trials    int
	Seed      int64
	Workers   int
	ChunkSize int
}

type outcome struct {
	prob  float64
	win   float64
	stake float64
}

// Samples returns the profit of every trial in order
func Samples(ctx context.Context, tickets []models.Ticket, cfg Config) ([]float64, error) {
	if cfg.Trials <= 0 {
		return nil, ErrInvalidTrials
	}
	chunk := cfg.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	outcomes := make([]outcome, len(tickets))
	for i, t := range tickets {
		stake := t.Stake()
		outcomes[i] = outcome{
			prob:  t.CombinedProbability,
			win:   stake * (t.CombinedDecimal - 1.0),
			stake: stake,
		}
	}

	profits := make([]float64, cfg.Trials)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start, seq := 0, int64(0); start < cfg.Trials; start, seq = start+chunk, seq+1 {
		end := start + chunk
		if end > cfg.Trials {
			end = cfg.Trials
		}
		part := profits[start:end]
		seed := cfg.Seed + seq
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			runChunk(part, outcomes, seed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profits, nil
}

func runChunk(profits []float64, outcomes []outcome, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range profits {
		total := 0.0
		for _, o := range outcomes {
			if rng.Float64() < o.prob {
				total += o.win
			} else {
				total -= o.stake
			}
		}
		profits[i] = total
	}
}

// Simulate runs the slate cfg.Trials times and summarizes the profit
// distribution
func Simulate(ctx context.Context, tickets []models.Ticket, cfg Config) (models.SimulationResult, error) {
	profits, err := Samples(ctx, tickets, cfg)
	if err != nil {
		return models.SimulationResult{}, err
	}

	sorted := append([]float64(nil), profits...)
	sort.Float64s(sorted)

	return models.SimulationResult{
		Trials:              cfg.Trials,
		Mean:                mean(profits),
		Median:              percentile(sorted, 0.50),
		P05:                 percentile(sorted, 0.05),
		P95:                 percentile(sorted, 0.95),
		ExpectedProfit:      ExpectedProfit(tickets),
		ProbabilityOfProfit: probabilityAbove(profits, 0),
	}, nil
}

// ExpectedProfit is the analytic expectation: the sum of stake times EV
func ExpectedProfit(tickets []models.Ticket) float64 {
	total := 0.0
	for _, t := range tickets {
		total += t.Stake() * t.ExpectedValue
	}
	return total
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// percentile interpolates linearly between closest ranks of sorted values
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo = 0
	}
	if hi >= len(sorted) {
		hi = len(sorted) - 1
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func probabilityAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}
