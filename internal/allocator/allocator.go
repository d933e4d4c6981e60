// Package allocator splits a run budget across the final tickets.
package allocator

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/ev-parlay/internal/models"
)

// Weighting methods
const (
	MethodKellyNorm = "kelly_norm"
	MethodEqual     = "equal"
	MethodEVSqrt    = "ev_sqrt"
)

// ErrUnknownMethod is returned for an unsupported weighting method
var ErrUnknownMethod = errors.New("unknown stake method")

// Options configures budget allocation
type Options struct {
	Budget float64
	Method string
	// MaxStakePct caps each stake as a fraction of Budget; 0 disables the cap
	MaxStakePct float64
	MinStake    float64
	// DesiredTickets, when set, limits the portfolio to exactly that many tickets
	DesiredTickets int
	MaxTickets     int
}

// Allocator assigns stakes from a fixed budget
type Allocator struct {
	opts   Options
	logger logrus.FieldLogger
}

// New creates an allocator. A nil logger discards output.
func New(opts Options, logger logrus.FieldLogger) *Allocator {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Allocator{opts: opts, logger: logger}
}

// Allocate stakes the top tickets from the budget and writes the result into
// both stake fields. When a desired count is configured only the staked
// tickets are returned; otherwise tickets beyond the staked head keep their
// previous stakes. The input slice is not modified.
func (a *Allocator) Allocate(tickets []models.Ticket) ([]models.Ticket, error) {
	out := make([]models.Ticket, len(tickets))
	copy(out, tickets)
	if len(out) == 0 {
		return out, nil
	}

	n := a.count(len(out))
	weights, err := a.weights(out[:n])
	if err != nil {
		return nil, err
	}

	stakes := a.distribute(weights)
	for i := range stakes {
		stake, _ := decimal.New(stakes[i], -2).Float64()
		out[i].FlatStake = stake
		out[i].KellyStake = stake
	}

	a.logger.WithFields(logrus.Fields{
		"budget":  a.opts.Budget,
		"method":  a.opts.Method,
		"tickets": n,
	}).Debug("Budget allocated")

	if a.opts.DesiredTickets > 0 {
		return out[:n], nil
	}
	return out, nil
}

func (a *Allocator) count(available int) int {
	n := a.opts.DesiredTickets
	if n <= 0 {
		n = a.opts.MaxTickets
	}
	if n <= 0 || n > available {
		n = available
	}
	return n
}

// weights returns normalized non-negative weights, equal when none are positive
func (a *Allocator) weights(tickets []models.Ticket) ([]float64, error) {
	w := make([]float64, len(tickets))
	for i, t := range tickets {
		switch a.opts.Method {
		case MethodEqual:
			w[i] = 1
		case MethodEVSqrt:
			w[i] = math.Sqrt(math.Max(0, t.ExpectedValue+1e-9))
		case MethodKellyNorm, "":
			w[i] = math.Max(0, t.KellyStake)
		default:
			return nil, fmt.Errorf("%q: %w", a.opts.Method, ErrUnknownMethod)
		}
	}

	sum := 0.0
	for _, v := range w {
		sum += v
	}
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		for i := range w {
			w[i] = 1
		}
		sum = float64(len(w))
	}
	for i := range w {
		w[i] /= sum
	}
	return w, nil
}

func cents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

// distribute works in minor units so the stakes sum exactly to at most the
// budget
func (a *Allocator) distribute(weights []float64) []int64 {
	n := int64(len(weights))
	budget := cents(a.opts.Budget)
	if budget < 0 {
		budget = 0
	}
	maxCap := budget
	if a.opts.MaxStakePct > 0 {
		maxCap = decimal.NewFromFloat(a.opts.MaxStakePct * a.opts.Budget).Shift(2).Floor().IntPart()
	}
	floor := cents(a.opts.MinStake)
	if floor < 0 {
		floor = 0
	}
	if floor*n > budget {
		shrunk := budget / n
		a.logger.WithFields(logrus.Fields{
			"min_stake":       a.opts.MinStake,
			"effective_floor": float64(shrunk) / 100,
			"tickets":         n,
			"budget":          a.opts.Budget,
		}).Warn("Minimum stakes exceed budget, shrinking floor proportionally")
		floor = shrunk
	}
	if floor > maxCap {
		floor = maxCap
	}

	stakes := make([]int64, len(weights))
	var total int64
	for i, w := range weights {
		s := decimal.NewFromFloat(float64(budget) * w).Round(0).IntPart()
		if s < floor {
			s = floor
		}
		if s > maxCap {
			s = maxCap
		}
		stakes[i] = s
		total += s
	}

	if total > budget {
		trim(stakes, total-budget, floor)
		total = budget
	}

	remaining := budget - total
	for remaining > 0 {
		open := 0
		for _, s := range stakes {
			if s < maxCap {
				open++
			}
		}
		if open == 0 {
			break
		}
		share := remaining / int64(open)
		if share < 1 {
			share = 1
		}
		for i := range stakes {
			if remaining == 0 {
				break
			}
			add := maxCap - stakes[i]
			if add <= 0 {
				continue
			}
			if add > share {
				add = share
			}
			if add > remaining {
				add = remaining
			}
			stakes[i] += add
			remaining -= add
		}
	}
	return stakes
}

// trim removes excess from stakes above the floor in proportion to how far
// above the floor each stake sits
func trim(stakes []int64, excess, floor int64) {
	var above int64
	for _, s := range stakes {
		above += s - floor
	}
	if above <= 0 {
		return
	}
	left := excess
	for i, s := range stakes {
		cut := (s - floor) * excess / above
		stakes[i] -= cut
		left -= cut
	}

	order := make([]int, len(stakes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return stakes[order[x]] > stakes[order[y]]
	})
	for left > 0 {
		moved := false
		for _, i := range order {
			if left == 0 {
				break
			}
			if stakes[i] > floor {
				stakes[i]--
				left--
				moved = true
			}
		}
		if !moved {
			return
		}
	}
}
