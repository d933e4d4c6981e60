// Package builder turns evaluated legs into a ranked slate of parlay tickets:
// beam search for candidates, integer-program selection under exposure caps,
// and derivation of smaller tickets when the selection comes up short.
package builder

import (
	"sort"

	"github.com/yourusername/ev-parlay/internal/evmath"
	"github.com/yourusername/ev-parlay/internal/models"
)

// Combo is an ordered set of legs proposed as one ticket
type Combo []models.Leg

// Teams returns the combo's team abbreviations in leg order
func (c Combo) Teams() []string {
	teams := make([]string, len(c))
	for i, leg := range c {
		teams[i] = leg.TeamAbbr
	}
	return teams
}

// BeamOptions configures candidate generation
type BeamOptions struct {
	Sizes             []int
	BeamWidth         int
	CandidatePoolSize int
	Rho               float64
}

type scoredCombo struct {
	legs  Combo
	score float64
}

// CandidatePool returns the +EV legs ordered by edge, truncated to poolSize
// when poolSize is positive
func CandidatePool(legs []models.Leg, poolSize int) []models.Leg {
	pool := make([]models.Leg, 0, len(legs))
	for _, leg := range legs {
		if leg.ExpectedValue > 0 {
			pool = append(pool, leg)
		}
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Edge > pool[j].Edge
	})
	if poolSize > 0 && len(pool) > poolSize {
		pool = pool[:poolSize]
	}
	return pool
}

// BeamSearch grows tickets one leg at a time for each requested size,
// keeping the BeamWidth best +EV extensions at every step. It is greedy: the
// final beam is a good frontier, not a guaranteed optimum.
func BeamSearch(legs []models.Leg, opts BeamOptions) map[int][]Combo {
	candidates := CandidatePool(legs, opts.CandidatePoolSize)
	bySize := make(map[int][]Combo, len(opts.Sizes))

	for _, size := range opts.Sizes {
		beam := make([]scoredCombo, 0, len(candidates))
		for _, leg := range candidates {
			beam = append(beam, scoredCombo{legs: Combo{leg}, score: leg.Edge})
		}

		for step := 1; step < size; step++ {
			next := make([]scoredCombo, 0, len(beam))
			for _, sc := range beam {
				for _, leg := range candidates {
					if conflicts(sc.legs, leg) {
						continue
					}
					extended := make(Combo, len(sc.legs), len(sc.legs)+1)
					copy(extended, sc.legs)
					extended = append(extended, leg)

					_, _, ev := evmath.ParlayMetrics(extended, opts.Rho)
					if ev <= 0 {
						continue
					}
					next = append(next, scoredCombo{legs: extended, score: ev})
				}
			}
			sort.SliceStable(next, func(i, j int) bool {
				return next[i].score > next[j].score
			})
			if opts.BeamWidth >= 0 && len(next) > opts.BeamWidth {
				next = next[:opts.BeamWidth]
			}
			beam = next
		}

		combos := make([]Combo, len(beam))
		for i, sc := range beam {
			combos[i] = sc.legs
		}
		bySize[size] = combos
	}
	return bySize
}

func conflicts(combo Combo, leg models.Leg) bool {
	for _, existing := range combo {
		if existing.ConflictsWith(leg) {
			return true
		}
	}
	return false
}
