package builder

import (
	"sort"

	"github.com/yourusername/ev-parlay/internal/evmath"
	"github.com/yourusername/ev-parlay/internal/models"
)

// DerivationOptions configures single-drop derivation of smaller tickets
type DerivationOptions struct {
	Sizes           []int
	LimitPerSize    int
	MinParlayEV     float64
	SizeDiversify   bool
	AllowDuplicates bool
	Rho             float64
}

// Derive generates smaller tickets from base by dropping one leg at a time.
// Children below MinParlayEV are discarded and each target size holds at most
// LimitPerSize tickets. Derived tickets carry no flat stake and the raw
// Kelly fraction as their risk-adjusted stake.
func Derive(base []models.Ticket, opts DerivationOptions) []models.Ticket {
	buckets := make(map[int][]models.Ticket)
	var order []int

	for _, t := range base {
		for _, size := range opts.Sizes {
			if size >= t.Size {
				continue
			}
			bucket, ok := buckets[size]
			if !ok {
				order = append(order, size)
			}
			if len(bucket) >= opts.LimitPerSize {
				buckets[size] = bucket
				continue
			}
			for drop := range t.Legs {
				if len(t.Legs)-1 != size {
					continue
				}
				legs := make([]models.Leg, 0, len(t.Legs)-1)
				legs = append(legs, t.Legs[:drop]...)
				legs = append(legs, t.Legs[drop+1:]...)

				prob, dec, ev := evmath.ParlayMetrics(legs, opts.Rho)
				if ev < opts.MinParlayEV {
					continue
				}
				bucket = append(bucket, models.Ticket{
					Size:                size,
					Legs:                legs,
					CombinedDecimal:     dec,
					CombinedProbability: prob,
					ExpectedValue:       ev,
					KellyStake:          evmath.KellyFraction(prob, dec),
					Books:               books(legs),
				})
				if len(bucket) >= opts.LimitPerSize {
					break
				}
			}
			buckets[size] = bucket
		}
	}

	if opts.SizeDiversify {
		return roundRobin(buckets)
	}
	var flat []models.Ticket
	for _, size := range order {
		bucket := buckets[size]
		models.SortByEV(bucket)
		flat = append(flat, bucket...)
	}
	return flat
}

// roundRobin interleaves buckets largest size first
func roundRobin(buckets map[int][]models.Ticket) []models.Ticket {
	sizes := make([]int, 0, len(buckets))
	total := 0
	for size, bucket := range buckets {
		sizes = append(sizes, size)
		total += len(bucket)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sizes)))

	merged := make([]models.Ticket, 0, total)
	for i := 0; len(merged) < total; i++ {
		for _, size := range sizes {
			if i < len(buckets[size]) {
				merged = append(merged, buckets[size][i])
			}
		}
	}
	return merged
}
