package evmath

import (
	"math"

	"github.com/yourusername/ev-parlay/internal/models"
)

// SingleEV is the expected profit of a unit stake at decimal odds
func SingleEV(p, decimal float64) float64 {
	return p*(decimal-1.0) - (1.0 - p)
}

// ParlayProbability combines leg probabilities. With rho = 0 legs are
// independent; otherwise the product is blended toward the weakest leg.
func ParlayProbability(probs []float64, rho float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	independent := 1.0
	minP := probs[0]
	for _, p := range probs {
		independent *= p
		if p < minP {
			minP = p
		}
	}
	if rho == 0 {
		return independent
	}
	return independent*(1.0-rho) + rho*minP
}

// ParlayDecimal multiplies leg decimal odds into the ticket payout multiplier
func ParlayDecimal(odds []float64) float64 {
	d := 1.0
	for _, o := range odds {
		d *= o
	}
	return d
}

// KellyFraction returns the full-Kelly bankroll fraction, clamped at zero.
// Kelly: f = (bp - q) / b with b = decimal - 1
func KellyFraction(p, decimal float64) float64 {
	b := decimal - 1.0
	if b <= 0 {
		return 0
	}
	k := (p*b - (1.0 - p)) / b
	return math.Max(0, k)
}

// ParlayMetrics returns combined probability, decimal payout and unit-stake
// EV for a set of legs. EV is -Inf when any leg has no price.
func ParlayMetrics(legs []models.Leg, rho float64) (prob, decimal, ev float64) {
	probs := make([]float64, 0, len(legs))
	odds := make([]float64, 0, len(legs))
	for _, leg := range legs {
		if !leg.HasPrice() {
			return 0, 0, math.Inf(-1)
		}
		probs = append(probs, leg.ModelWinProb)
		odds = append(odds, leg.BestOdds.Decimal)
	}
	prob = ParlayProbability(probs, rho)
	decimal = ParlayDecimal(odds)
	return prob, decimal, SingleEV(prob, decimal)
}
