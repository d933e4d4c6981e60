package evmath

import "github.com/yourusername/ev-parlay/internal/models"

// Evaluate returns a copy of leg with implied probability, edge and
// single-bet EV filled in. Unpriced legs come back unchanged.
func Evaluate(leg models.Leg) models.Leg {
	if !leg.HasPrice() {
		return leg
	}
	odds := *leg.BestOdds
	leg.BestOdds = &odds
	leg.ImpliedProb = odds.ImpliedProb
	leg.Edge = leg.ModelWinProb - odds.ImpliedProb
	leg.ExpectedValue = SingleEV(leg.ModelWinProb, odds.Decimal)
	return leg
}

// EvaluateAll evaluates every leg, returning a new slice
func EvaluateAll(legs []models.Leg) []models.Leg {
	out := make([]models.Leg, len(legs))
	for i, leg := range legs {
		out[i] = Evaluate(leg)
	}
	return out
}

// NewMoneyline builds a priced quote from an American price
func NewMoneyline(book string, american int) (models.MoneylineOdds, error) {
	dec, err := AmericanToDecimal(american)
	if err != nil {
		return models.MoneylineOdds{}, err
	}
	implied, err := AmericanToImpliedProbability(american)
	if err != nil {
		return models.MoneylineOdds{}, err
	}
	return models.MoneylineOdds{
		Book:        book,
		American:    american,
		Decimal:     dec,
		ImpliedProb: implied,
	}, nil
}
