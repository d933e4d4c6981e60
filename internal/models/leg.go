package models

import "fmt"

// MoneylineOdds is the best available moneyline price for one team
type MoneylineOdds struct {
	Book        string  `json:"book"`
	American    int     `json:"american"`
	Decimal     float64 `json:"decimal" validate:"gt=1"`
	ImpliedProb float64 `json:"implied_prob" validate:"gt=0,lt=1"`
}

// Leg is a single candidate moneyline bet on one team in one game.
// ImpliedProb, Edge and ExpectedValue are derived by the evaluator and are
// zero until a price has been attached.
type Leg struct {
	TeamName      string         `json:"team_name"`
	TeamAbbr      string         `json:"team_abbr" validate:"required"`
	GameID        string         `json:"game_id,omitempty"`
	OpponentName  string         `json:"opponent_name,omitempty"`
	OpponentAbbr  string         `json:"opponent_abbr,omitempty"`
	ModelWinProb  float64        `json:"model_win_prob" validate:"gt=0,lt=1"`
	Margin        *float64       `json:"margin,omitempty"`
	BestOdds      *MoneylineOdds `json:"best_odds,omitempty"`
	ImpliedProb   float64        `json:"implied_prob_market"`
	Edge          float64        `json:"edge"`
	ExpectedValue float64        `json:"expected_value"`
}

// HasPrice reports whether a market price is attached
func (l Leg) HasPrice() bool {
	return l.BestOdds != nil && l.BestOdds.Decimal > 0
}

// Book returns the book that offered the leg's price, or "" when unpriced
func (l Leg) Book() string {
	if l.BestOdds == nil {
		return ""
	}
	return l.BestOdds.Book
}

// WithOdds returns a copy of the leg carrying the given price
func (l Leg) WithOdds(odds MoneylineOdds) Leg {
	l.BestOdds = &odds
	return l
}

// Validate checks the leg's model probability
func (l Leg) Validate() error {
	if l.ModelWinProb <= 0 || l.ModelWinProb >= 1 {
		return fmt.Errorf("%s: %w", l.TeamAbbr, ErrInvalidProbability)
	}
	return nil
}

// ConflictsWith reports whether two legs cannot share a ticket
func (l Leg) ConflictsWith(other Leg) bool {
	if l.TeamAbbr == other.TeamAbbr {
		return true
	}
	return l.GameID != "" && l.GameID == other.GameID
}
