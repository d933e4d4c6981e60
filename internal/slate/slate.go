// Package slate places model selections into the current odds slate.
package slate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yourusername/ev-parlay/internal/evmath"
	"github.com/yourusername/ev-parlay/internal/models"
	"github.com/yourusername/ev-parlay/internal/oddsapi"
)

// ErrTeamsNotInSlate is returned when selected teams have no game in the slate
var ErrTeamsNotInSlate = errors.New("teams not in slate")

// MissingTeamsError lists the selected teams with no game in the slate
type MissingTeamsError struct {
	Teams []string
}

func (e *MissingTeamsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrTeamsNotInSlate, strings.Join(e.Teams, ", "))
}

func (e *MissingTeamsError) Unwrap() error {
	return ErrTeamsNotInSlate
}

// Resolve assigns each selection its game and opponent. When both sides of a
// game are selected, the side with the higher model probability is kept.
func Resolve(selections []models.Leg, index map[string]oddsapi.GameRef) ([]models.Leg, error) {
	var (
		missing []string
		order   []string
	)
	best := make(map[string]models.Leg)
	for _, sel := range selections {
		ref, ok := index[sel.TeamAbbr]
		if !ok {
			missing = append(missing, sel.TeamAbbr)
			continue
		}
		sel.GameID = ref.GameID
		sel.OpponentName = ref.OpponentName
		sel.OpponentAbbr = ref.OpponentAbbr

		current, seen := best[ref.GameID]
		if !seen {
			order = append(order, ref.GameID)
			best[ref.GameID] = sel
			continue
		}
		if sel.ModelWinProb > current.ModelWinProb {
			best[ref.GameID] = sel
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingTeamsError{Teams: missing}
	}

	legs := make([]models.Leg, 0, len(order))
	for _, gameID := range order {
		legs = append(legs, best[gameID])
	}
	return legs, nil
}

// AttachOdds prices each leg at its best allowed book, evaluates it and keeps
// the legs whose edge reaches minEdge. Teams with no price anywhere are
// returned separately and left out of the result.
func AttachOdds(legs []models.Leg, events []oddsapi.Event, books []string, market string, minEdge float64) ([]models.Leg, []string) {
	var (
		quoted  []models.Leg
		missing []string
	)
	for _, leg := range legs {
		name := leg.TeamName
		if name == "" {
			name = leg.TeamAbbr
		}
		odds, ok := oddsapi.BestMoneyline(name, events, books, market)
		if !ok {
			missing = append(missing, leg.TeamAbbr)
			continue
		}
		quoted = append(quoted, leg.WithOdds(odds))
	}

	var priced []models.Leg
	for _, leg := range evmath.EvaluateAll(quoted) {
		if leg.Edge < minEdge {
			continue
		}
		priced = append(priced, leg)
	}
	return priced, missing
}
