package oddsapi

import (
	"sort"
	"strings"

	"github.com/yourusername/ev-parlay/internal/evmath"
	"github.com/yourusername/ev-parlay/internal/models"
	"github.com/yourusername/ev-parlay/internal/teams"
)

// DefaultMarket is the moneyline market key
const DefaultMarket = "h2h"

var bookAliases = map[string]string{
	"dk":             "draftkings",
	"draftkings":     "draftkings",
	"fanduel":        "fanduel",
	"fd":             "fanduel",
	"betmgm":         "betmgm",
	"mgm":            "betmgm",
	"caesars":        "caesars",
	"williamhill_us": "caesars",
	"pointsbet":      "pointsbetus",
	"pointsbetus":    "pointsbetus",
	"barstool":       "espnbet",
	"espnbet":        "espnbet",
	"bet365":         "bet365",
}

// NormalizeBook maps a sportsbook key or nickname to its canonical key
func NormalizeBook(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if canonical, ok := bookAliases[k]; ok {
		return canonical
	}
	return k
}

// GameRef locates a team in the slate
type GameRef struct {
	GameID       string
	OpponentName string
	OpponentAbbr string
}

// BuildGameIndex maps team abbreviation to its game and opponent. Teams come
// from the event's home and away fields, falling back to the names in its
// h2h outcomes. Only events that resolve to exactly two known teams are
// indexed.
func BuildGameIndex(events []Event) map[string]GameRef {
	index := make(map[string]GameRef)
	for _, ev := range events {
		var names []string
		if home, away, ok := ev.Teams(); ok {
			names = []string{home, away}
		} else {
			names = outcomeTeams(ev)
		}

		type side struct{ full, abbr string }
		var sides []side
		for _, name := range names {
			full, abbr, ok := teams.Resolve(name)
			if !ok {
				continue
			}
			sides = append(sides, side{full, abbr})
		}
		if len(sides) != 2 || sides[0].abbr == sides[1].abbr {
			continue
		}
		a, b := sides[0], sides[1]
		index[a.abbr] = GameRef{GameID: ev.GameID(), OpponentName: b.full, OpponentAbbr: b.abbr}
		index[b.abbr] = GameRef{GameID: ev.GameID(), OpponentName: a.full, OpponentAbbr: a.abbr}
	}
	return index
}

func outcomeTeams(ev Event) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, bk := range ev.Bookmakers {
		for _, market := range bk.Markets {
			if market.Key != DefaultMarket {
				continue
			}
			for _, oc := range market.Outcomes {
				if oc.Name == "" {
					continue
				}
				if _, ok := seen[oc.Name]; ok {
					continue
				}
				seen[oc.Name] = struct{}{}
				names = append(names, oc.Name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// BestMoneyline returns the highest American price for team across the
// allowed books in market. An empty book list allows every book.
func BestMoneyline(team string, events []Event, books []string, market string) (models.MoneylineOdds, bool) {
	if market == "" {
		market = DefaultMarket
	}
	target, ok := teams.Normalize(team)
	if !ok {
		target = team
	}
	allowed := make(map[string]struct{}, len(books))
	for _, b := range books {
		allowed[NormalizeBook(b)] = struct{}{}
	}

	var (
		bestBook  string
		bestPrice int
		found     bool
	)
	for _, ev := range events {
		for _, bk := range ev.Bookmakers {
			key := NormalizeBook(bk.Key)
			if len(allowed) > 0 {
				if _, ok := allowed[key]; !ok {
					continue
				}
			}
			for _, m := range bk.Markets {
				if m.Key != market {
					continue
				}
				for _, oc := range m.Outcomes {
					if !sameTeam(oc.Name, target) {
						continue
					}
					price, ok := oc.American()
					if !ok {
						continue
					}
					if !found || price > bestPrice {
						bestBook, bestPrice, found = key, price, true
					}
				}
			}
		}
	}
	if !found {
		return models.MoneylineOdds{}, false
	}
	odds, err := evmath.NewMoneyline(bestBook, bestPrice)
	if err != nil {
		return models.MoneylineOdds{}, false
	}
	return odds, true
}

func sameTeam(name, target string) bool {
	if name == "" {
		return false
	}
	if name == target {
		return true
	}
	full, ok := teams.Normalize(name)
	return ok && full == target
}
