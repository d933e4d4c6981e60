package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Ticket is a multi-leg, all-or-nothing parlay
type Ticket struct {
	Size                int               `json:"size"`
	Legs                []Leg             `json:"legs"`
	CombinedDecimal     float64           `json:"combined_decimal"`
	CombinedProbability float64           `json:"combined_probability"`
	ExpectedValue       float64           `json:"expected_value"`
	FlatStake           float64           `json:"flat_stake"`
	KellyStake          float64           `json:"kelly_stake"`
	Books               map[string]string `json:"books"`
}

// Teams returns the team abbreviations in leg order. Tickets loaded from a
// report carry no legs, only the book map, so fall back to its sorted keys.
func (t Ticket) Teams() []string {
	if len(t.Legs) == 0 && len(t.Books) > 0 {
		teams := make([]string, 0, len(t.Books))
		for team := range t.Books {
			teams = append(teams, team)
		}
		sort.Strings(teams)
		return teams
	}
	teams := make([]string, len(t.Legs))
	for i, leg := range t.Legs {
		teams[i] = leg.TeamAbbr
	}
	return teams
}

// Signature identifies a ticket by its size and unordered team set
func (t Ticket) Signature() string {
	teams := t.Teams()
	sorted := append([]string(nil), teams...)
	sort.Strings(sorted)
	return strconv.Itoa(t.Size) + "|" + strings.Join(sorted, ",")
}

// Stake returns the stake used to settle the ticket: the risk-adjusted stake
// when positive, otherwise the flat stake
func (t Ticket) Stake() float64 {
	if t.KellyStake > 0 {
		return t.KellyStake
	}
	return t.FlatStake
}

// Validate checks the size and one-team/one-game invariants
func (t Ticket) Validate() error {
	if t.Size != len(t.Legs) {
		return fmt.Errorf("size %d with %d legs: %w", t.Size, len(t.Legs), ErrTicketSizeMismatch)
	}
	teams := make(map[string]struct{}, len(t.Legs))
	games := make(map[string]struct{}, len(t.Legs))
	for _, leg := range t.Legs {
		if _, ok := teams[leg.TeamAbbr]; ok {
			return fmt.Errorf("%s: %w", leg.TeamAbbr, ErrDuplicateTeam)
		}
		teams[leg.TeamAbbr] = struct{}{}
		if leg.GameID == "" {
			continue
		}
		if _, ok := games[leg.GameID]; ok {
			return fmt.Errorf("%s: %w", leg.GameID, ErrDuplicateGame)
		}
		games[leg.GameID] = struct{}{}
	}
	return nil
}

// DedupeBySignature keeps the first ticket for each signature
func DedupeBySignature(tickets []Ticket) []Ticket {
	seen := make(map[string]struct{}, len(tickets))
	unique := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		sig := t.Signature()
		if _, ok := seen[sig]; ok {
			continue
		}
		seen[sig] = struct{}{}
		unique = append(unique, t)
	}
	return unique
}

// SortByEV orders tickets by expected value, highest first. Equal EVs keep
// their relative order.
func SortByEV(tickets []Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].ExpectedValue > tickets[j].ExpectedValue
	})
}
