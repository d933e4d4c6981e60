// Package oddsapi fetches moneyline odds from The Odds API, caches them, and
// indexes the slate by team.
package oddsapi

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"
)

// Event is one game in an odds payload
type Event struct {
	ID           string      `json:"id"`
	EventID      string      `json:"event_id,omitempty"`
	SportKey     string      `json:"sport_key,omitempty"`
	CommenceTime *time.Time  `json:"commence_time,omitempty"`
	HomeTeam     string      `json:"home_team,omitempty"`
	AwayTeam     string      `json:"away_team,omitempty"`
	HomeTeamAlt  string      `json:"homeTeam,omitempty"`
	AwayTeamAlt  string      `json:"awayTeam,omitempty"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Bookmaker is one book's markets for an event
type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title,omitempty"`
	Markets []Market `json:"markets"`
}

// Market is a book's market, e.g. h2h
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome is a priced side of a market. Price is an American price.
type Outcome struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price"`
}

// GameID returns the event identifier
func (e Event) GameID() string {
	if e.ID != "" {
		return e.ID
	}
	return e.EventID
}

// Teams returns the home and away team names when both are present
func (e Event) Teams() (home, away string, ok bool) {
	home = firstNonEmpty(e.HomeTeam, e.HomeTeamAlt)
	away = firstNonEmpty(e.AwayTeam, e.AwayTeamAlt)
	return home, away, home != "" && away != ""
}

// American returns the outcome price as an integer American price
func (o Outcome) American() (int, bool) {
	if o.Price == nil || math.IsNaN(*o.Price) || math.IsInf(*o.Price, 0) {
		return 0, false
	}
	price := int(math.Round(*o.Price))
	if price == 0 {
		return 0, false
	}
	return price, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Decode parses a JSON odds payload
func Decode(data []byte) ([]Event, error) {
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decode odds payload: %w", err)
	}
	return events, nil
}

// LoadFile reads a saved odds payload
func LoadFile(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read odds file: %w", err)
	}
	return Decode(data)
}
