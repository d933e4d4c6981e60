// Package teams maps NFL team names, nicknames and abbreviations to a
// canonical full name and primary abbreviation.
package teams

import "strings"

// canonical full name to primary abbreviation
var abbreviations = map[string]string{
	"Arizona Cardinals":     "ARI",
	"Seattle Seahawks":      "SEA",
	"Los Angeles Rams":      "LAR",
	"San Francisco 49ers":   "SF",
	"Atlanta Falcons":       "ATL",
	"Carolina Panthers":     "CAR",
	"New Orleans Saints":    "NO",
	"Tampa Bay Buccaneers":  "TB",
	"Chicago Bears":         "CHI",
	"Detroit Lions":         "DET",
	"Green Bay Packers":     "GB",
	"Minnesota Vikings":     "MIN",
	"Dallas Cowboys":        "DAL",
	"New York Giants":       "NYG",
	"Philadelphia Eagles":   "PHI",
	"Washington Commanders": "WAS",
	"Denver Broncos":        "DEN",
	"Kansas City Chiefs":    "KC",
	"Los Angeles Chargers":  "LAC",
	"Las Vegas Raiders":     "LV",
	"Houston Texans":        "HOU",
	"Indianapolis Colts":    "IND",
	"Jacksonville Jaguars":  "JAX",
	"Tennessee Titans":      "TEN",
	"Baltimore Ravens":      "BAL",
	"Cincinnati Bengals":    "CIN",
	"Cleveland Browns":      "CLE",
	"Pittsburgh Steelers":   "PIT",
	"Buffalo Bills":         "BUF",
	"Miami Dolphins":        "MIA",
	"New England Patriots":  "NE",
	"New York Jets":         "NYJ",
}

// alias or abbreviation to canonical full name
var aliases = map[string]string{
	"ARI":          "Arizona Cardinals",
	"ARZ":          "Arizona Cardinals",
	"Cardinals":    "Arizona Cardinals",
	"Arizona":      "Arizona Cardinals",
	"SEA":          "Seattle Seahawks",
	"Seahawks":     "Seattle Seahawks",
	"Seattle":      "Seattle Seahawks",
	"LAR":          "Los Angeles Rams",
	"Rams":         "Los Angeles Rams",
	"LA Rams":      "Los Angeles Rams",
	"SF":           "San Francisco 49ers",
	"SFO":          "San Francisco 49ers",
	"49ers":        "San Francisco 49ers",
	"Niners":       "San Francisco 49ers",
	"ATL":          "Atlanta Falcons",
	"Falcons":      "Atlanta Falcons",
	"Atlanta":      "Atlanta Falcons",
	"CAR":          "Carolina Panthers",
	"Panthers":     "Carolina Panthers",
	"Carolina":     "Carolina Panthers",
	"NO":           "New Orleans Saints",
	"NOS":          "New Orleans Saints",
	"Saints":       "New Orleans Saints",
	"TB":           "Tampa Bay Buccaneers",
	"TBB":          "Tampa Bay Buccaneers",
	"Buccaneers":   "Tampa Bay Buccaneers",
	"Bucs":         "Tampa Bay Buccaneers",
	"CHI":          "Chicago Bears",
	"Bears":        "Chicago Bears",
	"Chicago":      "Chicago Bears",
	"DET":          "Detroit Lions",
	"Lions":        "Detroit Lions",
	"Detroit":      "Detroit Lions",
	"GB":           "Green Bay Packers",
	"Packers":      "Green Bay Packers",
	"Green Bay":    "Green Bay Packers",
	"MIN":          "Minnesota Vikings",
	"Vikings":      "Minnesota Vikings",
	"Minnesota":    "Minnesota Vikings",
	"DAL":          "Dallas Cowboys",
	"Cowboys":      "Dallas Cowboys",
	"Dallas":       "Dallas Cowboys",
	"NYG":          "New York Giants",
	"Giants":       "New York Giants",
	"NY Giants":    "New York Giants",
	"PHI":          "Philadelphia Eagles",
	"Eagles":       "Philadelphia Eagles",
	"Philadelphia": "Philadelphia Eagles",
	"WAS":          "Washington Commanders",
	"Commanders":   "Washington Commanders",
	"Washington":   "Washington Commanders",
	"DEN":          "Denver Broncos",
	"Broncos":      "Denver Broncos",
	"Denver":       "Denver Broncos",
	"KC":           "Kansas City Chiefs",
	"Chiefs":       "Kansas City Chiefs",
	"Kansas City":  "Kansas City Chiefs",
	"LAC":          "Los Angeles Chargers",
	"Chargers":     "Los Angeles Chargers",
	"LA Chargers":  "Los Angeles Chargers",
	"LV":           "Las Vegas Raiders",
	"LVR":          "Las Vegas Raiders",
	"Raiders":      "Las Vegas Raiders",
	"HOU":          "Houston Texans",
	"Texans":       "Houston Texans",
	"Houston":      "Houston Texans",
	"IND":          "Indianapolis Colts",
	"Colts":        "Indianapolis Colts",
	"Indianapolis": "Indianapolis Colts",
	"JAX":          "Jacksonville Jaguars",
	"JAC":          "Jacksonville Jaguars",
	"Jaguars":      "Jacksonville Jaguars",
	"Jacksonville": "Jacksonville Jaguars",
	"TEN":          "Tennessee Titans",
	"Titans":       "Tennessee Titans",
	"Tennessee":    "Tennessee Titans",
	"BAL":          "Baltimore Ravens",
	"Ravens":       "Baltimore Ravens",
	"Baltimore":    "Baltimore Ravens",
	"CIN":          "Cincinnati Bengals",
	"Bengals":      "Cincinnati Bengals",
	"Cincinnati":   "Cincinnati Bengals",
	"CLE":          "Cleveland Browns",
	"Browns":       "Cleveland Browns",
	"Cleveland":    "Cleveland Browns",
	"PIT":          "Pittsburgh Steelers",
	"Steelers":     "Pittsburgh Steelers",
	"Pittsburgh":   "Pittsburgh Steelers",
	"BUF":          "Buffalo Bills",
	"Bills":        "Buffalo Bills",
	"Buffalo":      "Buffalo Bills",
	"MIA":          "Miami Dolphins",
	"Dolphins":     "Miami Dolphins",
	"Miami":        "Miami Dolphins",
	"NE":           "New England Patriots",
	"Patriots":     "New England Patriots",
	"New England":  "New England Patriots",
	"NYJ":          "New York Jets",
	"Jets":         "New York Jets",
	"NY Jets":      "New York Jets",
}

var folded = func() map[string]string {
	m := make(map[string]string, len(aliases)+len(abbreviations))
	for alias, full := range aliases {
		m[strings.ToLower(alias)] = full
	}
	for full := range abbreviations {
		m[strings.ToLower(full)] = full
	}
	return m
}()

// Normalize returns the canonical full name for a team name, nickname or
// abbreviation. Matching ignores case and surrounding space.
func Normalize(name string) (string, bool) {
	key := strings.TrimSpace(name)
	if _, ok := abbreviations[key]; ok {
		return key, true
	}
	if full, ok := aliases[key]; ok {
		return full, true
	}
	full, ok := folded[strings.ToLower(key)]
	return full, ok
}

// Abbr returns the primary abbreviation of a canonical full name
func Abbr(full string) (string, bool) {
	a, ok := abbreviations[full]
	return a, ok
}

// Resolve normalizes name and returns its canonical name and abbreviation
func Resolve(name string) (full, abbr string, ok bool) {
	full, ok = Normalize(name)
	if !ok {
		return "", "", false
	}
	abbr, ok = Abbr(full)
	return full, abbr, ok
}

// All returns every canonical team name
func All() []string {
	out := make([]string, 0, len(abbreviations))
	for full := range abbreviations {
		out = append(out, full)
	}
	return out
}
