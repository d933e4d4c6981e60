// Package parser reads model win probabilities from the text format the
// model publishes, one team per line:
//
//	:Jaguars: JAX – 78.6% | Margin: 13.2
//
// The leading colon, the margin and the dash style are optional. Lines that
// do not match are ignored.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/yourusername/ev-parlay/internal/models"
	"github.com/yourusername/ev-parlay/internal/teams"
)

var lineRE = regexp.MustCompile(`(?i)^:?(?P<team>[^:]+):\s+(?P<abbr>[A-Z]{2,3})\s+[–-]\s+(?P<prob>[0-9]+\.?[0-9]*)%\s*(?:\|\s*Margin:\s*(?P<margin>-?[0-9]+\.?[0-9]*))?`)

// ParseFile parses a model file
func ParseFile(path string) ([]models.Leg, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// ParseText parses model output held in memory
func ParseText(text string) ([]models.Leg, error) {
	return Parse(strings.NewReader(text))
}

// Parse reads one leg per matching line. A probability outside (0%, 100%)
// is an error.
func Parse(r io.Reader) ([]models.Leg, error) {
	var legs []models.Leg
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		m := lineRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		name := strings.TrimSpace(m[lineRE.SubexpIndex("team")])
		code := strings.ToUpper(strings.TrimSpace(m[lineRE.SubexpIndex("abbr")]))
		pct, err := strconv.ParseFloat(m[lineRE.SubexpIndex("prob")], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse probability: %w", lineNo, err)
		}

		leg := models.Leg{
			TeamName:     name,
			TeamAbbr:     code,
			ModelWinProb: pct / 100.0,
		}
		if full, ok := teams.Normalize(code); ok {
			leg.TeamName = full
		} else if full, ok := teams.Normalize(name); ok {
			leg.TeamName = full
		}
		if abbr, ok := teams.Abbr(leg.TeamName); ok {
			leg.TeamAbbr = abbr
		}
		if raw := m[lineRE.SubexpIndex("margin")]; raw != "" {
			margin, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: parse margin: %w", lineNo, err)
			}
			leg.Margin = &margin
		}
		if err := leg.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		legs = append(legs, leg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return legs, nil
}
