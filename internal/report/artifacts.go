package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yourusername/ev-parlay/internal/models"
)

// Artifact file names written to the output directory
const (
	ParlaysFile  = "parlays.csv"
	ExposureFile = "exposure.csv"
	SummaryFile  = "summary.json"
)

var parlayHeader = []string{"size", "legs", "decimal_odds", "probability", "EV_dollars", "flat_stake", "kelly_stake"}

// ErrMissingColumn is returned when a parlays file lacks a required column
var ErrMissingColumn = errors.New("missing column")

// Summary describes a ticket slate
type Summary struct {
	Count                int                `json:"count"`
	AvgSize              float64            `json:"avg_size"`
	TotalEV              float64            `json:"total_ev"`
	DiversificationScore float64            `json:"diversification_score"`
	Exposure             map[string]float64 `json:"exposure"`
}

// Summarize computes team exposure and slate totals. Exposure is the share of
// tickets that include the team; the diversification score is the sum of
// squared exposures, lower meaning more spread.
func Summarize(tickets []models.Ticket) Summary {
	counts := make(map[string]int)
	sizes := 0
	totalEV := 0.0
	for _, t := range tickets {
		for _, team := range t.Teams() {
			counts[team]++
		}
		sizes += t.Size
		totalEV += t.ExpectedValue
	}

	denom := float64(len(tickets))
	if denom == 0 {
		denom = 1
	}
	exposure := make(map[string]float64, len(counts))
	score := 0.0
	for team, n := range counts {
		e := float64(n) / denom
		exposure[team] = e
		score += e * e
	}

	s := Summary{
		Count:                len(tickets),
		TotalEV:              totalEV,
		DiversificationScore: score,
		Exposure:             exposure,
	}
	if len(tickets) > 0 {
		s.AvgSize = float64(sizes) / float64(len(tickets))
	}
	return s
}

// WriteArtifacts writes parlays.csv, exposure.csv and summary.json to outdir
func WriteArtifacts(outdir string, tickets []models.Ticket) (Summary, error) {
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create output dir: %w", err)
	}
	summary := Summarize(tickets)

	if err := writeCSV(filepath.Join(outdir, ParlaysFile), parlayRows(tickets)); err != nil {
		return Summary{}, err
	}
	if err := writeCSV(filepath.Join(outdir, ExposureFile), exposureRows(summary.Exposure)); err != nil {
		return Summary{}, err
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return Summary{}, fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outdir, SummaryFile), data, 0o644); err != nil {
		return Summary{}, fmt.Errorf("write summary: %w", err)
	}
	return summary, nil
}

func parlayRows(tickets []models.Ticket) [][]string {
	rows := [][]string{parlayHeader}
	for _, t := range tickets {
		rows = append(rows, []string{
			strconv.Itoa(t.Size),
			strings.Join(t.Teams(), ","),
			rounded(t.CombinedDecimal, 4),
			rounded(t.CombinedProbability, 6),
			rounded(t.ExpectedValue, 2),
			rounded(t.FlatStake, 2),
			rounded(t.KellyStake, 2),
		})
	}
	return rows
}

func exposureRows(exposure map[string]float64) [][]string {
	teams := make([]string, 0, len(exposure))
	for team := range exposure {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	rows := [][]string{{"team", "exposure"}}
	for _, team := range teams {
		rows = append(rows, []string{team, strconv.FormatFloat(exposure[team], 'f', -1, 64)})
	}
	return rows
}

func rounded(v float64, places int32) string {
	return decimal.NewFromFloat(v).Round(places).String()
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// ReadTicketsCSV loads tickets from a parlays.csv file. Loaded tickets carry
// their team list in Books rather than full legs.
func ReadTicketsCSV(path string) ([]models.Ticket, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parlays file: %w", err)
	}
	defer f.Close()
	return ReadTickets(f)
}

// ReadTickets parses parlays.csv content
func ReadTickets(r io.Reader) ([]models.Ticket, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read parlays csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range parlayHeader {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	tickets := make([]models.Ticket, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		size, err := strconv.Atoi(rec[col["size"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: size: %w", line, err)
		}
		nums := make(map[string]float64, 5)
		for _, name := range parlayHeader[2:] {
			v, err := strconv.ParseFloat(rec[col[name]], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, name, err)
			}
			nums[name] = v
		}
		books := make(map[string]string)
		for _, team := range strings.Split(rec[col["legs"]], ",") {
			if team = strings.TrimSpace(team); team != "" {
				books[team] = ""
			}
		}
		tickets = append(tickets, models.Ticket{
			Size:                size,
			CombinedDecimal:     nums["decimal_odds"],
			CombinedProbability: nums["probability"],
			ExpectedValue:       nums["EV_dollars"],
			FlatStake:           nums["flat_stake"],
			KellyStake:          nums["kelly_stake"],
			Books:               books,
		})
	}
	return tickets, nil
}

// WriteSamplesCSV writes one simulated slate profit per row
func WriteSamplesCSV(path string, profits []float64) error {
	rows := make([][]string, 0, len(profits)+1)
	rows = append(rows, []string{"profit"})
	for _, p := range profits {
		rows = append(rows, []string{strconv.FormatFloat(p, 'f', -1, 64)})
	}
	return writeCSV(path, rows)
}
