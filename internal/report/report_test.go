package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ev-parlay/internal/models"
)

func ticket(ev, flat, kelly float64, teams ...string) models.Ticket {
	legs := make([]models.Leg, len(teams))
	for i, team := range teams {
		legs[i] = models.Leg{TeamAbbr: team, ModelWinProb: 0.6}
	}
	return models.Ticket{
		Size:                len(teams),
		Legs:                legs,
		CombinedDecimal:     6.25,
		CombinedProbability: 0.216,
		ExpectedValue:       ev,
		FlatStake:           flat,
		KellyStake:          kelly,
	}
}

func TestSummarize(t *testing.T) {
	tickets := []models.Ticket{
		ticket(0.35, 10, 12.5, "BUF", "KC", "PHI"),
		ticket(0.25, 10, 7.5, "BUF", "SF"),
	}

	s := Summarize(tickets)

	assert.Equal(t, 2, s.Count)
	assert.InDelta(t, 2.5, s.AvgSize, 1e-9)
	assert.InDelta(t, 0.6, s.TotalEV, 1e-9)
	assert.Equal(t, map[string]float64{"BUF": 1, "KC": 0.5, "PHI": 0.5, "SF": 0.5}, s.Exposure)
	assert.InDelta(t, 1.75, s.DiversificationScore, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)

	assert.Zero(t, s.Count)
	assert.Zero(t, s.AvgSize)
	assert.Empty(t, s.Exposure)
}

func TestWriteArtifactsRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	tickets := []models.Ticket{
		ticket(0.3456, 10, 12.345, "BUF", "KC", "PHI"),
		ticket(0.25, 10, 0, "SF", "DAL"),
	}

	summary, err := WriteArtifacts(dir, tickets)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Count)

	raw, err := os.ReadFile(filepath.Join(dir, ParlaysFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "size,legs,decimal_odds,probability,EV_dollars,flat_stake,kelly_stake", lines[0])
	assert.Equal(t, `3,"BUF,KC,PHI",6.25,0.216,0.35,10,12.35`, lines[1])

	exposure, err := os.ReadFile(filepath.Join(dir, ExposureFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(exposure), "team,exposure\nBUF,0.5\n"))

	var decoded Summary
	data, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, summary.Count, decoded.Count)
	assert.Len(t, decoded.Exposure, 5)

	loaded, err := ReadTicketsCSV(filepath.Join(dir, ParlaysFile))
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 3, loaded[0].Size)
	assert.Equal(t, []string{"BUF", "KC", "PHI"}, loaded[0].Teams())
	assert.InDelta(t, 12.35, loaded[0].KellyStake, 1e-9)
	assert.InDelta(t, 10, loaded[1].Stake(), 1e-9)
	assert.Equal(t, tickets[0].Signature(), loaded[0].Signature())
}

func TestReadTicketsMissingColumn(t *testing.T) {
	_, err := ReadTickets(strings.NewReader("size,legs\n3,\"BUF,KC,PHI\"\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadTicketsBadNumber(t *testing.T) {
	in := "size,legs,decimal_odds,probability,EV_dollars,flat_stake,kelly_stake\n3,\"A,B,C\",x,0.2,1,10,0\n"
	_, err := ReadTickets(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestWriteSamplesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.csv")

	require.NoError(t, WriteSamplesCSV(path, []float64{-20, 52.5}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "profit\n-20\n52.5\n", string(data))
}

func TestConsoleTables(t *testing.T) {
	var buf bytes.Buffer
	odds := models.MoneylineOdds{Book: "dk", American: 100, Decimal: 2, ImpliedProb: 0.5}
	legs := []models.Leg{
		{TeamAbbr: "BUF", ModelWinProb: 0.6, BestOdds: &odds, ImpliedProb: 0.5, Edge: 0.1, ExpectedValue: 0.2},
		{TeamAbbr: "NYJ", ModelWinProb: 0.4, BestOdds: &odds, ImpliedProb: 0.5, Edge: -0.1, ExpectedValue: -0.2},
	}

	PrintSingles(&buf, legs)
	PrintParlays(&buf, []models.Ticket{ticket(0.35, 10, 12.5, "BUF", "KC", "PHI")})
	PrintSummary(&buf, Summarize(nil))
	PrintSimulation(&buf, models.SimulationResult{Trials: 100, ProbabilityOfProfit: 0.25})

	out := buf.String()
	assert.Contains(t, out, "BUF")
	assert.NotContains(t, out, "NYJ")
	assert.Contains(t, out, "BUF,KC,PHI")
	assert.Contains(t, out, "+525")
	assert.Contains(t, out, "25.0%")
}

func TestFormatAmerican(t *testing.T) {
	tests := []struct {
		dec  float64
		want string
	}{
		{dec: 2.5, want: "+150"},
		{dec: 1.5, want: "-200"},
		{dec: 2.0, want: "+100"},
		{dec: 1.0, want: "-"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatAmerican(tt.dec), "decimal %.2f", tt.dec)
	}
}
