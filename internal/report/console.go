// Package report renders build results to the console and writes the run
// artifacts.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/yourusername/ev-parlay/internal/evmath"
	"github.com/yourusername/ev-parlay/internal/models"
)

// PrintSingles renders the positive-EV priced legs
func PrintSingles(out io.Writer, legs []models.Leg) {
	fmt.Fprintln(out, "\nSingles (+EV)")
	table := tablewriter.NewWriter(out)
	table.Header("Team", "Edge %", "Market Imp %", "Model %", "Price (dec)", "EV $")
	for _, leg := range legs {
		if !leg.HasPrice() || leg.ExpectedValue <= 0 {
			continue
		}
		table.Append(
			leg.TeamAbbr,
			fmt.Sprintf("%.1f", leg.Edge*100),
			fmt.Sprintf("%.1f", leg.ImpliedProb*100),
			fmt.Sprintf("%.1f", leg.ModelWinProb*100),
			fmt.Sprintf("%.2f", leg.BestOdds.Decimal),
			fmt.Sprintf("%.2f", leg.ExpectedValue),
		)
	}
	table.Render()
}

// PrintParlays renders the ticket slate
func PrintParlays(out io.Writer, tickets []models.Ticket) {
	fmt.Fprintln(out, "\nParlays")
	table := tablewriter.NewWriter(out)
	table.Header("Size", "Teams", "Dec", "US", "Prob %", "EV $", "Flat", "Kelly")
	for _, t := range tickets {
		table.Append(
			fmt.Sprintf("%d", t.Size),
			strings.Join(t.Teams(), ","),
			fmt.Sprintf("%.2f", t.CombinedDecimal),
			formatAmerican(t.CombinedDecimal),
			fmt.Sprintf("%.1f", t.CombinedProbability*100),
			fmt.Sprintf("%.2f", t.ExpectedValue),
			fmt.Sprintf("%.2f", t.FlatStake),
			fmt.Sprintf("%.2f", t.KellyStake),
		)
	}
	table.Render()
}

// PrintSummary writes the one-line slate summary
func PrintSummary(out io.Writer, s Summary) {
	fmt.Fprintf(out, "\n%d tickets | avg size %.2f | total EV $%.2f | diversification %.3f\n",
		s.Count, s.AvgSize, s.TotalEV, s.DiversificationScore)
}

// PrintSimulation renders simulation statistics
func PrintSimulation(out io.Writer, r models.SimulationResult) {
	table := tablewriter.NewWriter(out)
	table.Header("Trials", "Mean", "Median", "P05", "P95", "E[Profit]", "P(Profit)")
	table.Append(
		fmt.Sprintf("%d", r.Trials),
		fmt.Sprintf("%.2f", r.Mean),
		fmt.Sprintf("%.2f", r.Median),
		fmt.Sprintf("%.2f", r.P05),
		fmt.Sprintf("%.2f", r.P95),
		fmt.Sprintf("%.2f", r.ExpectedProfit),
		fmt.Sprintf("%.1f%%", r.ProbabilityOfProfit*100),
	)
	table.Render()
}

// formatAmerican renders decimal odds as a signed American price
func formatAmerican(dec float64) string {
	american, err := evmath.DecimalToAmerican(dec)
	if err != nil {
		return "-"
	}
	if american > 0 {
		return "+" + strconv.Itoa(american)
	}
	return strconv.Itoa(american)
}
