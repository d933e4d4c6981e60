package logger

import (
	"github.com/sirupsen/logrus"
)

// PipelineLogger provides dedicated logging for portfolio builds.
type PipelineLogger struct {
	*logrus.Entry
}

// NewPipelineLogger creates a new pipeline logger.
func NewPipelineLogger(baseLogger *logrus.Logger) *PipelineLogger {
	return &PipelineLogger{
		Entry: baseLogger.WithField("component", "pipeline"),
	}
}

// WithRun returns a logger tagged with a build run id.
func (pl *PipelineLogger) WithRun(runID string) *PipelineLogger {
	return &PipelineLogger{Entry: pl.WithField("run_id", runID)}
}

// LogLegsEvaluated logs leg evaluation results.
func (pl *PipelineLogger) LogLegsEvaluated(total, priced, missingOdds int) {
	pl.WithFields(logrus.Fields{
		"legs_total":   total,
		"legs_priced":  priced,
		"missing_odds": missingOdds,
	}).Info("Legs evaluated")
}

// LogBeamSearch logs candidate generation.
func (pl *PipelineLogger) LogBeamSearch(poolSize int, candidatesBySize map[int]int, durationMs float64) {
	pl.WithFields(logrus.Fields{
		"pool_size":          poolSize,
		"candidates_by_size": candidatesBySize,
		"duration_ms":        durationMs,
	}).Info("Beam search completed")
}

// LogSelection logs the portfolio chosen by the integer program.
func (pl *PipelineLogger) LogSelection(selected int, totalEV float64, durationMs float64) {
	pl.WithFields(logrus.Fields{
		"selected":    selected,
		"total_ev":    totalEV,
		"duration_ms": durationMs,
	}).Info("Portfolio selected")
}

// LogMinEVFilter logs tickets removed by the minimum EV filter.
func (pl *PipelineLogger) LogMinEVFilter(minEV float64, before, after int) {
	pl.WithFields(logrus.Fields{
		"min_parlay_ev":  minEV,
		"tickets_before": before,
		"tickets_after":  after,
	}).Debug("Minimum EV filter applied")
}

// LogAllocation logs a budget allocation.
func (pl *PipelineLogger) LogAllocation(method string, budget, staked float64, tickets int) {
	pl.WithFields(logrus.Fields{
		"method":  method,
		"budget":  budget,
		"staked":  staked,
		"tickets": tickets,
	}).Info("Budget allocated")
}

// LogSimulation logs Monte Carlo summary statistics.
func (pl *PipelineLogger) LogSimulation(trials int, mean, p05, p95 float64, durationMs float64) {
	pl.WithFields(logrus.Fields{
		"trials":      trials,
		"mean":        mean,
		"p05":         p05,
		"p95":         p95,
		"duration_ms": durationMs,
	}).Info("Simulation completed")
}
