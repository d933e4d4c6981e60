package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  logrus.Level
	}{
		{name: "debug", level: "debug", want: logrus.DebugLevel},
		{name: "warn", level: "warn", want: logrus.WarnLevel},
		{name: "invalid falls back to info", level: "verbose", want: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := NewLoggerWithOutput(tt.level, &bytes.Buffer{})
			assert.Equal(t, tt.want, log.GetLevel())
		})
	}
}

func TestNewLoggerProductionUsesJSON(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	buf := &bytes.Buffer{}

	log := NewLoggerWithOutput("info", buf)
	log.Info("hello")

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "hello", entry["msg"])
}

func TestPipelineLoggerSelection(t *testing.T) {
	log, buf := setupTestLogger()
	pipelineLogger := NewPipelineLogger(log).WithRun("run-1")

	pipelineLogger.LogSelection(8, 3.25, 12.5)

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "pipeline", entry["component"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, float64(8), entry["selected"])
	assert.Equal(t, 3.25, entry["total_ev"])
	assert.Equal(t, "Portfolio selected", entry["msg"])
}

func TestPipelineLoggerBeamSearch(t *testing.T) {
	log, buf := setupTestLogger()

	NewPipelineLogger(log).LogBeamSearch(20, map[int]int{3: 50, 4: 50}, 4.2)

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, float64(20), entry["pool_size"])
	assert.Equal(t, map[string]interface{}{"3": float64(50), "4": float64(50)}, entry["candidates_by_size"])
}

func TestPipelineLoggerAllocation(t *testing.T) {
	log, buf := setupTestLogger()

	NewPipelineLogger(log).LogAllocation("kelly_norm", 100, 99.99, 6)

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "kelly_norm", entry["method"])
	assert.Equal(t, 99.99, entry["staked"])
}

func TestPipelineLoggerSimulation(t *testing.T) {
	log, buf := setupTestLogger()

	NewPipelineLogger(log).LogSimulation(50000, 4.2, -60, 120, 35)

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, float64(50000), entry["trials"])
	assert.Equal(t, float64(-60), entry["p05"])
}

func TestOddsLoggerMissingOdds(t *testing.T) {
	log, buf := setupTestLogger()

	NewOddsLogger(log).LogMissingOdds([]string{"JAX", "NYJ"})

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "odds", entry["component"])
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, float64(2), entry["count"])
}

func TestOddsLoggerFetchError(t *testing.T) {
	log, buf := setupTestLogger()

	NewOddsLogger(log).LogFetchError(errors.New("429 too many requests"))

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "429 too many requests", entry["error"])
}

func BenchmarkPipelineLoggerSelection(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	pipelineLogger := NewPipelineLogger(log)

	for i := 0; i < b.N; i++ {
		pipelineLogger.LogSelection(8, 3.25, 12.5)
	}
}
