package logger

import (
	"github.com/sirupsen/logrus"
)

// OddsLogger provides dedicated logging for odds retrieval.
type OddsLogger struct {
	*logrus.Entry
}

// NewOddsLogger creates a new odds logger.
func NewOddsLogger(baseLogger *logrus.Logger) *OddsLogger {
	return &OddsLogger{
		Entry: baseLogger.WithField("component", "odds"),
	}
}

// LogOddsFetch logs an odds load and where it came from.
func (ol *OddsLogger) LogOddsFetch(source string, events int, latencyMs float64) {
	ol.WithFields(logrus.Fields{
		"source":     source,
		"events":     events,
		"latency_ms": latencyMs,
	}).Info("Odds loaded")
}

// LogCacheWrite logs a refreshed cache file.
func (ol *OddsLogger) LogCacheWrite(path string, bytes int) {
	ol.WithFields(logrus.Fields{
		"path":  path,
		"bytes": bytes,
	}).Info("Saved odds cache")
}

// LogMissingOdds logs teams without a price at any allowed book.
func (ol *OddsLogger) LogMissingOdds(teams []string) {
	ol.WithFields(logrus.Fields{
		"teams": teams,
		"count": len(teams),
	}).Warn("No odds found for teams")
}

// LogFetchError logs a failed odds request.
func (ol *OddsLogger) LogFetchError(err error) {
	ol.WithError(err).Error("Odds fetch failed")
}
