package metrics

import "strconv"

// RecordBuild records a finished build with its outcome.
func RecordBuild(outcome string, durationSeconds float64) {
	BuildsTotal.WithLabelValues(outcome).Inc()
	BuildDuration.Observe(durationSeconds)
}

// RecordTicket records one emitted ticket of the given size.
func RecordTicket(size int) {
	TicketsBuiltTotal.WithLabelValues(strconv.Itoa(size)).Inc()
}

// UpdateLastBuild sets the gauges describing the most recent build.
func UpdateLastBuild(ticketCount int, totalEV float64) {
	LastBuildTicketCount.Set(float64(ticketCount))
	LastBuildTotalEV.Set(totalEV)
}

// RecordOddsFetch records where an odds payload was loaded from.
func RecordOddsFetch(source string) {
	OddsFetchTotal.WithLabelValues(source).Inc()
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// RecordSimulationDuration records simulation duration.
func RecordSimulationDuration(durationSeconds float64) {
	SimulationDuration.Observe(durationSeconds)
}
