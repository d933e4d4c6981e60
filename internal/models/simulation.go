package models

// SimulationResult summarizes the profit distribution of a ticket slate
type SimulationResult struct {
	Trials              int     `json:"trials"`
	Mean                float64 `json:"mean"`
	Median              float64 `json:"median"`
	P05                 float64 `json:"p05"`
	P95                 float64 `json:"p95"`
	ExpectedProfit      float64 `json:"expected_profit"`
	ProbabilityOfProfit float64 `json:"probability_of_profit"`
}
