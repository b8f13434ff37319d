package dto

import "time"

// TriggerRunRequest is the manual trigger payload. An empty run_date means
// today in market time.
type TriggerRunRequest struct {
	RunDate string `json:"run_date"`
}

// RunTaskPayload is the message published to the run stream by the
// scheduler and by manual triggers.
type RunTaskPayload struct {
	RunDate string `json:"run_date"`
}

// RunSummary is the outcome of one algorithm run.
type RunSummary struct {
	RunDate           time.Time `json:"run_date"`
	Status            string    `json:"status"`
	SignalsGenerated  int       `json:"signals_generated"`
	TradesExecuted    int       `json:"trades_executed"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	TopMomentumStocks []string  `json:"top_momentum_stocks"`
	ExecutionTime     int       `json:"execution_time_seconds"`
}

// ErrorResponse is the generic API error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
