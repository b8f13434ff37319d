package dto

import "fmt"

// DataUnavailableError marks a symbol whose price history is missing or too
// short. It excludes the symbol from the run and is never fatal.
type DataUnavailableError struct {
	Symbol string
	Reason string
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("market data unavailable for %s: %s", e.Symbol, e.Reason)
}

// ExecutionError marks a single order the broker rejected or failed. The
// remaining intents are still processed.
type ExecutionError struct {
	Symbol string
	Side   string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("order execution failed for %s %s: %v", e.Side, e.Symbol, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// RunAbortedError marks a systemic failure that prevents a consistent view
// of cash, positions or the universe. The whole run is recorded as an error
// and no trades are executed.
type RunAbortedError struct {
	Stage string
	Err   error
}

func (e *RunAbortedError) Error() string {
	return fmt.Sprintf("algorithm run aborted at %s: %v", e.Stage, e.Err)
}

func (e *RunAbortedError) Unwrap() error {
	return e.Err
}
