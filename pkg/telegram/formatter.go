package telegram

import (
	"fmt"
	"strings"
	"time"
)

// FormatRunSummaryMessage renders a completed algorithm run for the
// operations chat.
func FormatRunSummaryMessage(runDate time.Time, status string, signals, trades int, topMomentum []string) string {
	var b strings.Builder

	b.WriteString("*Daily Algorithm Run*\n")
	b.WriteString(fmt.Sprintf("Date: `%s`\n", runDate.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Status: *%s*\n", status))
	b.WriteString(fmt.Sprintf("Signals: %d | Trades: %d\n", signals, trades))

	if len(topMomentum) > 0 {
		n := len(topMomentum)
		if n > 10 {
			n = 10
		}
		b.WriteString(fmt.Sprintf("Top momentum: %s", strings.Join(topMomentum[:n], ", ")))
	}

	return b.String()
}

// FormatErrorAlertMessage renders a run failure alert.
func FormatErrorAlertMessage(at time.Time, message string) string {
	return fmt.Sprintf("*Trading Alert* `%s`\n%s", at.Format("2006-01-02 15:04:05"), message)
}
