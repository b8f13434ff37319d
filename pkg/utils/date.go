package utils

import (
	"log"
	"time"
)

// MarketLocation returns the America/New_York location.
func MarketLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		log.Fatal("Failed to load location", err)
	}
	return loc
}

// TimeNowNY returns the current time in the US market timezone.
func TimeNowNY() time.Time {
	return time.Now().In(MarketLocation())
}

// IsMarketOpen reports whether t falls within regular US equity trading
// hours (9:30-16:00 ET, Mon-Fri). Exchange holidays are not checked.
func IsMarketOpen(t time.Time) bool {
	t = t.In(MarketLocation())
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}

	open := time.Date(t.Year(), t.Month(), t.Day(), 9, 30, 0, 0, t.Location())
	close := time.Date(t.Year(), t.Month(), t.Day(), 16, 0, 0, 0, t.Location())

	return !t.Before(open) && !t.After(close)
}

// ParseRunDate parses a YYYY-MM-DD run date in the market timezone.
func ParseRunDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, MarketLocation())
}

// FormatRunDate renders a run date as YYYY-MM-DD.
func FormatRunDate(t time.Time) string {
	return t.Format("2006-01-02")
}
