package utils

import (
	"os"
	"time"
)

// DateLocation is the application's timezone
var DateLocation *time.Location

// InitializeDateLocation sets up the application's timezone. Delivery dates
// are date-only values, so every comparison has to happen in one zone.
func InitializeDateLocation() error {
	timezone := os.Getenv("APP_TIMEZONE")
	if timezone == "" {
		timezone = "Asia/Ho_Chi_Minh" // fallback default
	}

	var err error
	DateLocation, err = time.LoadLocation(timezone)
	return err
}

// NormalizeDate converts a time.Time to a normalized date at midnight in the application timezone
func NormalizeDate(t time.Time) time.Time {
	year, month, day := t.In(DateLocation).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, DateLocation)
}

// Today returns today's date normalized at midnight in the application timezone
func Today() time.Time {
	return NormalizeDate(time.Now())
}

// AreDatesEqual compares two dates, normalizing them first
func AreDatesEqual(date1, date2 time.Time) bool {
	return NormalizeDate(date1).Equal(NormalizeDate(date2))
}
