package timeutil

import (
	"time"
)

// Madrid is the shop's local time zone (CET/CEST)
var Madrid *time.Location

func init() {
	var err error
	Madrid, err = time.LoadLocation("Europe/Madrid")
	if err != nil {
		// Fallback: create fixed zone if Europe/Madrid not available
		Madrid = time.FixedZone("CET", 1*60*60) // UTC+1
	}
}

// Now returns the current time in the shop's time zone
func Now() time.Time {
	return time.Now().In(Madrid)
}

// ToLocal converts any time to the shop's time zone
func ToLocal(t time.Time) time.Time {
	return t.In(Madrid)
}

// StartOfDay returns the start of day (00:00:00) for the given time
func StartOfDay(t time.Time) time.Time {
	l := t.In(Madrid)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, Madrid)
}

// Common layouts
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02/01/2006 15:04"
)
