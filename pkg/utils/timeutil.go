package utils

import (
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// resultDateLayout is the date format used on exchange result calendars,
// e.g., "08 Sep 2025".
const resultDateLayout = "02 Jan 2006"

// NowIST returns the current time in IST.
func NowIST() time.Time {
	return time.Now().In(IST)
}

// ToIST converts a time.Time to IST.
func ToIST(t time.Time) time.Time {
	return t.In(IST)
}

// ParseResultDate parses a calendar date string like "08 Sep 2025" in IST.
func ParseResultDate(s string) (time.Time, error) {
	return time.ParseInLocation(resultDateLayout, s, IST)
}

// FormatResultDate formats a time.Time as an exchange calendar date string.
func FormatResultDate(t time.Time) string {
	return t.In(IST).Format(resultDateLayout)
}

// FormatDateTimeIST formats a time.Time to "2006-01-02 15:04:05 IST".
func FormatDateTimeIST(t time.Time) string {
	return t.In(IST).Format("2006-01-02 15:04:05 IST")
}
