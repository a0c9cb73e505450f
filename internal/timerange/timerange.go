// Package timerange buckets timestamps and durations into the reporting
// categories used by statistics.
package timerange

import (
	"time"
)

const DateLayout = "2006-01-02"

// DurationBucket identifies a focus duration class.
type DurationBucket int

const (
	DurationUnder15 DurationBucket = iota
	Duration15To30
	Duration30To60
	Duration60To120
	Duration120Plus
)

// DurationBuckets lists buckets in display order.
var DurationBuckets = []DurationBucket{DurationUnder15, Duration15To30, Duration30To60, Duration60To120, Duration120Plus}

func (b DurationBucket) String() string {
	switch b {
	case DurationUnder15:
		return "0-15min"
	case Duration15To30:
		return "15-30min"
	case Duration30To60:
		return "30-60min"
	case Duration60To120:
		return "1-2h"
	default:
		return "2h+"
	}
}

// BucketDuration classifies by whole minutes: [0,15) [15,30) [30,60) [60,120) [120,∞).
func BucketDuration(minutes int) DurationBucket {
	switch {
	case minutes < 15:
		return DurationUnder15
	case minutes < 30:
		return Duration15To30
	case minutes < 60:
		return Duration30To60
	case minutes < 120:
		return Duration60To120
	default:
		return Duration120Plus
	}
}

// Weekday is Monday=0 .. Sunday=6.
type Weekday int

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (w Weekday) String() string {
	if w < 0 || int(w) >= len(weekdayNames) {
		return "Unknown"
	}
	return weekdayNames[w]
}

// ISOWeekday returns the Monday-based weekday of t in loc.
func ISOWeekday(t time.Time, loc *time.Location) Weekday {
	return Weekday((int(inLoc(t, loc).Weekday()) + 6) % 7)
}

// DayPeriod is a six-hour slice of the day.
type DayPeriod int

const (
	PeriodNight     DayPeriod = iota // 00-06
	PeriodMorning                    // 06-12
	PeriodAfternoon                  // 12-18
	PeriodEvening                    // 18-24
)

var DayPeriods = []DayPeriod{PeriodNight, PeriodMorning, PeriodAfternoon, PeriodEvening}

func (p DayPeriod) String() string {
	switch p {
	case PeriodNight:
		return "night"
	case PeriodMorning:
		return "morning"
	case PeriodAfternoon:
		return "afternoon"
	default:
		return "evening"
	}
}

// Label returns the period with its clock range, e.g. "morning(06:00-12:00)".
func (p DayPeriod) Label() string {
	switch p {
	case PeriodNight:
		return "night(00:00-06:00)"
	case PeriodMorning:
		return "morning(06:00-12:00)"
	case PeriodAfternoon:
		return "afternoon(12:00-18:00)"
	default:
		return "evening(18:00-24:00)"
	}
}

// PeriodOf buckets the local hour of t.
func PeriodOf(t time.Time, loc *time.Location) DayPeriod {
	return DayPeriod(inLoc(t, loc).Hour() / 6)
}

// DateOf returns the calendar date of t in loc as YYYY-MM-DD.
func DateOf(t time.Time, loc *time.Location) string {
	return inLoc(t, loc).Format(DateLayout)
}

// ParseDate parses YYYY-MM-DD at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// AddDays shifts a YYYY-MM-DD date by n calendar days.
func AddDays(date string, n int) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

func inLoc(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}
