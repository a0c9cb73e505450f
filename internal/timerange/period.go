package timerange

import (
	"fmt"
	"strings"
	"time"
)

// Period selects how far back statistics reach.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// ParsePeriod accepts day, week, month, all; empty means all.
func ParsePeriod(raw string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PeriodAll, nil
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodAll:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period %q", raw)
	}
}

// Days is the window length including today; 0 means unbounded.
func (p Period) Days() int {
	switch p {
	case PeriodDay:
		return 1
	case PeriodWeek:
		return 7
	case PeriodMonth:
		return 30
	default:
		return 0
	}
}

// Floor returns the first date included for now, or "" for unbounded periods.
func (p Period) Floor(now time.Time, loc *time.Location) string {
	days := p.Days()
	if days == 0 {
		return ""
	}
	return DateOf(inLoc(now, loc).AddDate(0, 0, -(days-1)), nil)
}
