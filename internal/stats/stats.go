// Package stats turns rollup rows, test records and focus sessions into the
// report served by the statistics endpoint. Everything here is pure: callers
// load the rows, Build only reads them.
package stats

import (
	"math"
	"sort"
	"time"

	types "github.com/yungbote/discipline-backend/internal/domain"
	"github.com/yungbote/discipline-backend/internal/timerange"
)

// TrendDays caps the number of distinct session dates in the focus trend.
const TrendDays = 30

type Input struct {
	Period   timerange.Period
	Now      time.Time
	Location *time.Location

	Rollups  []*types.DailyRollup
	Tests    []*types.TestRecord
	Sessions []*types.FocusSession
}

type Report struct {
	Period                 timerange.Period    `json:"period"`
	GeneratedAt            time.Time           `json:"generated_at"`
	Stats                  []types.DailyRollup `json:"stats"`
	TestStats              TestStats           `json:"test_stats"`
	FocusStats             FocusStats          `json:"focus_stats"`
	FocusDistribution      []BucketCount       `json:"focus_distribution"`
	WeekdayDistribution    []WeekdayCount      `json:"weekday_distribution"`
	TimePeriodDistribution []PeriodCount       `json:"time_period_distribution"`
}

type TestStats struct {
	TotalTests     int   `json:"total_tests"`
	TotalQuestions int64 `json:"total_questions"`
	CorrectAnswers int64 `json:"correct_answers"`
	AvgAccuracy    int64 `json:"avg_accuracy"`
}

type FocusStats struct {
	// TotalFocusTime is in seconds over the period's rollup rows.
	TotalFocusTime int64 `json:"total_focus_time"`
	// AvgDailyFocusTime is in minutes per rollup row.
	AvgDailyFocusTime   int64                `json:"avg_daily_focus_time"`
	TimePeriodDurations []TimePeriodDuration `json:"time_period_durations"`
	Trend               []TrendPoint         `json:"trend"`
}

type TimePeriodDuration struct {
	TimePeriod           string `json:"time_period"`
	TotalDurationMinutes int64  `json:"total_duration_minutes"`
	SessionCount         int    `json:"session_count"`
}

type TrendPoint struct {
	Date                 string `json:"date"`
	TotalDurationMinutes int64  `json:"total_duration_minutes"`
	SessionCount         int    `json:"session_count"`
}

type BucketCount struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

type WeekdayCount struct {
	Weekday string `json:"weekday"`
	Index   int    `json:"index"`
	Count   int    `json:"count"`
}

type PeriodCount struct {
	Period string `json:"period"`
	Count  int    `json:"count"`
}

// Build assembles the report. Rollup rows older than the period floor are
// dropped even if the caller passed them; tests and sessions are never
// period filtered.
func Build(in Input) Report {
	loc := in.Location
	if loc == nil {
		loc = time.Local
	}
	period := in.Period
	if period == "" {
		period = timerange.PeriodAll
	}

	rows := periodRows(in.Rollups, period.Floor(in.Now, loc))
	return Report{
		Period:                 period,
		GeneratedAt:            in.Now.UTC(),
		Stats:                  rows,
		TestStats:              testStats(in.Tests),
		FocusStats:             focusStats(rows, in.Sessions, loc),
		FocusDistribution:      FocusDistribution(in.Sessions),
		WeekdayDistribution:    WeekdayDistribution(in.Sessions, loc),
		TimePeriodDistribution: TimePeriodDistribution(in.Sessions, loc),
	}
}

func periodRows(in []*types.DailyRollup, floor string) []types.DailyRollup {
	out := make([]types.DailyRollup, 0, len(in))
	for _, r := range in {
		if r == nil || (floor != "" && r.Date < floor) {
			continue
		}
		out = append(out, *r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// testStats averages each test's own accuracy; it is not correct/total of the sums.
func testStats(tests []*types.TestRecord) TestStats {
	var ts TestStats
	var accSum float64
	for _, t := range tests {
		if t == nil {
			continue
		}
		ts.TotalTests++
		ts.TotalQuestions += int64(t.TotalQuestions)
		ts.CorrectAnswers += int64(t.CorrectAnswers)
		accSum += t.Accuracy()
	}
	if ts.TotalTests > 0 {
		ts.AvgAccuracy = int64(math.Round(accSum / float64(ts.TotalTests)))
	}
	return ts
}

func focusStats(rows []types.DailyRollup, sessions []*types.FocusSession, loc *time.Location) FocusStats {
	var fs FocusStats
	for _, r := range rows {
		fs.TotalFocusTime += r.FocusTimeSeconds
	}
	fs.AvgDailyFocusTime = AvgDailyFocusMinutes(fs.TotalFocusTime, len(rows))
	fs.TimePeriodDurations = timePeriodDurations(sessions, loc)
	fs.Trend = trend(sessions, loc, TrendDays)
	return fs
}

// AvgDailyFocusMinutes is round(totalSeconds / days / 60), 0 for no days.
func AvgDailyFocusMinutes(totalSeconds int64, days int) int64 {
	if days <= 0 {
		return 0
	}
	return int64(math.Round(float64(totalSeconds) / float64(days) / 60))
}

// timePeriodDurations lists only periods that have sessions, night first.
func timePeriodDurations(sessions []*types.FocusSession, loc *time.Location) []TimePeriodDuration {
	var acc [4]TimePeriodDuration
	for _, s := range sessions {
		if s == nil {
			continue
		}
		p := timerange.PeriodOf(s.StartTime, loc)
		acc[p].TotalDurationMinutes += int64(s.DurationMinutes)
		acc[p].SessionCount++
	}
	out := make([]TimePeriodDuration, 0, len(acc))
	for _, p := range timerange.DayPeriods {
		if acc[p].SessionCount == 0 {
			continue
		}
		row := acc[p]
		row.TimePeriod = p.Label()
		out = append(out, row)
	}
	return out
}

func trend(sessions []*types.FocusSession, loc *time.Location, limit int) []TrendPoint {
	byDate := map[string]*TrendPoint{}
	for _, s := range sessions {
		if s == nil {
			continue
		}
		d := timerange.DateOf(s.StartTime, loc)
		pt, ok := byDate[d]
		if !ok {
			pt = &TrendPoint{Date: d}
			byDate[d] = pt
		}
		pt.TotalDurationMinutes += int64(s.DurationMinutes)
		pt.SessionCount++
	}
	out := make([]TrendPoint, 0, len(byDate))
	for _, pt := range byDate {
		out = append(out, *pt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FocusDistribution counts sessions per duration bucket, every bucket present.
func FocusDistribution(sessions []*types.FocusSession) []BucketCount {
	counts := make([]int, len(timerange.DurationBuckets))
	for _, s := range sessions {
		if s == nil {
			continue
		}
		counts[timerange.BucketDuration(s.DurationMinutes)]++
	}
	out := make([]BucketCount, len(timerange.DurationBuckets))
	for i, b := range timerange.DurationBuckets {
		out[i] = BucketCount{Bucket: b.String(), Count: counts[b]}
	}
	return out
}

// WeekdayDistribution counts sessions per ISO weekday of their start, Monday first.
func WeekdayDistribution(sessions []*types.FocusSession, loc *time.Location) []WeekdayCount {
	var counts [7]int
	for _, s := range sessions {
		if s == nil {
			continue
		}
		counts[timerange.ISOWeekday(s.StartTime, loc)]++
	}
	out := make([]WeekdayCount, 7)
	for i := range out {
		w := timerange.Weekday(i)
		out[i] = WeekdayCount{Weekday: w.String(), Index: i, Count: counts[i]}
	}
	return out
}

func TimePeriodDistribution(sessions []*types.FocusSession, loc *time.Location) []PeriodCount {
	counts := make([]int, len(timerange.DayPeriods))
	for _, s := range sessions {
		if s == nil {
			continue
		}
		counts[timerange.PeriodOf(s.StartTime, loc)]++
	}
	out := make([]PeriodCount, len(timerange.DayPeriods))
	for i, p := range timerange.DayPeriods {
		out[i] = PeriodCount{Period: p.String(), Count: counts[p]}
	}
	return out
}
