package vitals

import (
	"sort"
	"time"

	"github.com/vladimiradmaev/mediplus/internal/domain"
	"github.com/vladimiradmaev/mediplus/internal/utils"
)

// monthsFallback is how many months Months returns when there is no data.
const monthsFallback = 24

type bucket struct {
	n      int
	sum    float64
	sumSys float64
	sumDia float64
}

func (b *bucket) add(s domain.Sample) {
	b.n++
	if s.Pressure != nil {
		b.sumSys += s.Pressure.Systolic
		b.sumDia += s.Pressure.Diastolic
		return
	}
	b.sum += s.Value
}

func (b *bucket) point(spec Spec, d int) domain.Point {
	p := domain.Point{Bucket: d}
	if b == nil || b.n == 0 {
		return p
	}
	n := float64(b.n)
	if spec.Paired() {
		sys := spec.Round(b.sumSys / n)
		dia := spec.Round(b.sumDia / n)
		p.Systolic, p.Diastolic = &sys, &dia
		return p
	}
	v := spec.Round(b.sum / n)
	p.Value = &v
	return p
}

// DailyInMonth returns one point per calendar day of month that has data,
// sorted by day. month is a "YYYY-MM" key.
func DailyInMonth(samples []domain.Sample, kind domain.VitalKind, month string) []domain.Point {
	spec, ok := Lookup(kind)
	if !ok || month == "" {
		return nil
	}

	byDay := make(map[int]*bucket)
	for _, s := range samples {
		if s.Kind != kind || utils.MonthKey(s.Timestamp) != month {
			continue
		}
		d := s.Timestamp.Day()
		if byDay[d] == nil {
			byDay[d] = &bucket{}
		}
		byDay[d].add(s)
	}

	days := make([]int, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Ints(days)

	out := make([]domain.Point, 0, len(days))
	for _, d := range days {
		out = append(out, byDay[d].point(spec, d))
	}
	return out
}

// MonthlyInYear returns exactly 12 points, one per month of year.
func MonthlyInYear(samples []domain.Sample, kind domain.VitalKind, year int) []domain.Point {
	spec, ok := Lookup(kind)
	if !ok {
		return nil
	}

	var byMonth [12]bucket
	for _, s := range samples {
		if s.Kind != kind || s.Timestamp.Year() != year {
			continue
		}
		byMonth[s.Timestamp.Month()-1].add(s)
	}

	out := make([]domain.Point, 12)
	for i := range byMonth {
		out[i] = byMonth[i].point(spec, i+1)
	}
	return out
}

// HourlyInDay returns exactly 24 points for the given day. Every hour carries
// the day's average; samples are not split by hour.
func HourlyInDay(samples []domain.Sample, kind domain.VitalKind, month string, day int) []domain.Point {
	spec, ok := Lookup(kind)
	if !ok {
		return nil
	}

	var b bucket
	for _, s := range samples {
		if s.Kind == kind && s.Timestamp.Day() == day && utils.MonthKey(s.Timestamp) == month {
			b.add(s)
		}
	}

	out := make([]domain.Point, 24)
	for h := range out {
		out[h] = b.point(spec, h)
	}
	return out
}

// Months returns the distinct month keys present in samples, newest first.
// With no samples it returns the last 24 months ending at now.
func Months(samples []domain.Sample, now time.Time) []string {
	seen := make(map[string]struct{})
	for _, s := range samples {
		seen[utils.MonthKey(s.Timestamp)] = struct{}{}
	}
	if len(seen) == 0 {
		return utils.LastMonths(now, monthsFallback)
	}

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

// Series builds the series for view. day is clamped to the month length and
// only used by the day view; year is taken from month.
func Series(samples []domain.Sample, kind domain.VitalKind, view domain.View, month string, day int) ([]domain.Point, error) {
	year, mon, err := utils.ParseMonth(month)
	if err != nil {
		return nil, err
	}
	switch view {
	case domain.ViewYear:
		return MonthlyInYear(samples, kind, year), nil
	case domain.ViewDay:
		return HourlyInDay(samples, kind, month, ClampDay(day, year, mon)), nil
	default:
		return DailyInMonth(samples, kind, month), nil
	}
}

// ClampDay limits day to [1, days in month].
func ClampDay(day, year int, month time.Month) int {
	last := utils.DaysInMonth(year, month)
	if day < 1 {
		return 1
	}
	if day > last {
		return last
	}
	return day
}

// ParseView maps a view name to a View, defaulting to the month view.
func ParseView(s string) domain.View {
	switch domain.View(s) {
	case domain.ViewDay, domain.ViewYear:
		return domain.View(s)
	default:
		return domain.ViewMonth
	}
}
