package aggregate

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Granularity of a billboard bucket. A year period is bucketed by month,
// a month period by day and a day period by hour.
type Granularity int

const (
	GranularityYear Granularity = iota
	GranularityMonth
	GranularityDay
)

func (g Granularity) String() string {
	switch g {
	case GranularityYear:
		return "year"
	case GranularityMonth:
		return "month"
	case GranularityDay:
		return "day"
	}
	return fmt.Sprintf("granularity(%d)", int(g))
}

// Truncate cuts t down to the start of its bucket.
func (g Granularity) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch g {
	case GranularityYear:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	}
}

// Layout is the display format of a bucket label.
func (g Granularity) Layout() string {
	switch g {
	case GranularityYear:
		return "2006-01"
	case GranularityMonth:
		return "2006-01-02"
	default:
		return "2006-01-02 15:00:00"
	}
}

func (g Granularity) Label(t time.Time) string {
	return g.Truncate(t).Format(g.Layout())
}

// Period is a calendar year, optionally narrowed to a month and a day.
type Period struct {
	Year  int
	Month time.Month
	Day   int
}

func (p Period) Validate() error {
	if p.Year < 2003 || p.Year > 9999 {
		return errors.Errorf("invalid year: %d", p.Year)
	}
	if p.Month < 0 || p.Month > 12 {
		return errors.Errorf("invalid month: %d", p.Month)
	}
	if p.Day != 0 {
		if p.Month == 0 {
			return errors.New("day requires month")
		}
		from := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
		if p.Day < 1 || p.Day > from.AddDate(0, 1, -1).Day() {
			return errors.Errorf("invalid day: %d", p.Day)
		}
	}
	return nil
}

// Range returns the half open interval [from, to) covered by the period.
func (p Period) Range() (time.Time, time.Time) {
	switch {
	case p.Month == 0:
		from := time.Date(p.Year, 1, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0)
	case p.Day == 0:
		from := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0)
	default:
		from := time.Date(p.Year, p.Month, p.Day, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 0, 1)
	}
}

func (p Period) Contains(t time.Time) bool {
	from, to := p.Range()
	return !t.Before(from) && t.Before(to)
}

func (p Period) Granularity() Granularity {
	switch {
	case p.Month == 0:
		return GranularityYear
	case p.Day == 0:
		return GranularityMonth
	default:
		return GranularityDay
	}
}

func (p Period) String() string {
	switch {
	case p.Month == 0:
		return fmt.Sprintf("%04d", p.Year)
	case p.Day == 0:
		return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
	default:
		return fmt.Sprintf("%04d-%02d-%02d", p.Year, int(p.Month), p.Day)
	}
}

// ParsePeriod accepts YYYY, YYYY-MM or YYYY-MM-DD.
func ParsePeriod(in string) (Period, error) {
	var (
		p   Period
		err error
		t   time.Time
	)
	switch len(in) {
	case len("2006"):
		t, err = time.Parse("2006", in)
		p = Period{Year: t.Year()}
	case len("2006-01"):
		t, err = time.Parse("2006-01", in)
		p = Period{Year: t.Year(), Month: t.Month()}
	case len("2006-01-02"):
		t, err = time.Parse("2006-01-02", in)
		p = Period{Year: t.Year(), Month: t.Month(), Day: t.Day()}
	default:
		return p, errors.Errorf("unknown period format: %q, use YYYY, YYYY-MM or YYYY-MM-DD", in)
	}
	if err != nil {
		return p, errors.Wrapf(err, "unknown period format: %q, use YYYY, YYYY-MM or YYYY-MM-DD", in)
	}
	return p, p.Validate()
}

// CurrentMonth is the default reporting period.
func CurrentMonth(now time.Time) Period {
	y, m, _ := now.UTC().Date()
	return Period{Year: y, Month: m}
}
