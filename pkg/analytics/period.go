package analytics

import (
	"time"
)

// DateLayout is the wire format of report dates.
const DateLayout = "2006-01-02"

// DefaultWindowDays is the length of the trailing window used when the
// requested range is missing or malformed.
const DefaultWindowDays = 30

// MaxWindowDays is the widest accepted span, in days, between the first and
// last day of a requested range. Wider ranges fall back to the default
// window.
const MaxWindowDays = 3 * 366

// trendDailyLimit is the widest span, in days, still bucketed per day.
const trendDailyLimit = 30

// Period is a range of whole calendar days in one location. From and To are
// the midnights of the first and last day; both days are included.
type Period struct {
	From time.Time
	To   time.Time
}

// ResolvePeriod parses a YYYY-MM-DD range. Missing or malformed bounds, a
// start after the end, or a span over MaxWindowDays yield the trailing
// window ending today. The boolean reports whether that fallback was used.
func ResolvePeriod(dateFrom, dateTo string, now time.Time, loc *time.Location) (Period, bool) {
	if loc == nil {
		loc = time.UTC
	}
	from, errFrom := time.ParseInLocation(DateLayout, dateFrom, loc)
	to, errTo := time.ParseInLocation(DateLayout, dateTo, loc)
	if errFrom != nil || errTo != nil || from.After(to) || daysBetween(from, to) > MaxWindowDays {
		today := midnight(now.In(loc))
		return Period{From: today.AddDate(0, 0, -DefaultWindowDays), To: today}, true
	}
	return Period{From: from, To: to}, false
}

// Start is the first instant of the period.
func (p Period) Start() time.Time { return p.From }

// End is the first instant after the period.
func (p Period) End() time.Time { return p.To.AddDate(0, 0, 1) }

// Contains reports whether ts falls on one of the period's days.
func (p Period) Contains(ts time.Time) bool {
	return !ts.Before(p.Start()) && ts.Before(p.End())
}

// Span is the number of days between From and To; a single-day period has
// span zero.
func (p Period) Span() int {
	return daysBetween(p.From, p.To)
}

// Previous returns the window of equal length ending the day before From.
func (p Period) Previous() Period {
	prevTo := p.From.AddDate(0, 0, -1)
	return Period{From: prevTo.AddDate(0, 0, -p.Span()), To: prevTo}
}

// Days returns every day of the period in order.
func (p Period) Days() []time.Time {
	days := make([]time.Time, 0, p.Span()+1)
	for d := p.From; !d.After(p.To); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Buckets splits the period for mini-trends: one bucket per day when the
// span is at most 30 days, otherwise 7-day buckets with the last one cut
// at To.
func (p Period) Buckets() []Period {
	size := 1
	if p.Span() > trendDailyLimit {
		size = 7
	}
	var buckets []Period
	for start := p.From; !start.After(p.To); start = start.AddDate(0, 0, size) {
		end := start.AddDate(0, 0, size-1)
		if end.After(p.To) {
			end = p.To
		}
		buckets = append(buckets, Period{From: start, To: end})
	}
	return buckets
}

// FromDate formats the first day.
func (p Period) FromDate() string { return p.From.Format(DateLayout) }

// ToDate formats the last day.
func (p Period) ToDate() string { return p.To.Format(DateLayout) }

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b, ignoring clock time and
// DST shifts.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
