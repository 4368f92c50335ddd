package telemetry

import (
	"sort"
	"time"
)

// Record is an event together with the detail counters attached to it.
type Record struct {
	Event
	Details map[string]int64
}

// Detail returns the named counter, or 0 when the event does not carry it.
func (r *Record) Detail(name string) int64 {
	if r == nil {
		return 0
	}
	return r.Details[name]
}

// FeatureTokens sums every positive tokens_* counter on the record.
func (r *Record) FeatureTokens() int64 {
	if r == nil {
		return 0
	}
	var total int64
	for name, v := range r.Details {
		if IsFeatureDetail(name) && v > 0 {
			total += v
		}
	}
	return total
}

// FeaturesUsed counts distinct tokens_* counters with a positive value.
func (r *Record) FeaturesUsed() int {
	if r == nil {
		return 0
	}
	n := 0
	for name, v := range r.Details {
		if IsFeatureDetail(name) && v > 0 {
			n++
		}
	}
	return n
}

// Timeline is the ordered event history of a single installation email.
// Records are sorted by (created, id) and never mutated after construction.
type Timeline struct {
	Email   string
	Records []*Record
}

// BuildTimelines groups events per email and attaches details to their
// events. Details referencing unknown events are dropped.
func BuildTimelines(events []Event, details []Detail) map[string]*Timeline {
	byID := make(map[int64]*Record, len(events))
	timelines := make(map[string]*Timeline)

	for _, ev := range events {
		rec := &Record{Event: ev}
		byID[ev.ID] = rec

		tl, ok := timelines[ev.Email]
		if !ok {
			tl = &Timeline{Email: ev.Email}
			timelines[ev.Email] = tl
		}
		tl.Records = append(tl.Records, rec)
	}

	for _, d := range details {
		rec, ok := byID[d.EventID]
		if !ok {
			continue
		}
		if rec.Details == nil {
			rec.Details = make(map[string]int64)
		}
		// Duplicate names on one event keep the last value written.
		rec.Details[d.Name] = d.Value
	}

	for _, tl := range timelines {
		sort.Slice(tl.Records, func(i, j int) bool {
			a, b := tl.Records[i], tl.Records[j]
			if a.Created.Equal(b.Created) {
				return a.ID < b.ID
			}
			return a.Created.Before(b.Created)
		})
	}

	return timelines
}

// SortedEmails returns the timeline keys in lexical order.
func SortedEmails(timelines map[string]*Timeline) []string {
	emails := make([]string, 0, len(timelines))
	for email := range timelines {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails
}

// LatestEvent returns the most recent record of any mode.
func (t *Timeline) LatestEvent() *Record {
	if len(t.Records) == 0 {
		return nil
	}
	return t.Records[len(t.Records)-1]
}

// LatestOf returns the most recent record with the given mode.
func (t *Timeline) LatestOf(mode Mode) *Record {
	for i := len(t.Records) - 1; i >= 0; i-- {
		if t.Records[i].Mode == mode {
			return t.Records[i]
		}
	}
	return nil
}

// LatestPing returns the user's most recent ping.
func (t *Timeline) LatestPing() *Record {
	return t.LatestOf(ModePing)
}

// FirstOf returns the earliest record with the given mode.
func (t *Timeline) FirstOf(mode Mode) *Record {
	for _, r := range t.Records {
		if r.Mode == mode {
			return r
		}
	}
	return nil
}

// LatestBefore returns the most recent record strictly before ts.
func (t *Timeline) LatestBefore(ts time.Time) *Record {
	var latest *Record
	for _, r := range t.Records {
		if !r.Created.Before(ts) {
			break
		}
		latest = r
	}
	return latest
}

// PlanAt is the plan reported by the latest event at or before ts.
// The boolean is false when the user has no event up to ts.
func (t *Timeline) PlanAt(ts time.Time) (Plan, bool) {
	var latest *Record
	for _, r := range t.Records {
		if r.Created.After(ts) {
			break
		}
		latest = r
	}
	if latest == nil {
		return "", false
	}
	return latest.Plan(), true
}

// PlanBefore is the plan reported by the latest event strictly before ts.
func (t *Timeline) PlanBefore(ts time.Time) (Plan, bool) {
	latest := t.LatestBefore(ts)
	if latest == nil {
		return "", false
	}
	return latest.Plan(), true
}

// ActiveAt reports whether the installation was active at the instant ts:
// it has an activation before ts and no deactivation between its latest
// such activation and ts.
func (t *Timeline) ActiveAt(ts time.Time) bool {
	active := false
	for _, r := range t.Records {
		if !r.Created.Before(ts) {
			break
		}
		switch r.Mode {
		case ModeActivation:
			active = true
		case ModeDeactivation:
			active = false
		}
	}
	return active
}

// CurrentlyInstalled reports whether the user has an activation and no
// deactivation after their latest activation, over the whole history.
func (t *Timeline) CurrentlyInstalled() bool {
	lastAct := t.LatestOf(ModeActivation)
	if lastAct == nil {
		return false
	}
	lastDeact := t.LatestOf(ModeDeactivation)
	if lastDeact == nil {
		return true
	}
	return after(lastAct, lastDeact)
}

// EverPro reports whether any event of the user carried is_pro=1.
func (t *Timeline) EverPro() bool {
	return t.FirstPro() != nil
}

// FirstPro returns the earliest event reporting the Pro plan.
func (t *Timeline) FirstPro() *Record {
	for _, r := range t.Records {
		if r.IsPro {
			return r
		}
	}
	return nil
}

// ProBefore reports whether any Pro event occurred strictly before ts.
func (t *Timeline) ProBefore(ts time.Time) bool {
	first := t.FirstPro()
	return first != nil && first.Created.Before(ts)
}

// FirstFreeActivation returns the earliest activation reported on the Free plan.
func (t *Timeline) FirstFreeActivation() *Record {
	for _, r := range t.Records {
		if r.Mode == ModeActivation && !r.IsPro {
			return r
		}
	}
	return nil
}

// FirstActivation returns the earliest activation of any plan.
func (t *Timeline) FirstActivation() *Record {
	return t.FirstOf(ModeActivation)
}

// Conversion returns the user's first Free to Pro transition: the first
// Pro event, provided a Free event precedes it. Nil when the user never
// converted.
func (t *Timeline) Conversion() *Record {
	sawFree := false
	for _, r := range t.Records {
		if r.IsPro {
			if sawFree {
				return r
			}
			return nil
		}
		sawFree = true
	}
	return nil
}

// EverUsed reports whether any event of the user carried a positive value
// for the named counter.
func (t *Timeline) EverUsed(name string) bool {
	for _, r := range t.Records {
		if r.Details[name] > 0 {
			return true
		}
	}
	return false
}

// LatestPositive returns the value of the named counter on the latest
// event where it was positive.
func (t *Timeline) LatestPositive(name string) (int64, bool) {
	for i := len(t.Records) - 1; i >= 0; i-- {
		if v := t.Records[i].Details[name]; v > 0 {
			return v, true
		}
	}
	return 0, false
}

func after(a, b *Record) bool {
	if a.Created.Equal(b.Created) {
		return a.ID > b.ID
	}
	return a.Created.After(b.Created)
}
