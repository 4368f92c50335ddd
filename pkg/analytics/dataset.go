package analytics

import (
	"context"
	"time"

	"github.com/platinummonkey/aiwu-analytics/pkg/catalog"
	"github.com/platinummonkey/aiwu-analytics/pkg/telemetry"
)

const cancelCheckEvery = 64

// dataset is the immutable per-request view every section reads from.
type dataset struct {
	ctx       context.Context
	timelines map[string]*telemetry.Timeline
	emails    []string
	catalog   *catalog.Catalog
	loc       *time.Location
}

func newDataset(ctx context.Context, timelines map[string]*telemetry.Timeline, cat *catalog.Catalog, loc *time.Location) *dataset {
	if ctx == nil {
		ctx = context.Background()
	}
	if cat == nil {
		cat = catalog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &dataset{
		ctx:       ctx,
		timelines: timelines,
		emails:    telemetry.SortedEmails(timelines),
		catalog:   cat,
		loc:       loc,
	}
}

// each visits timelines in email order. It stops early once the request
// context is done.
func (d *dataset) each(fn func(*telemetry.Timeline)) {
	for i, email := range d.emails {
		if i%cancelCheckEvery == 0 && d.ctx.Err() != nil {
			return
		}
		fn(d.timelines[email])
	}
}

func (d *dataset) day(ts time.Time) string {
	return ts.In(d.loc).Format(DateLayout)
}

// dailySeries zero-fills counts keyed by day over the period.
func dailySeries(p Period, counts map[string]int) []DailyCount {
	days := p.Days()
	series := make([]DailyCount, 0, len(days))
	for _, day := range days {
		key := day.Format(DateLayout)
		series = append(series, DailyCount{Date: key, Count: counts[key]})
	}
	return series
}

// hasModeIn reports whether the timeline has an event of mode inside p.
func hasModeIn(tl *telemetry.Timeline, mode telemetry.Mode, p Period) bool {
	return firstModeIn(tl, mode, p) != nil
}

func firstModeIn(tl *telemetry.Timeline, mode telemetry.Mode, p Period) *telemetry.Record {
	for _, r := range tl.Records {
		if r.Mode == mode && p.Contains(r.Created) {
			return r
		}
	}
	return nil
}
