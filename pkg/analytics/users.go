package analytics

import (
	"sort"

	"github.com/platinummonkey/aiwu-analytics/pkg/telemetry"
)

// activityRow builds a listing row. Plan is taken from the latest event of
// any mode and stats from the latest ping.
func activityRow(tl *telemetry.Timeline) UserActivity {
	latest := tl.LatestEvent()
	row := UserActivity{
		Email:        tl.Email,
		Plan:         string(latest.Plan()),
		LastActivity: latest.Created,
	}
	if act := tl.FirstActivation(); act != nil {
		activated := act.Created
		row.Activated = &activated
	}
	if ping := tl.LatestPing(); ping != nil {
		row.Tasks = ping.Detail(telemetry.DetailTasks)
		row.TokensTotal = ping.FeatureTokens()
		row.FeaturesUsed = ping.FeaturesUsed()
	}
	return row
}

func (d *dataset) users(plan telemetry.PlanFilter, feature string, page, perPage int) UsersSection {
	rows := make([]UserActivity, 0, len(d.emails))
	d.each(func(tl *telemetry.Timeline) {
		latest := tl.LatestEvent()
		if latest == nil || !plan.Matches(latest.IsPro) {
			return
		}
		if feature != "" && !tl.EverUsed(feature) {
			return
		}
		rows = append(rows, activityRow(tl))
	})

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].LastActivity.Equal(rows[j].LastActivity) {
			return rows[i].LastActivity.After(rows[j].LastActivity)
		}
		return rows[i].Email < rows[j].Email
	})

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	// Pages past the end are empty; the check comes before multiplying so a
	// huge page cannot overflow the offset.
	offset := len(rows)
	if page-1 <= len(rows)/perPage {
		offset = min((page-1)*perPage, len(rows))
	}
	section := UsersSection{Total: len(rows), Page: page, Limit: perPage, Offset: offset}

	end := offset + min(perPage, len(rows)-offset)
	section.Rows = make([]UserActivity, 0, end-offset)
	for _, row := range rows[offset:end] {
		row.Email = MaskEmail(row.Email)
		section.Rows = append(section.Rows, row)
	}
	return section
}
