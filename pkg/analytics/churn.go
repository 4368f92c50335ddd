package analytics

import (
	"sort"

	"github.com/platinummonkey/aiwu-analytics/pkg/telemetry"
)

func (d *dataset) churn(p Period, rates *rater) ChurnSection {
	atStart, deactivations := d.churnCounts(p, telemetry.AllPlans)
	section := ChurnSection{
		ActiveAtStart: atStart,
		Deactivations: deactivations,
		Rate:          rates.rate("churn_rate", deactivations, atStart),
		Reasons:       d.deactivationReasons(),
	}

	perDay := make(map[string]int)
	d.each(func(tl *telemetry.Timeline) {
		for _, r := range tl.Records {
			if r.Mode == telemetry.ModeDeactivation && p.Contains(r.Created) {
				perDay[d.day(r.Created)]++
			}
		}
	})
	section.Timeline = dailySeries(p, perDay)

	for _, plan := range []telemetry.PlanFilter{telemetry.FreeOnly, telemetry.ProOnly} {
		atStart, deactivations := d.churnCounts(p, plan)
		label := telemetry.PlanFree
		if plan == telemetry.ProOnly {
			label = telemetry.PlanPro
		}
		section.ByPlan = append(section.ByPlan, PlanChurn{
			Plan:          string(label),
			ActiveAtStart: atStart,
			Deactivations: deactivations,
			Rate:          rates.rate("churn_rate_"+string(plan), deactivations, atStart),
		})
	}
	return section
}

// deactivationReasons counts reason codes on Deactivation events over the
// whole history. Codes missing from the catalog are merged under Unknown.
func (d *dataset) deactivationReasons() []ReasonCount {
	counts := make(map[string]int)
	d.each(func(tl *telemetry.Timeline) {
		for _, r := range tl.Records {
			if r.Mode != telemetry.ModeDeactivation {
				continue
			}
			code, ok := r.Details[telemetry.DetailReason]
			if !ok {
				continue
			}
			counts[d.catalog.ReasonLabel(code)]++
		}
	})

	reasons := make([]ReasonCount, 0, len(counts))
	for label, n := range counts {
		reasons = append(reasons, ReasonCount{Reason: label, Count: n})
	}
	sort.Slice(reasons, func(i, j int) bool {
		if reasons[i].Count != reasons[j].Count {
			return reasons[i].Count > reasons[j].Count
		}
		return reasons[i].Reason < reasons[j].Reason
	})
	return reasons
}
