package analytics

import (
	"github.com/platinummonkey/aiwu-analytics/pkg/telemetry"
)

// newInstallations counts Activation events inside p that match plan.
func (d *dataset) newInstallations(p Period, plan telemetry.PlanFilter) int {
	n := 0
	d.each(func(tl *telemetry.Timeline) {
		for _, r := range tl.Records {
			if r.Mode == telemetry.ModeActivation && p.Contains(r.Created) && plan.Matches(r.IsPro) {
				n++
			}
		}
	})
	return n
}

// activeUsers counts installed users that pinged inside p. FreeOnly
// excludes anyone who was ever Pro; ProOnly requires it.
func (d *dataset) activeUsers(p Period, plan telemetry.PlanFilter) int {
	n := 0
	d.each(func(tl *telemetry.Timeline) {
		if !plan.Matches(tl.EverPro()) {
			return
		}
		if !tl.CurrentlyInstalled() || !hasModeIn(tl, telemetry.ModePing, p) {
			return
		}
		n++
	})
	return n
}

// conversionCounts returns the Free cohort at the start of p and the users
// whose first Pro event, preceded by a Free one, falls inside p.
func (d *dataset) conversionCounts(p Period) (atStart, conversions int) {
	d.each(func(tl *telemetry.Timeline) {
		if conv := tl.Conversion(); conv != nil && p.Contains(conv.Created) {
			conversions++
		}
		if first := tl.FirstFreeActivation(); first != nil && first.Created.Before(p.Start()) && !tl.ProBefore(p.Start()) {
			atStart++
		}
	})
	return atStart, conversions
}

// churnPlan is the plan a user is churn-counted under for p: the plan of
// their latest event before p, or else of their first deactivation in p.
func churnPlan(tl *telemetry.Timeline, p Period) (telemetry.Plan, bool) {
	if plan, ok := tl.PlanBefore(p.Start()); ok {
		return plan, true
	}
	if r := firstModeIn(tl, telemetry.ModeDeactivation, p); r != nil {
		return r.Plan(), true
	}
	return "", false
}

// churnCounts returns the users active at the start of p and the distinct
// users who deactivated inside p, restricted to plan.
func (d *dataset) churnCounts(p Period, plan telemetry.PlanFilter) (atStart, deactivations int) {
	d.each(func(tl *telemetry.Timeline) {
		if plan != telemetry.AllPlans {
			pl, ok := churnPlan(tl, p)
			if !ok || !plan.Matches(pl == telemetry.PlanPro) {
				return
			}
		}
		if tl.ActiveAt(p.Start()) {
			atStart++
		}
		if hasModeIn(tl, telemetry.ModeDeactivation, p) {
			deactivations++
		}
	})
	return atStart, deactivations
}

func (d *dataset) conversionRate(p Period, rates *rater) float64 {
	atStart, conversions := d.conversionCounts(p)
	return rates.rate("conversion_rate", conversions, atStart)
}

func (d *dataset) churnRate(p Period, rates *rater) float64 {
	atStart, deactivations := d.churnCounts(p, telemetry.AllPlans)
	return rates.rate("churn_rate", deactivations, atStart)
}

// kpiValue evaluates metric over p, the previous window and each trend bucket.
func kpiValue(p Period, metric func(Period) float64) KPIValue {
	cur := metric(p)
	prev := metric(p.Previous())
	buckets := p.Buckets()
	trend := make([]float64, 0, len(buckets))
	for _, b := range buckets {
		trend = append(trend, metric(b))
	}
	return KPIValue{
		Value:    cur,
		Previous: prev,
		Change:   PercentChange(prev, cur),
		Trend:    trend,
	}
}

func (d *dataset) kpis(p Period, rates *rater) KPISection {
	installs := func(plan telemetry.PlanFilter) func(Period) float64 {
		return func(b Period) float64 { return float64(d.newInstallations(b, plan)) }
	}
	active := func(plan telemetry.PlanFilter) func(Period) float64 {
		return func(b Period) float64 { return float64(d.activeUsers(b, plan)) }
	}
	return KPISection{
		NewFreeInstallations: kpiValue(p, installs(telemetry.FreeOnly)),
		NewProInstallations:  kpiValue(p, installs(telemetry.ProOnly)),
		ActiveFreeUsers:      kpiValue(p, active(telemetry.FreeOnly)),
		ActiveProUsers:       kpiValue(p, active(telemetry.ProOnly)),
		ConversionRate:       kpiValue(p, func(b Period) float64 { return d.conversionRate(b, rates) }),
		ChurnRate:            kpiValue(p, func(b Period) float64 { return d.churnRate(b, rates) }),
	}
}

// trends counts activations per day and plan.
func (d *dataset) trends(p Period) TrendsSection {
	free := make(map[string]int)
	pro := make(map[string]int)
	d.each(func(tl *telemetry.Timeline) {
		for _, r := range tl.Records {
			if r.Mode != telemetry.ModeActivation || !p.Contains(r.Created) {
				continue
			}
			if r.IsPro {
				pro[d.day(r.Created)]++
			} else {
				free[d.day(r.Created)]++
			}
		}
	})
	return TrendsSection{
		FreeInstallations: dailySeries(p, free),
		ProInstallations:  dailySeries(p, pro),
	}
}
