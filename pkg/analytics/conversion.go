package analytics

import (
	"sort"

	"github.com/platinummonkey/aiwu-analytics/pkg/telemetry"
)

var conversionBuckets = []struct {
	label   string
	maxDays int
}{
	{"0-1", 1},
	{"1-3", 3},
	{"3-7", 7},
	{"7-14", 14},
	{"14-30", 30},
	{"30+", -1},
}

func conversionBucket(days int) int {
	for i, b := range conversionBuckets {
		if b.maxDays < 0 || days <= b.maxDays {
			return i
		}
	}
	return len(conversionBuckets) - 1
}

// upgrade is a user's first Free activation and their conversion event.
type upgrade struct {
	tl   *telemetry.Timeline
	free *telemetry.Record
	pro  *telemetry.Record
	days int
}

// upgrades lists every converted user whose first Free activation comes no
// later than the conversion.
func (d *dataset) upgrades() []upgrade {
	var out []upgrade
	d.each(func(tl *telemetry.Timeline) {
		pro := tl.Conversion()
		if pro == nil {
			return
		}
		free := tl.FirstFreeActivation()
		if free == nil || free.Created.After(pro.Created) {
			return
		}
		days := daysBetween(free.Created.In(d.loc), pro.Created.In(d.loc))
		out = append(out, upgrade{tl: tl, free: free, pro: pro, days: days})
	})
	return out
}

func (d *dataset) conversion(p Period, feature string, rates *rater) ConversionSection {
	atStart, conversions := d.conversionCounts(p)
	section := ConversionSection{
		FreeUsersAtStart: atStart,
		Conversions:      conversions,
		Rate:             rates.rate("conversion_rate", conversions, atStart),
	}

	perDay := make(map[string]int)
	d.each(func(tl *telemetry.Timeline) {
		if conv := tl.Conversion(); conv != nil && p.Contains(conv.Created) {
			perDay[d.day(conv.Created)]++
		}
	})
	section.Timeline = dailySeries(p, perDay)

	ups := d.upgrades()
	counts := make([]int, len(conversionBuckets))
	for _, u := range ups {
		counts[conversionBucket(u.days)]++
	}
	section.TimeToConvert = make([]Bucket, len(conversionBuckets))
	for i, b := range conversionBuckets {
		section.TimeToConvert[i] = Bucket{Label: b.label, Count: counts[i], Percentage: Share(counts[i], len(ups))}
	}

	section.Recent = d.recentConversions(ups, feature, RecentConversionsLimit)
	section.ByFeature = d.featureConversions()
	return section
}

func (d *dataset) recentConversions(ups []upgrade, feature string, limit int) []RecentConversion {
	filtered := make([]upgrade, 0, len(ups))
	for _, u := range ups {
		if feature == "" || u.tl.EverUsed(feature) {
			filtered = append(filtered, u)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i].pro.Created, filtered[j].pro.Created
		if !a.Equal(b) {
			return a.After(b)
		}
		return filtered[i].tl.Email < filtered[j].tl.Email
	})
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	recent := make([]RecentConversion, 0, len(filtered))
	for _, u := range filtered {
		recent = append(recent, RecentConversion{
			Email:             MaskEmail(u.tl.Email),
			FreeDate:          u.free.Created,
			ProDate:           u.pro.Created,
			DaysToConvert:     u.days,
			Tasks:             u.pro.Detail(telemetry.DetailTasks),
			TokensChatbots:    u.pro.Detail("tokens_chatbots"),
			TokensPostsCreate: u.pro.Detail("tokens_postscreate"),
			TokensWorkflow:    u.pro.Detail("tokens_workflow"),
			TokensTotal:       u.pro.FeatureTokens(),
		})
	}
	return recent
}

// featureConversions relates each correlation feature to ever reaching Pro.
func (d *dataset) featureConversions() []FeatureConversion {
	out := make([]FeatureConversion, 0, len(d.catalog.CorrelationFeatures))
	for _, key := range d.catalog.CorrelationFeatures {
		fc := FeatureConversion{Key: key, Feature: d.catalog.FeatureLabel(key)}
		d.each(func(tl *telemetry.Timeline) {
			if !tl.EverUsed(key) {
				return
			}
			fc.TotalUsers++
			if tl.EverPro() {
				fc.ConvertedUsers++
			}
		})
		fc.Rate, _ = Rate(fc.ConvertedUsers, fc.TotalUsers)
		out = append(out, fc)
	}
	return out
}
