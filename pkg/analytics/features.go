package analytics

import (
	"sort"

	"github.com/platinummonkey/aiwu-analytics/pkg/telemetry"
)

func (d *dataset) featureUsage() []FeatureUsage {
	usage := make([]FeatureUsage, 0, len(d.catalog.Features))
	for _, f := range d.catalog.Features {
		u := FeatureUsage{Key: f.Key, Feature: f.Label}
		d.each(func(tl *telemetry.Timeline) {
			used := false
			for _, r := range tl.Records {
				if v := r.Details[f.Key]; v > 0 {
					u.TotalTokens += v
					used = true
				}
			}
			if !used {
				return
			}
			u.Users++
			latest, _ := tl.LatestPositive(f.Key)
			u.LatestTokens += latest
		})
		usage = append(usage, u)
	}
	return usage
}

func (d *dataset) features() FeaturesSection {
	byUsers := d.featureUsage()
	byTokens := append([]FeatureUsage(nil), byUsers...)

	sort.SliceStable(byUsers, func(i, j int) bool {
		if byUsers[i].Users != byUsers[j].Users {
			return byUsers[i].Users > byUsers[j].Users
		}
		return byUsers[i].Key < byUsers[j].Key
	})
	sort.SliceStable(byTokens, func(i, j int) bool {
		if byTokens[i].TotalTokens != byTokens[j].TotalTokens {
			return byTokens[i].TotalTokens > byTokens[j].TotalTokens
		}
		return byTokens[i].Key < byTokens[j].Key
	})

	providers := make([]ProviderUsage, 0, len(d.catalog.Providers))
	for _, p := range d.catalog.Providers {
		n := 0
		d.each(func(tl *telemetry.Timeline) {
			if tl.EverUsed(p.Key) {
				n++
			}
		})
		providers = append(providers, ProviderUsage{
			Key:        p.Key,
			Provider:   p.Label,
			Count:      n,
			Percentage: Share(n, len(d.emails)),
		})
	}

	return FeaturesSection{ByUsers: byUsers, ByTokens: byTokens, ByProvider: providers}
}
