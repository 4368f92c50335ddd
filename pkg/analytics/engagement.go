package analytics

import (
	"github.com/platinummonkey/aiwu-analytics/pkg/telemetry"
)

// Segment thresholds on the token total of the latest ping.
const (
	LightMaxTokens  = 10000
	MediumMaxTokens = 100000
)

var segmentLabels = []string{"Dead", "Light", "Medium", "Heavy"}

var multiFeatureLabels = []string{"0", "1", "2", "3+"}

func segmentOf(tokens int64) int {
	switch {
	case tokens <= 0:
		return 0
	case tokens <= LightMaxTokens:
		return 1
	case tokens <= MediumMaxTokens:
		return 2
	default:
		return 3
	}
}

func multiFeatureOf(n int) int {
	if n >= 3 {
		return 3
	}
	return n
}

func buckets(labels []string, counts []int, total int) []Bucket {
	out := make([]Bucket, len(labels))
	for i, label := range labels {
		out[i] = Bucket{Label: label, Count: counts[i], Percentage: Share(counts[i], total)}
	}
	return out
}

// engagement segments users by the latest ping only, so each user with any
// ping lands in exactly one bucket of every distribution.
func (d *dataset) engagement() EngagementSection {
	segments := make([]int, len(segmentLabels))
	multi := make([]int, len(multiFeatureLabels))
	providers := make([]int, len(d.catalog.Providers))
	total := 0

	d.each(func(tl *telemetry.Timeline) {
		ping := tl.LatestPing()
		if ping == nil {
			return
		}
		total++
		segments[segmentOf(ping.FeatureTokens())]++
		multi[multiFeatureOf(ping.FeaturesUsed())]++
		for i, p := range d.catalog.Providers {
			if ping.Detail(p.Key) > 0 {
				providers[i]++
			}
		}
	})

	section := EngagementSection{
		TotalUsers:   total,
		Segments:     buckets(segmentLabels, segments, total),
		MultiFeature: buckets(multiFeatureLabels, multi, total),
		Providers:    make([]ProviderUsage, 0, len(d.catalog.Providers)),
	}
	for i, p := range d.catalog.Providers {
		section.Providers = append(section.Providers, ProviderUsage{
			Key:        p.Key,
			Provider:   p.Label,
			Count:      providers[i],
			Percentage: Share(providers[i], total),
		})
	}
	return section
}
