package analytics

import (
	"sort"
	"strings"
)

const (
	topPreferences = 5
	timelineDays   = 7
	dayLayout      = "2006-01-02"
)

// Preferences tallies signals by day and adopted preferences by tag across
// the cohort.
func Preferences(profiles []Profile) PreferenceAnalytics {
	adopted := make(map[string]int)
	timeline := make(map[string]map[string]int)
	totalSignals := 0

	for _, p := range profiles {
		for _, s := range p.Signals {
			totalSignals++
			if s.Timestamp.IsZero() {
				continue
			}
			date := s.Timestamp.UTC().Format(dayLayout)
			if timeline[date] == nil {
				timeline[date] = make(map[string]int)
			}
			timeline[date][s.Tag]++
		}
		for _, tag := range p.ActivePreferences() {
			adopted[tag]++
		}
	}

	counts := make([]TagCount, 0, len(adopted))
	totalAdopted := 0
	for tag, n := range adopted {
		counts = append(counts, TagCount{Tag: tag, Count: n, Percentage: percent(n, len(profiles))})
		totalAdopted += n
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Tag < counts[j].Tag
	})
	if len(counts) > topPreferences {
		counts = counts[:topPreferences]
	}

	out := PreferenceAnalytics{
		MostCommonPreferences: counts,
		PreferenceCategories:  categorize(counts),
		TotalSignals:          totalSignals,
		PreferenceTimeline:    lastDays(timeline, timelineDays),
	}
	if len(profiles) > 0 {
		out.AveragePreferencesPerStudent = round(float64(totalAdopted) / float64(len(profiles)))
	}
	return out
}

func categorize(counts []TagCount) Categories {
	c := Categories{
		Tone:  []TagCount{},
		Depth: []TagCount{},
		Lens:  []TagCount{},
		Aids:  []TagCount{},
	}
	for _, tc := range counts {
		switch {
		case strings.HasPrefix(tc.Tag, "tone:"):
			c.Tone = append(c.Tone, tc)
		case strings.HasPrefix(tc.Tag, "depth:"):
			c.Depth = append(c.Depth, tc)
		case strings.HasPrefix(tc.Tag, "lens:"):
			c.Lens = append(c.Lens, tc)
		case strings.HasPrefix(tc.Tag, "aids:"):
			c.Aids = append(c.Aids, tc)
		}
	}
	return c
}

// lastDays returns the n most recent days in ascending order.
func lastDays(timeline map[string]map[string]int, n int) []TimelineDay {
	dates := make([]string, 0, len(timeline))
	for d := range timeline {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	if len(dates) > n {
		dates = dates[len(dates)-n:]
	}
	out := make([]TimelineDay, 0, len(dates))
	for _, d := range dates {
		out = append(out, TimelineDay{Date: d, Counts: timeline[d]})
	}
	return out
}
