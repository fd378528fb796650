package analytics

import "sort"

const problematicDismissalRate = 70

// Nudges aggregates the stored dismissal counters. A tag counts as
// accepted for a student who holds it as a preference and dismissed it at
// least once before; nudges accepted on first sight never reach these
// counters. NudgeFunnel has the event-based view.
func Nudges(profiles []Profile) NudgeAnalytics {
	shown := make(map[string]int)
	accepted := make(map[string]int)

	for _, p := range profiles {
		for tag, n := range p.Nudges {
			shown[tag] += n
			if n > 0 && p.Preferences[tag].Default {
				accepted[tag]++
			}
		}
	}

	stats := make([]NudgeStat, 0, len(shown))
	totalShown, totalAccepted := 0, 0
	for tag, n := range shown {
		stats = append(stats, NudgeStat{
			Tag:            tag,
			TotalShown:     n,
			Accepted:       accepted[tag],
			Dismissed:      n,
			AcceptanceRate: percent(accepted[tag], n),
			DismissalRate:  percent(n, n),
		})
		totalShown += n
		totalAccepted += accepted[tag]
	}
	sortNudgeStats(stats)

	problematic := []NudgeStat{}
	for _, s := range stats {
		if s.DismissalRate > problematicDismissalRate {
			problematic = append(problematic, s)
		}
	}

	out := NudgeAnalytics{
		NudgeEffectiveness:    stats,
		ProblematicNudges:     problematic,
		OverallAcceptanceRate: percent(totalAccepted, totalShown),
		TotalNudgesShown:      totalShown,
		TotalNudgesAccepted:   totalAccepted,
	}
	if len(profiles) > 0 {
		out.AverageNudgesPerStudent = round(float64(totalShown) / float64(len(profiles)))
	}
	return out
}

func sortNudgeStats(stats []NudgeStat) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].AcceptanceRate != stats[j].AcceptanceRate {
			return stats[i].AcceptanceRate > stats[j].AcceptanceRate
		}
		return stats[i].Tag < stats[j].Tag
	})
}

// NudgeFunnel counts nudge_shown, nudge_accepted and nudge_dismissed events
// per tag. The tag is read from the nudgeType property.
func NudgeFunnel(events []Event) []FunnelStat {
	byTag := make(map[string]*FunnelStat)
	get := func(tag string) *FunnelStat {
		s, ok := byTag[tag]
		if !ok {
			s = &FunnelStat{Tag: tag}
			byTag[tag] = s
		}
		return s
	}

	for _, e := range events {
		var counter func(*FunnelStat)
		switch e.Name {
		case EventNudgeShown:
			counter = func(s *FunnelStat) { s.Shown++ }
		case EventNudgeAccepted:
			counter = func(s *FunnelStat) { s.Accepted++ }
		case EventNudgeDismissed:
			counter = func(s *FunnelStat) { s.Dismissed++ }
		default:
			continue
		}
		tag := e.stringProp("nudgeType")
		if tag == "" {
			tag = e.stringProp("tag")
		}
		if tag == "" {
			continue
		}
		counter(get(tag))
	}

	out := make([]FunnelStat, 0, len(byTag))
	for _, s := range byTag {
		s.AcceptanceRate = percent(s.Accepted, s.Shown)
		s.DismissalRate = percent(s.Dismissed, s.Shown)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Shown != out[j].Shown {
			return out[i].Shown > out[j].Shown
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}
