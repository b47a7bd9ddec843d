package ranking

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PhilVoel/Zitate-Bot/backend/internal/graph"
)

var kindTitles = map[graph.RelationKind]string{
	graph.Said:     "said",
	graph.Wrote:    "written",
	graph.Assisted: "assisted",
}

// FormatPercent renders a percentage without trailing zeros ("25", "33.33")
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// FormatRanking renders a ranking as numbered lines
func FormatRanking(kind graph.RelationKind, entries []Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ranking of %s quotes:", kindTitles[kind])
	if len(entries) == 0 {
		b.WriteString("\nNo entries yet.")
		return b.String()
	}
	for i, e := range entries {
		fmt.Fprintf(&b, "\n%02d.: %s: %d (%s%%)", i+1, e.Name, e.Count, FormatPercent(e.Percentage))
	}
	return b.String()
}

// FormatStats renders one user's stats
func FormatStats(s *Stats) string {
	return fmt.Sprintf("Stats for %s:\nSaid: %d (%s%%)\nWrote: %d (%s%%)\nAssisted: %d (%s%%)",
		s.Name,
		s.Said, FormatPercent(s.SaidPct),
		s.Wrote, FormatPercent(s.WrotePct),
		s.Assisted, FormatPercent(s.AssistedPct),
	)
}
