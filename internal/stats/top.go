package stats

import (
	"sort"

	"github.com/verte-zerg/tuishadow/internal/model"
)

// TopContentByAttempts returns the n most practiced content ids.
func TopContentByAttempts(entries []model.ProgressEntry, n int) []model.ContentID {
	if n <= 0 || len(entries) == 0 {
		return nil
	}
	sorted := make([]model.ProgressEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		ai, aj := sorted[i].Progress.Attempts, sorted[j].Progress.Attempts
		if ai == aj {
			return sorted[i].ContentID < sorted[j].ContentID
		}
		return ai > aj
	})
	n = min(n, len(sorted))
	out := make([]model.ContentID, n)
	for i := range out {
		out[i] = sorted[i].ContentID
	}
	return out
}
