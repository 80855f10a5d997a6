package stats

import (
	"sort"

	"github.com/verte-zerg/tuishadow/internal/model"
)

// SelectWeakContent returns up to top content ids with the lowest best
// score. Items already at or above threshold on the final level are skipped.
func SelectWeakContent(entries []model.ProgressEntry, top int, threshold float64) []model.ContentID {
	candidates := make([]model.ProgressEntry, 0, len(entries))
	for _, e := range entries {
		if e.Progress.Level == model.MaxLevel && e.Progress.BestScore >= threshold {
			continue
		}
		candidates = append(candidates, e)
	}
	sort.Slice(candidates, func(i, j int) bool {
		bi, bj := candidates[i].Progress.BestScore, candidates[j].Progress.BestScore
		if bi == bj {
			return candidates[i].ContentID < candidates[j].ContentID
		}
		return bi < bj
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	out := make([]model.ContentID, top)
	for i := range out {
		out[i] = candidates[i].ContentID
	}
	return out
}
