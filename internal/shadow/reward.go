package shadow

import (
	"math"

	"github.com/verte-zerg/tuishadow/internal/model"
)

// XP returns the experience reward for an overall score at level.
func (p Params) XP(level model.Level, overall float64) int {
	if !level.Valid() {
		level = model.Level1
	}
	overall = clampScore(overall)
	xp := int(math.Round(float64(p.BaseXP[level.Index()]) * overall / 100))
	if xp < 0 {
		return 0
	}
	return xp
}
