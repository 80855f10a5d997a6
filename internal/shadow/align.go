package shadow

import (
	"fmt"
	"math"
	"sort"

	"github.com/verte-zerg/tuishadow/internal/model"
)

// UnitPair pairs an expected onset with the learner's onset for one unit.
type UnitPair struct {
	Expected float64
	Observed float64
	Matched  bool
}

// Alignment is a positional mapping of observed onsets onto reference units.
type Alignment struct {
	Units []UnitPair
	// Emphasis holds distinct stressed unit indices in ascending order.
	Emphasis []int
	// AverageDelay is the mean observed-minus-expected onset over matched units.
	AverageDelay float64
	Matched      int
}

// ValidateSentence checks a reference sentence segmented into the given number of units.
func ValidateSentence(s model.ReferenceSentence, units int) error {
	if units <= 0 {
		return fmt.Errorf("%w: sentence %q has no scoring units", ErrInvalidInput, s.Text)
	}
	if !nonNegative(s.StartTime) || !nonNegative(s.EndTime) {
		return fmt.Errorf("%w: sentence times must be finite and non-negative", ErrInvalidInput)
	}
	if !(s.EndTime > s.StartTime) {
		return fmt.Errorf("%w: sentence end %v must be after start %v", ErrInvalidInput, s.EndTime, s.StartTime)
	}
	if !positive(s.Speed) {
		return fmt.Errorf("%w: sentence speed must be > 0, got %v", ErrInvalidInput, s.Speed)
	}
	for _, idx := range s.Emphasis {
		if idx < 0 || idx >= units {
			return fmt.Errorf("%w: emphasis index %d outside %d units", ErrInvalidInput, idx, units)
		}
	}
	if len(s.Onsets) == 0 {
		return nil
	}
	if len(s.Onsets) != units {
		return fmt.Errorf("%w: %d authored onsets for %d units", ErrInvalidInput, len(s.Onsets), units)
	}
	duration := s.Duration()
	for i, onset := range s.Onsets {
		if !(onset >= 0 && onset < duration) {
			return fmt.Errorf("%w: authored onset %d (%v) outside sentence duration %v", ErrInvalidInput, i, onset, duration)
		}
		if i > 0 && onset <= s.Onsets[i-1] {
			return fmt.Errorf("%w: authored onsets must be strictly increasing at %d", ErrInvalidInput, i)
		}
	}
	return nil
}

// ExpectedOnsets rescales the reference unit onsets to the level actually played.
func ExpectedOnsets(s model.ReferenceSentence, units int, settings model.LevelSettings) ([]float64, error) {
	if err := ValidateSentence(s, units); err != nil {
		return nil, err
	}
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}
	spacing := s.Duration() / float64(units)
	out := make([]float64, units)
	for i := range out {
		offset := float64(i) * spacing
		if len(s.Onsets) > 0 {
			offset = s.Onsets[i]
		}
		out[i] = settings.Delay + offset/settings.Speed
	}
	return out, nil
}

// Align matches observed onsets to reference units by position. Reference
// units beyond the observed sequence are missing; extra observed onsets are
// ignored.
func Align(s model.ReferenceSentence, seg model.Segmentation, settings model.LevelSettings, attempt model.ObservedAttempt) (Alignment, error) {
	units := len(Segment(s.Text, seg))
	expected, err := ExpectedOnsets(s, units, settings)
	if err != nil {
		return Alignment{}, err
	}

	a := Alignment{
		Units:    make([]UnitPair, units),
		Emphasis: distinctSorted(s.Emphasis),
	}
	var delaySum float64
	for i, exp := range expected {
		a.Units[i].Expected = exp
		if i >= len(attempt.Onsets) {
			continue
		}
		obs := attempt.Onsets[i]
		if math.IsNaN(obs) || math.IsInf(obs, 0) {
			continue
		}
		a.Units[i].Observed = obs
		a.Units[i].Matched = true
		a.Matched++
		delaySum += obs - exp
	}
	if a.Matched > 0 {
		a.AverageDelay = delaySum / float64(a.Matched)
	}
	return a, nil
}

func distinctSorted(indices []int) []int {
	if len(indices) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))
	for _, idx := range indices {
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
