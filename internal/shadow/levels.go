package shadow

import (
	"errors"
	"fmt"
	"math"

	"github.com/verte-zerg/tuishadow/internal/model"
)

// DefaultLadder returns the standard four-level practice ladder.
func DefaultLadder() model.LevelLadder {
	return model.LevelLadder{
		{Speed: 0.70, Delay: 1.50, Pause: true},
		{Speed: 0.85, Delay: 1.00, Pause: true},
		{Speed: 0.95, Delay: 0.50, Pause: false},
		{Speed: 1.00, Delay: 0.00, Pause: false},
	}
}

// ValidateSettings checks a single level's playback settings.
func ValidateSettings(s model.LevelSettings) error {
	if !positive(s.Speed) {
		return fmt.Errorf("%w: level speed must be > 0, got %v", ErrInvalidInput, s.Speed)
	}
	if !nonNegative(s.Delay) {
		return fmt.Errorf("%w: level delay must be >= 0, got %v", ErrInvalidInput, s.Delay)
	}
	return nil
}

// positive reports whether x is finite and > 0. NaN is rejected.
func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}

// nonNegative reports whether x is finite and >= 0. NaN is rejected.
func nonNegative(x float64) bool {
	return x >= 0 && !math.IsInf(x, 1)
}

// ValidateLadder checks that each level is strictly harder than the one before.
func ValidateLadder(l model.LevelLadder) error {
	var errs []error
	for i, s := range l {
		if err := ValidateSettings(s); err != nil {
			errs = append(errs, fmt.Errorf("level%d: %w", i+1, err))
			continue
		}
		if i == 0 {
			continue
		}
		prev := l[i-1]
		if s.Speed < prev.Speed {
			errs = append(errs, fmt.Errorf("level%d: speed %v is slower than level%d", i+1, s.Speed, i))
		}
		if s.Delay > prev.Delay {
			errs = append(errs, fmt.Errorf("level%d: delay %v is longer than level%d", i+1, s.Delay, i))
		}
		if s.Pause && !prev.Pause {
			errs = append(errs, fmt.Errorf("level%d: pause cannot return after level%d drops it", i+1, i))
		}
		harder := s.Speed > prev.Speed || s.Delay < prev.Delay || (prev.Pause && !s.Pause)
		if !harder {
			errs = append(errs, fmt.Errorf("level%d: must be harder than level%d", i+1, i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}
