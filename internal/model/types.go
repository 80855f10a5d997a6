// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// ContentID identifies a content item in the catalog.
type ContentID string

// ParseContentID validates a raw identifier.
func ParseContentID(raw string) (ContentID, error) {
	if raw == "" || len(raw) > 64 {
		return "", fmt.Errorf("content id must be 1-64 characters, got %q", raw)
	}
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '-', ch == '_':
		default:
			return "", fmt.Errorf("content id %q contains invalid character %q", raw, ch)
		}
	}
	return ContentID(raw), nil
}

// Level is one of the four practice difficulty levels.
type Level int

// Practice levels, from most scaffolded to native speed.
const (
	Level1 Level = iota + 1
	Level2
	Level3
	Level4
)

// MaxLevel is the mastery level.
const MaxLevel = Level4

// Valid reports whether l is one of the four levels.
func (l Level) Valid() bool {
	return l >= Level1 && l <= Level4
}

// Next returns the following level, saturating at Level4.
func (l Level) Next() Level {
	if l >= Level4 {
		return Level4
	}
	if l < Level1 {
		return Level1
	}
	return l + 1
}

// Index returns the zero-based position of l in a ladder.
func (l Level) Index() int {
	return int(l) - 1
}

func (l Level) String() string {
	return fmt.Sprintf("level%d", int(l))
}

// Feedback is a display category derived from the overall score.
type Feedback string

// Feedback labels, best first.
const (
	FeedbackExcellent     Feedback = "excellent"
	FeedbackGood          Feedback = "good"
	FeedbackFair          Feedback = "fair"
	FeedbackNeedsPractice Feedback = "needs_practice"
	FeedbackTryAgain      Feedback = "try_again"
)

// Segmentation selects how reference text is split into units.
type Segmentation string

// Segmentation modes.
const (
	SegmentAuto     Segmentation = "auto"
	SegmentSyllable Segmentation = "syllable"
	SegmentWord     Segmentation = "word"
)

// ReferenceSentence is one timed line of a content item.
type ReferenceSentence struct {
	Text      string
	StartTime float64
	EndTime   float64
	Speed     float64
	Emphasis  []int
	Tone      string
	// Onsets optionally lists authored unit onsets in seconds from StartTime.
	Onsets []float64
}

// Duration returns the sentence length in seconds.
func (s ReferenceSentence) Duration() float64 {
	return s.EndTime - s.StartTime
}

// LevelSettings controls how the reference is played back at a level.
type LevelSettings struct {
	Speed float64
	Delay float64
	Pause bool
}

// LevelLadder holds the settings for Level1 through Level4.
type LevelLadder [4]LevelSettings

// For returns the settings for a level.
func (l LevelLadder) For(level Level) LevelSettings {
	if !level.Valid() {
		level = Level1
	}
	return l[level.Index()]
}

// ObservedAttempt holds learner onsets in seconds from the learner cue.
type ObservedAttempt struct {
	Onsets []float64
}

// ShadowAnalysis is the full scoring output for an attempt.
type ShadowAnalysis struct {
	RhythmScore            float64
	TimingScore            float64
	OverallScore           float64
	EmphasisMatches        int
	TotalEmphasis          int
	SyllableLengthAccuracy float64
	TempoAccuracy          float64
	AverageDelay           float64
	Units                  int
	MatchedUnits           int
}

// Scores are display-rounded scores.
type Scores struct {
	Rhythm  int
	Timing  int
	Overall int
}

// ShadowResult is returned to the caller after an attempt.
type ShadowResult struct {
	Scores   Scores
	Feedback Feedback
	XP       int
	Level    Level
}

// ShadowProgress tracks one learner on one content item.
type ShadowProgress struct {
	Attempts       int
	BestScore      float64
	RhythmAccuracy float64
	TimingAccuracy float64
	Level          Level
	LastPracticed  *time.Time
}

// NewShadowProgress returns the state before the first attempt.
func NewShadowProgress() ShadowProgress {
	return ShadowProgress{Level: Level1}
}

// AttemptRecord is a persisted attempt history row.
type AttemptRecord struct {
	ID          string
	Learner     string
	ContentID   ContentID
	Level       Level
	Rhythm      float64
	Timing      float64
	Overall     float64
	Feedback    Feedback
	XP          int
	PracticedAt time.Time
}

// ProgressEntry pairs stored progress with its content id.
type ProgressEntry struct {
	ContentID ContentID
	Progress  ShadowProgress
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Learner     string
	ContentID   ContentID
	Since       *time.Time
	Last        int
	CurveWindow int
}
