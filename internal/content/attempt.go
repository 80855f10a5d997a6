package content

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/verte-zerg/tuishadow/internal/model"
)

// AttemptFile is the JSON shape of a recorded attempt. Each sentence carries
// either raw onsets or timestamped words from a speech-to-timing tool.
type AttemptFile struct {
	Sentences []SentenceAttempt `json:"sentences"`
}

// SentenceAttempt holds the learner timing for one reference sentence.
type SentenceAttempt struct {
	Onsets []float64 `json:"onsets,omitempty"`
	Words  []Word    `json:"words,omitempty"`
}

// Word is a timestamped token; only Start is used for scoring.
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Type  string  `json:"type,omitempty"` // "word", "spacing", "audio_event"
}

// DecodeAttempts parses an attempt file into observed attempts, one per sentence.
func DecodeAttempts(r io.Reader) ([]model.ObservedAttempt, error) {
	var f AttemptFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode attempt json: %w", err)
	}
	out := make([]model.ObservedAttempt, len(f.Sentences))
	for i, sa := range f.Sentences {
		if len(sa.Onsets) > 0 && len(sa.Words) > 0 {
			return nil, fmt.Errorf("sentence %d: use either onsets or words, not both", i)
		}
		if len(sa.Onsets) > 0 {
			out[i] = model.ObservedAttempt{Onsets: append([]float64(nil), sa.Onsets...)}
			continue
		}
		onsets := make([]float64, 0, len(sa.Words))
		for _, w := range sa.Words {
			switch w.Type {
			case "", "word":
				onsets = append(onsets, w.Start)
			}
		}
		out[i] = model.ObservedAttempt{Onsets: onsets}
	}
	return out, nil
}

// LoadAttempts reads an attempt file from disk.
func LoadAttempts(path string) ([]model.ObservedAttempt, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only attempt file.
			_ = cerr
		}
	}()
	attempts, err := DecodeAttempts(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return attempts, nil
}
