package shadow

import (
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"

	"github.com/verte-zerg/tuishadow/internal/model"
)

// Unit is one syllable or word of a reference sentence. Start and End are
// byte offsets into the NFC-normalized text.
type Unit struct {
	Text  string
	Start int
	End   int
}

// Normalize returns text in NFC so Hangul jamo sequences compose into syllables.
func Normalize(text string) string {
	return norm.NFC.String(text)
}

// Segment splits text into scoring units.
func Segment(text string, mode model.Segmentation) []Unit {
	text = Normalize(text)
	switch resolveSegmentation(text, mode) {
	case model.SegmentWord:
		return segmentWords(text)
	default:
		return segmentSyllables(text)
	}
}

func resolveSegmentation(text string, mode model.Segmentation) model.Segmentation {
	switch mode {
	case model.SegmentSyllable, model.SegmentWord:
		return mode
	}
	for _, r := range text {
		if unicode.Is(unicode.Hangul, r) {
			return model.SegmentSyllable
		}
	}
	return model.SegmentWord
}

func segmentSyllables(text string) []Unit {
	var units []Unit
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		cluster := g.Str()
		if !hasLetterOrDigit(cluster) {
			continue
		}
		from, to := g.Positions()
		units = append(units, Unit{Text: cluster, Start: from, End: to})
	}
	return units
}

func segmentWords(text string) []Unit {
	var units []Unit
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		if word := text[start:end]; hasLetterOrDigit(word) {
			units = append(units, Unit{Text: word, Start: start, End: end})
		}
		start = -1
	}
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			flush(i)
		} else if start < 0 {
			start = i
		}
		i += size
	}
	flush(len(text))
	return units
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
