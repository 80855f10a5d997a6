// Package content loads shadowing content items from YAML files.
package content

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/tuishadow/internal/model"
	"github.com/verte-zerg/tuishadow/internal/shadow"
)

// ErrUnknownContent is returned for ids that are not in the catalog.
var ErrUnknownContent = errors.New("unknown content")

// Item is a validated content item.
type Item struct {
	ID           model.ContentID
	Title        string
	Drama        string
	Episode      int
	Segmentation model.Segmentation
	Levels       model.LevelLadder
	Sentences    []model.ReferenceSentence
}

// Settings returns the playback settings for level.
func (it Item) Settings(level model.Level) model.LevelSettings {
	return it.Levels.For(level)
}

// Units returns the total number of scoring units across all sentences.
func (it Item) Units() int {
	total := 0
	for _, s := range it.Sentences {
		total += len(shadow.Segment(s.Text, it.Segmentation))
	}
	return total
}

// itemFile is the on-disk shape of a content item.
//
//	id: crash-landing-ep1
//	title: "At the border"
//	drama: "Crash Landing on You"
//	episode: 1
//	segmentation: auto
//	levels:
//	  level1: {speed: 0.6}
//	sentences:
//	  - text: "괜찮아요?"
//	    start: 12.4
//	    end: 13.6
//	    speed: 3.3
//	    emphasis: [0]
//	    tone: worried
type itemFile struct {
	ID           string         `yaml:"id"`
	Title        string         `yaml:"title"`
	Drama        string         `yaml:"drama"`
	Episode      int            `yaml:"episode"`
	Segmentation string         `yaml:"segmentation"`
	Levels       *ladderFile    `yaml:"levels"`
	Sentences    []sentenceFile `yaml:"sentences"`
}

type ladderFile struct {
	Level1 *levelFile `yaml:"level1"`
	Level2 *levelFile `yaml:"level2"`
	Level3 *levelFile `yaml:"level3"`
	Level4 *levelFile `yaml:"level4"`
}

type levelFile struct {
	Speed *float64 `yaml:"speed"`
	Delay *float64 `yaml:"delay"`
	Pause *bool    `yaml:"pause"`
}

type sentenceFile struct {
	Text     string    `yaml:"text"`
	Start    float64   `yaml:"start"`
	End      float64   `yaml:"end"`
	Speed    float64   `yaml:"speed"`
	Emphasis []int     `yaml:"emphasis"`
	Tone     string    `yaml:"tone"`
	Onsets   []float64 `yaml:"onsets"`
}

// Decode parses and validates a content item from YAML.
func Decode(r io.Reader) (Item, error) {
	var f itemFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return Item{}, fmt.Errorf("decode content yaml: %w", err)
	}
	return f.toItem()
}

// LoadFile reads a single content file.
func LoadFile(path string) (Item, error) {
	file, err := os.Open(path)
	if err != nil {
		return Item{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only content file.
			_ = cerr
		}
	}()
	item, err := Decode(file)
	if err != nil {
		return Item{}, fmt.Errorf("%s: %w", path, err)
	}
	return item, nil
}

func (f itemFile) toItem() (Item, error) {
	id, err := model.ParseContentID(f.ID)
	if err != nil {
		return Item{}, err
	}
	seg, err := parseSegmentation(f.Segmentation)
	if err != nil {
		return Item{}, fmt.Errorf("content %s: %w", id, err)
	}
	ladder := f.Levels.apply(shadow.DefaultLadder())
	if err := shadow.ValidateLadder(ladder); err != nil {
		return Item{}, fmt.Errorf("content %s levels: %w", id, err)
	}
	if len(f.Sentences) == 0 {
		return Item{}, fmt.Errorf("content %s: %w: no sentences", id, shadow.ErrInvalidInput)
	}

	item := Item{
		ID:           id,
		Title:        strings.TrimSpace(f.Title),
		Drama:        strings.TrimSpace(f.Drama),
		Episode:      f.Episode,
		Segmentation: seg,
		Levels:       ladder,
		Sentences:    make([]model.ReferenceSentence, 0, len(f.Sentences)),
	}
	for i, sf := range f.Sentences {
		s := model.ReferenceSentence{
			Text:      shadow.Normalize(strings.TrimSpace(sf.Text)),
			StartTime: sf.Start,
			EndTime:   sf.End,
			Speed:     sf.Speed,
			Emphasis:  sf.Emphasis,
			Tone:      sf.Tone,
			Onsets:    sf.Onsets,
		}
		if err := shadow.ValidateSentence(s, len(shadow.Segment(s.Text, seg))); err != nil {
			return Item{}, fmt.Errorf("content %s sentence %d: %w", id, i, err)
		}
		if i > 0 {
			prev := item.Sentences[i-1]
			if s.StartTime < prev.StartTime {
				return Item{}, fmt.Errorf("content %s sentence %d: %w: starts before sentence %d", id, i, shadow.ErrInvalidInput, i-1)
			}
			if s.StartTime < prev.EndTime {
				return Item{}, fmt.Errorf("content %s sentence %d: %w: overlaps sentence %d", id, i, shadow.ErrInvalidInput, i-1)
			}
		}
		item.Sentences = append(item.Sentences, s)
	}
	return item, nil
}

func parseSegmentation(raw string) (model.Segmentation, error) {
	switch seg := model.Segmentation(strings.ToLower(strings.TrimSpace(raw))); seg {
	case "":
		return model.SegmentAuto, nil
	case model.SegmentAuto, model.SegmentSyllable, model.SegmentWord:
		return seg, nil
	default:
		return "", fmt.Errorf("unknown segmentation %q", raw)
	}
}

func (l *ladderFile) apply(base model.LevelLadder) model.LevelLadder {
	if l == nil {
		return base
	}
	for i, lf := range []*levelFile{l.Level1, l.Level2, l.Level3, l.Level4} {
		if lf == nil {
			continue
		}
		if lf.Speed != nil {
			base[i].Speed = *lf.Speed
		}
		if lf.Delay != nil {
			base[i].Delay = *lf.Delay
		}
		if lf.Pause != nil {
			base[i].Pause = *lf.Pause
		}
	}
	return base
}

// Catalog maps content ids to validated items.
type Catalog struct {
	items map[model.ContentID]Item
}

// NewCatalog builds a catalog, rejecting duplicate ids.
func NewCatalog(items ...Item) (*Catalog, error) {
	c := &Catalog{items: make(map[model.ContentID]Item, len(items))}
	for _, it := range items {
		if _, ok := c.items[it.ID]; ok {
			return nil, fmt.Errorf("duplicate content id %q", it.ID)
		}
		c.items[it.ID] = it
	}
	return c, nil
}

// LoadDir loads every .yaml/.yml file in dir. A missing directory yields an empty catalog.
func LoadDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return NewCatalog()
		}
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	items := make([]Item, 0, len(names))
	for _, name := range names {
		item, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return NewCatalog(items...)
}

// Get returns the item for id.
func (c *Catalog) Get(id model.ContentID) (Item, error) {
	item, ok := c.items[id]
	if !ok {
		return Item{}, fmt.Errorf("%w: %q", ErrUnknownContent, id)
	}
	return item, nil
}

// Lookup parses raw and returns the matching item.
func (c *Catalog) Lookup(raw string) (Item, error) {
	id, err := model.ParseContentID(raw)
	if err != nil {
		return Item{}, fmt.Errorf("%w: %w", ErrUnknownContent, err)
	}
	return c.Get(id)
}

// Items returns all items sorted by id.
func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}
