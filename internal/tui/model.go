// Package tui provides the Bubble Tea shadowing interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuishadow/internal/content"
	"github.com/verte-zerg/tuishadow/internal/model"
	"github.com/verte-zerg/tuishadow/internal/practice"
	"github.com/verte-zerg/tuishadow/internal/shadow"
)

const (
	tickInterval = 40 * time.Millisecond
	// captureGrace is how long capture stays open after the expected span.
	captureGrace = 2.0
)

// Service is what the practice screen needs from the practice layer.
type Service interface {
	Session(ctx context.Context, learner string, id model.ContentID) (content.Item, model.ShadowProgress, error)
	Submit(ctx context.Context, learner string, id model.ContentID, attempts []model.ObservedAttempt) (practice.Outcome, error)
	Settings(item content.Item, level model.Level) model.LevelSettings
}

type phase int

const (
	phaseReady phase = iota
	phaseListen
	phaseCue
	phaseCapture
	phaseScoring
	phaseResult
)

type tickMsg struct{ gen int }

type submitMsg struct {
	outcome practice.Outcome
	err     error
}

// Model implements the Bubble Tea practice UI.
type Model struct {
	svc     Service
	learner string
	next    func() (model.ContentID, bool)
	now     func() time.Time
	totalXP int

	width  int
	height int

	item     content.Item
	progress model.ShadowProgress
	settings model.LevelSettings

	sentence int
	text     string
	units    []shadow.Unit
	offsets  []float64
	taps     []float64
	attempts []model.ObservedAttempt

	phase   phase
	started time.Time
	gen     int

	outcome *practice.Outcome
	err     error
}

var (
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	playingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	playedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	tappedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7CC576"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel loads the first content item. next supplies the item that follows
// a finished one; totalXP seeds the footer.
func NewModel(svc Service, learner string, first model.ContentID, next func() (model.ContentID, bool), totalXP int) (*Model, error) {
	m := &Model{
		svc:     svc,
		learner: learner,
		next:    next,
		now:     time.Now,
		totalXP: totalXP,
	}
	if err := m.load(first); err != nil {
		return nil, err
	}
	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		return m, m.onTick()
	case submitMsg:
		m.onSubmitted(msg)
		return m, nil
	case tea.KeyMsg:
		return m.onKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeySpace:
		return m, m.tap()
	case tea.KeyEnter:
		switch m.phase {
		case phaseReady:
			return m, m.start()
		case phaseResult:
			m.advance()
		}
		return m, nil
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			if m.phase == phaseReady || m.phase == phaseResult {
				return m, tea.Quit
			}
		case "r":
			if m.phase == phaseResult {
				m.retry()
			}
		case "n":
			if m.phase == phaseResult {
				m.advance()
			}
		}
	}
	return m, nil
}

func (m *Model) load(id model.ContentID) error {
	item, progress, err := m.svc.Session(context.Background(), m.learner, id)
	if err != nil {
		return err
	}
	m.item = item
	m.progress = progress
	m.settings = m.svc.Settings(item, progress.Level)
	m.sentence = 0
	m.attempts = nil
	m.outcome = nil
	m.err = nil
	m.phase = phaseReady
	m.prepareSentence()
	return nil
}

func (m *Model) prepareSentence() {
	s := m.item.Sentences[m.sentence]
	m.text = shadow.Normalize(s.Text)
	m.units = shadow.Segment(m.text, m.item.Segmentation)
	playback := m.settings
	playback.Delay = 0
	offsets, err := shadow.ExpectedOnsets(s, len(m.units), playback)
	if err != nil {
		offsets = make([]float64, len(m.units))
	}
	m.offsets = offsets
	m.taps = nil
}

func (m *Model) retry() {
	if err := m.load(m.item.ID); err != nil {
		m.err = err
	}
}

func (m *Model) advance() {
	id := m.item.ID
	if m.next != nil {
		if nextID, ok := m.next(); ok {
			id = nextID
		}
	}
	if err := m.load(id); err != nil {
		m.err = err
	}
}

func (m *Model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (m *Model) enter(p phase) {
	m.phase = p
	m.started = m.now()
	m.gen++
}

// start plays the reference first in pause mode; otherwise the learner is
// cued together with playback.
func (m *Model) start() tea.Cmd {
	if m.settings.Pause {
		m.enter(phaseListen)
	} else {
		m.enter(phaseCue)
	}
	return m.tick()
}

func (m *Model) elapsed() float64 {
	return m.now().Sub(m.started).Seconds()
}

func (m *Model) playbackSpan() float64 {
	return m.item.Sentences[m.sentence].Duration() / m.settings.Speed
}

func (m *Model) onTick() tea.Cmd {
	t := m.elapsed()
	switch m.phase {
	case phaseListen:
		if t >= m.playbackSpan() {
			m.enter(phaseCue)
		}
	case phaseCue, phaseCapture:
		if t >= m.settings.Delay+m.playbackSpan()+captureGrace {
			return m.finishSentence()
		}
		if m.phase == phaseCue && t >= m.settings.Delay {
			m.phase = phaseCapture
		}
	default:
		return nil
	}
	return m.tick()
}

func (m *Model) tap() tea.Cmd {
	if m.phase != phaseCue && m.phase != phaseCapture {
		return nil
	}
	if len(m.taps) >= len(m.units) {
		return nil
	}
	m.taps = append(m.taps, m.elapsed())
	if len(m.taps) == len(m.units) {
		return m.finishSentence()
	}
	return nil
}

func (m *Model) finishSentence() tea.Cmd {
	m.attempts = append(m.attempts, model.ObservedAttempt{Onsets: m.taps})
	m.sentence++
	if m.sentence < len(m.item.Sentences) {
		m.prepareSentence()
		return m.start()
	}
	m.sentence = len(m.item.Sentences) - 1
	m.enter(phaseScoring)
	svc, learner, id, attempts := m.svc, m.learner, m.item.ID, m.attempts
	return func() tea.Msg {
		out, err := svc.Submit(context.Background(), learner, id, attempts)
		return submitMsg{outcome: out, err: err}
	}
}

func (m *Model) onSubmitted(msg submitMsg) {
	m.phase = phaseResult
	if msg.err != nil {
		m.err = msg.err
		return
	}
	out := msg.outcome
	m.outcome = &out
	m.progress = out.Progress
	m.totalXP += out.Result.XP
}

// unitStates reports what each unit of the current sentence looks like now.
func (m *Model) unitStates() []unitState {
	states := make([]unitState, len(m.units))
	playing := m.phase == phaseListen || (!m.settings.Pause && (m.phase == phaseCue || m.phase == phaseCapture))
	t := m.elapsed()
	current := -1
	if playing && t < m.playbackSpan() {
		for i, off := range m.offsets {
			if t >= off {
				current = i
			}
		}
	}
	for i := range states {
		switch {
		case i < len(m.taps):
			states[i] = unitTapped
		case i == current:
			states[i] = unitPlaying
		case i < current:
			states[i] = unitPlayed
		}
	}
	return states
}

// View implements tea.Model.
func (m *Model) View() string {
	cells := buildStyledCells(m.text, m.units, m.unitStates(), m.item.Sentences[m.sentence].Emphasis)
	sections := []string{m.renderHeader(), "", wrapCells(cells, m.contentWidth()), "", m.renderStatus()}
	body := strings.Join(sections, "\n")
	if m.width == 0 || m.height == 0 {
		return body + "\n" + m.renderFooter()
	}
	content := lipgloss.NewStyle().Width(m.contentWidth()).Render(body)
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	main := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footer := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, m.renderFooter())
	return main + "\n" + footer
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 0
	}
	return max(1, int(float64(m.width)*0.70))
}

func (m *Model) renderHeader() string {
	title := m.item.Title
	if title == "" {
		title = string(m.item.ID)
	}
	if m.item.Drama != "" {
		title = fmt.Sprintf("%s · %s ep%d", title, m.item.Drama, m.item.Episode)
	}
	mode := "shadow"
	if m.settings.Pause {
		mode = "listen, then repeat"
	}
	return titleStyle.Render(title) + "\n" + footerStyle.Render(fmt.Sprintf(
		"%s · %.2fx · %s · sentence %d/%d",
		m.progress.Level, m.settings.Speed, mode, m.sentence+1, len(m.item.Sentences)))
}

func (m *Model) renderStatus() string {
	switch m.phase {
	case phaseReady:
		return "enter to start · space on each syllable · q to quit"
	case phaseListen:
		return "listen…"
	case phaseCue:
		return fmt.Sprintf("get ready %.1fs · %d/%d", max(0, m.settings.Delay-m.elapsed()), len(m.taps), len(m.units))
	case phaseCapture:
		return fmt.Sprintf("go! %d/%d", len(m.taps), len(m.units))
	case phaseScoring:
		return "scoring…"
	}
	if m.err != nil {
		if errors.Is(m.err, shadow.ErrInvalidInput) {
			return errorStyle.Render("could not score: "+m.err.Error()) + "\nr retry · q quit"
		}
		return errorStyle.Render(m.err.Error()) + "\nr retry · q quit"
	}
	if m.outcome == nil {
		return ""
	}
	return renderOutcome(*m.outcome) + "\nr retry · enter next · q quit"
}

func renderOutcome(out practice.Outcome) string {
	res := out.Result
	lines := []string{
		fmt.Sprintf("%s  overall %d · rhythm %d · timing %d · +%d xp",
			feedbackLabel(res.Feedback), res.Scores.Overall, res.Scores.Rhythm, res.Scores.Timing, res.XP),
		fmt.Sprintf("emphasis %d/%d · avg delay %+.2fs", out.Analysis.EmphasisMatches, out.Analysis.TotalEmphasis, out.Analysis.AverageDelay),
	}
	switch {
	case out.Mastered:
		lines = append(lines, tappedStyle.Render("mastered"))
	case out.LeveledUp:
		lines = append(lines, tappedStyle.Render(fmt.Sprintf("%s unlocked", out.Progress.Level)))
	}
	return strings.Join(lines, "\n")
}

func feedbackLabel(f model.Feedback) string {
	switch f {
	case model.FeedbackExcellent:
		return tappedStyle.Render("Excellent")
	case model.FeedbackGood:
		return playedStyle.Render("Good")
	case model.FeedbackFair:
		return playingStyle.Render("Fair")
	case model.FeedbackNeedsPractice:
		return playingStyle.Render("Needs practice")
	default:
		return errorStyle.Render("Try again")
	}
}

func (m *Model) renderFooter() string {
	segments := []string{
		fmt.Sprintf("Level %d", int(m.progress.Level)),
		fmt.Sprintf("Attempts %d", m.progress.Attempts),
		fmt.Sprintf("Best %.1f", m.progress.BestScore),
		fmt.Sprintf("XP %d", m.totalXP),
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
