// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/tuishadow/internal/model"
)

const (
	sparkChars        = " .:-=+*#%@"
	summaryTopContent = 3
)

// Metrics summarizes a run of attempts.
type Metrics struct {
	Attempts   int
	AvgOverall float64
	AvgRhythm  float64
	AvgTiming  float64
	Best       float64
	XP         int
}

// AttemptMetrics averages the scores of records.
func AttemptMetrics(records []model.AttemptRecord) Metrics {
	m := Metrics{Attempts: len(records)}
	if len(records) == 0 {
		return m
	}
	for _, r := range records {
		m.AvgOverall += r.Overall
		m.AvgRhythm += r.Rhythm
		m.AvgTiming += r.Timing
		m.XP += r.XP
		if r.Overall > m.Best {
			m.Best = r.Overall
		}
	}
	n := float64(len(records))
	m.AvgOverall /= n
	m.AvgRhythm /= n
	m.AvgTiming /= n
	return m
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

// Sparkline renders scores on a fixed 0..100 scale as one line of ASCII.
func Sparkline(scores []float64) string {
	var b strings.Builder
	top := float64(len(sparkChars) - 1)
	for _, v := range scores {
		if math.IsNaN(v) {
			v = 0
		}
		idx := int(math.Round(math.Max(0, math.Min(100, v)) / 100 * top))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

func overallSeries(records []model.AttemptRecord) (overall, rhythm, timing []float64) {
	overall = make([]float64, len(records))
	rhythm = make([]float64, len(records))
	timing = make([]float64, len(records))
	for i, r := range records {
		overall[i] = r.Overall
		rhythm[i] = r.Rhythm
		timing[i] = r.Timing
	}
	return overall, rhythm, timing
}

// RenderSummary prints the headline numbers of a report.
func RenderSummary(w io.Writer, report Report) error {
	if len(report.Attempts) == 0 {
		_, err := fmt.Fprintln(w, "No attempts found.")
		return err
	}
	m := AttemptMetrics(report.Attempts)
	overall, _, _ := overallSeries(report.Attempts)
	lines := []string{
		"Summary",
		fmt.Sprintf("Attempts: %d", m.Attempts),
		fmt.Sprintf("Avg overall: %.1f", m.AvgOverall),
		fmt.Sprintf("Best overall: %.1f", m.Best),
		fmt.Sprintf("Avg rhythm: %.1f", m.AvgRhythm),
		fmt.Sprintf("Avg timing: %.1f", m.AvgTiming),
		fmt.Sprintf("Content practiced: %d", len(report.Progress)),
	}
	if top := TopContentByAttempts(report.Progress, summaryTopContent); len(top) > 0 {
		ids := make([]string, len(top))
		for i, id := range top {
			ids[i] = string(id)
		}
		lines = append(lines, fmt.Sprintf("Most practiced: %s", strings.Join(ids, ", ")))
	}
	lines = append(lines,
		fmt.Sprintf("Total XP: %d", report.TotalXP),
		fmt.Sprintf("Trend: %s", Sparkline(overall)),
		"",
	)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints overall, rhythm and timing learning curves.
func RenderCurves(w io.Writer, records []model.AttemptRecord, window int) error {
	return RenderCurvesWithSize(w, records, window, 0, defaultPlotHeight, false)
}

// RenderCurvesWithSize prints learning curves sized to a given total width.
func RenderCurvesWithSize(w io.Writer, records []model.AttemptRecord, window, totalWidth, height int, useColor bool) error {
	if len(records) == 0 {
		return nil
	}
	overall, rhythm, timing := overallSeries(records)
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotScores(w, "Learning Curves", []Series{
		{Name: "Overall", Values: MovingAverage(overall, window)},
		{Name: "Rhythm", Values: MovingAverage(rhythm, window)},
		{Name: "Timing", Values: MovingAverage(timing, window)},
	}, width, height, useColor)
}

// RenderProgressTable prints per-content progress. titles maps ids to
// display titles; missing titles print the id alone.
func RenderProgressTable(w io.Writer, entries []model.ProgressEntry, titles map[model.ContentID]string) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No progress yet.")
		return err
	}
	headers := []string{"Content", "Title", "Level", "Attempts", "Best", "Rhythm", "Timing", "Last practiced"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		p := e.Progress
		last := "-"
		if p.LastPracticed != nil {
			last = p.LastPracticed.Local().Format(time.DateTime)
		}
		rows = append(rows, []string{
			string(e.ContentID),
			titles[e.ContentID],
			p.Level.String(),
			fmt.Sprintf("%d", p.Attempts),
			fmt.Sprintf("%.1f", p.BestScore),
			fmt.Sprintf("%.1f", p.RhythmAccuracy),
			fmt.Sprintf("%.1f", p.TimingAccuracy),
			last,
		})
	}
	if err := RenderTable(w, headers, rows, map[int]bool{3: true, 4: true, 5: true, 6: true}); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
