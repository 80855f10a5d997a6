package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuishadow/internal/content"
	"github.com/verte-zerg/tuishadow/internal/generator"
	"github.com/verte-zerg/tuishadow/internal/model"
	"github.com/verte-zerg/tuishadow/internal/practice"
	"github.com/verte-zerg/tuishadow/internal/shadow"
	"github.com/verte-zerg/tuishadow/internal/stats"
	"github.com/verte-zerg/tuishadow/internal/statsui"
)

const upNextCount = 3

var (
	scoreContent string
	scoreAttempt string
	scoreLevel   int

	progressWeak int

	statsContent     string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a recorded attempt file",
		Args:  cobra.NoArgs,
		RunE:  runScoreCmd,
	}
	cmd.Flags().StringVar(&scoreContent, "content", "", "content id the attempt shadows")
	cmd.Flags().StringVar(&scoreAttempt, "attempt", "", "path to the attempt JSON file")
	cmd.Flags().IntVar(&scoreLevel, "level", 0, "score at this level without saving progress (1-4)")
	_ = cmd.MarkFlagRequired("content")
	_ = cmd.MarkFlagRequired("attempt")
	return cmd
}

func runScoreCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	item, err := a.catalog.Lookup(scoreContent)
	if err != nil {
		return err
	}
	attempts, err := content.LoadAttempts(scoreAttempt)
	if err != nil {
		return fmt.Errorf("could not score: %w", err)
	}

	out := cmd.OutOrStdout()
	if scoreLevel != 0 {
		result, analysis, err := a.svc.Preview(item.ID, model.Level(scoreLevel), attempts)
		if err != nil {
			return wrapScoreErr(err)
		}
		writeResult(out, item, result, analysis)
		_, _ = fmt.Fprintln(out, "(preview, progress not saved)")
		return nil
	}

	outcome, err := a.svc.Submit(commandContext(cmd), a.settings.learner, item.ID, attempts)
	if err != nil {
		return wrapScoreErr(err)
	}
	writeOutcome(out, item, outcome)
	return nil
}

func wrapScoreErr(err error) error {
	if errors.Is(err, shadow.ErrInvalidInput) {
		return fmt.Errorf("could not score: %w", err)
	}
	return err
}

func writeResult(w io.Writer, item content.Item, result model.ShadowResult, analysis model.ShadowAnalysis) {
	_, _ = fmt.Fprintf(w, "%s (%s) %s: %s\n", item.Title, item.ID, result.Level, result.Feedback)
	_, _ = fmt.Fprintf(w, "Overall %d  Rhythm %d  Timing %d\n", result.Scores.Overall, result.Scores.Rhythm, result.Scores.Timing)
	_, _ = fmt.Fprintf(w, "Emphasis %d/%d  Avg delay %.2fs  Matched %d/%d units\n",
		analysis.EmphasisMatches, analysis.TotalEmphasis, analysis.AverageDelay, analysis.MatchedUnits, analysis.Units)
	_, _ = fmt.Fprintf(w, "XP +%d\n", result.XP)
}

func writeOutcome(w io.Writer, item content.Item, outcome practice.Outcome) {
	writeResult(w, item, outcome.Result, outcome.Analysis)
	if len(outcome.Sentences) > 1 {
		for i, s := range outcome.Sentences {
			_, _ = fmt.Fprintf(w, "  #%d %5.1f  %s\n", i+1, s.OverallScore, item.Sentences[i].Text)
		}
	}
	switch {
	case outcome.Mastered:
		_, _ = fmt.Fprintln(w, "Content mastered")
	case outcome.LeveledUp:
		_, _ = fmt.Fprintf(w, "Unlocked %s\n", outcome.Progress.Level)
	}
	_, _ = fmt.Fprintf(w, "Attempts %d  Best %.1f\n", outcome.Progress.Attempts, outcome.Progress.BestScore)
}

func newProgressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show per-content progress",
		Args:  cobra.NoArgs,
		RunE:  runProgressCmd,
	}
	cmd.Flags().IntVar(&progressWeak, "weak", 0, "list the N weakest content items")
	return cmd
}

func runProgressCmd(cmd *cobra.Command, _ []string) error {
	if progressWeak < 0 {
		return fmt.Errorf("--weak must be >= 0")
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := commandContext(cmd)
	entries, err := a.store.ListProgress(ctx, a.settings.learner)
	if err != nil {
		return err
	}
	xp, err := a.store.TotalXP(ctx, a.settings.learner)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	titles := a.titles()
	if len(entries) == 0 {
		_, _ = fmt.Fprintf(out, "No progress yet for %s.\n", a.settings.learner)
	} else if err := stats.RenderProgressTable(out, entries, titles); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "\nTotal XP: %d\n", xp)

	plan, err := a.upNext(ctx, generator.New(a.settings.queueFactor), upNextCount)
	if err != nil {
		return err
	}
	writePlan(out, plan, titles)

	if progressWeak > 0 {
		weak := stats.SelectWeakContent(entries, progressWeak, a.settings.params.LevelUpThreshold)
		if len(weak) == 0 {
			_, _ = fmt.Fprintln(out, "No weak content.")
			return nil
		}
		_, _ = fmt.Fprintln(out, "\nWeakest content:")
		for _, id := range weak {
			_, _ = fmt.Fprintf(out, "  %s  %s\n", id, titles[id])
		}
	}
	return nil
}

func writePlan(w io.Writer, plan []model.ContentID, titles map[model.ContentID]string) {
	if len(plan) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "\nUp next:")
	for i, id := range plan {
		_, _ = fmt.Fprintf(w, "  %d. %s  %s\n", i+1, id, titles[id])
	}
}

func newContentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "content",
		Short: "List available content",
		Args:  cobra.NoArgs,
		RunE:  runContentCmd,
	}
}

func runContentCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	items := a.catalog.Items()
	if len(items) == 0 {
		_, _ = fmt.Fprintf(out, "No content found in %s.\n", a.settings.contentDir)
		return nil
	}
	headers := []string{"ID", "Title", "Drama", "Ep", "Sentences", "Units", "Split"}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			string(item.ID),
			item.Title,
			item.Drama,
			strconv.Itoa(item.Episode),
			strconv.Itoa(len(item.Sentences)),
			strconv.Itoa(item.Units()),
			string(item.Segmentation),
		})
	}
	return stats.RenderTable(out, headers, rows, map[int]bool{3: true, 4: true, 5: true})
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show score history and curves",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsContent, "content", "", "only this content id")
	cmd.Flags().StringVar(&statsSince, "since", "", "only attempts since this timestamp (RFC3339) or duration (e.g. 168h)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "use only the last N attempts")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "number of recent attempts plotted in curves")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print plain text instead of the interactive view")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow <= 0 {
		return fmt.Errorf("--curve-window must be > 0")
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := model.StatsConfig{
		Learner:     a.settings.learner,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}
	if statsContent != "" {
		id, err := model.ParseContentID(statsContent)
		if err != nil {
			return err
		}
		cfg.ContentID = id
	}
	if statsSince != "" {
		since, err := parseSince(statsSince, time.Now())
		if err != nil {
			return err
		}
		cfg.Since = &since
	}

	if !statsPlain {
		program := tea.NewProgram(statsui.NewModel(a.store, cfg, a.titles()), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}

	report, err := stats.BuildReport(commandContext(cmd), a.store, cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report); err != nil {
		return err
	}
	if len(report.Window) > 0 {
		_, _ = fmt.Fprintln(out)
		if err := stats.RenderCurves(out, report.Window, cfg.CurveWindow); err != nil {
			return err
		}
	}
	if len(report.Progress) > 0 {
		_, _ = fmt.Fprintln(out)
		return stats.RenderProgressTable(out, report.Progress, a.titles())
	}
	return nil
}

// parseSince accepts an RFC3339 timestamp, a YYYY-MM-DD date or a duration
// counted back from now.
func parseSince(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, time.Local); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return now.Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("invalid --since %q: use RFC3339, YYYY-MM-DD or a duration", raw)
}
