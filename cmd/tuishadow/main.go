// Package main provides the CLI entrypoint for tuishadow.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/tuishadow/internal/config"
	"github.com/verte-zerg/tuishadow/internal/content"
	"github.com/verte-zerg/tuishadow/internal/generator"
	"github.com/verte-zerg/tuishadow/internal/model"
	"github.com/verte-zerg/tuishadow/internal/practice"
	"github.com/verte-zerg/tuishadow/internal/shadow"
	"github.com/verte-zerg/tuishadow/internal/store"
	"github.com/verte-zerg/tuishadow/internal/tui"
)

const (
	defaultLogLevel    = "warn"
	defaultCurveWindow = 20
)

var (
	flagLearner     string
	flagContentDir  string
	flagDBPath      string
	flagLogLevel    string
	flagQueueFactor float64

	practiceContent string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuishadow",
		Short:         "TUI shadow-speaking trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagLearner, "learner", config.DefaultLearner(), "learner name progress is stored under")
	pf.StringVar(&flagContentDir, "content-dir", config.DefaultContentDir(), "directory of content YAML files")
	pf.StringVar(&flagDBPath, "db-path", config.DefaultDBPath(), "SQLite database path")
	pf.StringVar(&flagLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.Flags().StringVar(&practiceContent, "content", "", "content id to practice (default: picked from the queue)")
	rootCmd.Flags().Float64Var(&flagQueueFactor, "queue-factor", generator.DefaultFactor, "extra queue weight for unpracticed content")

	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newProgressCmd())
	rootCmd.AddCommand(newContentCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

type settings struct {
	learner     string
	contentDir  string
	dbPath      string
	logLevel    string
	queueFactor float64
	params      shadow.Params
}

// resolveSettings layers defaults, the config file, TUISHADOW_* variables and
// explicitly set flags, in increasing precedence.
func resolveSettings(cmd *cobra.Command) (settings, error) {
	envCfg, err := config.LoadEnv()
	if err != nil {
		return settings{}, err
	}
	path := config.DefaultConfigPath()
	if envCfg.ConfigPath != "" {
		path = envCfg.ConfigPath
	}
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	envCfg.Apply(&fileCfg.Practice)

	applyStringConfig(cmd, "learner", &flagLearner, fileCfg.Practice.Learner)
	applyStringConfig(cmd, "content-dir", &flagContentDir, fileCfg.Practice.ContentDir)
	applyStringConfig(cmd, "db-path", &flagDBPath, fileCfg.Practice.DBPath)
	applyStringConfig(cmd, "log-level", &flagLogLevel, fileCfg.Practice.LogLevel)
	applyFloatConfig(cmd, "queue-factor", &flagQueueFactor, fileCfg.Practice.QueueFactor)

	params, err := fileCfg.Scoring.Params()
	if err != nil {
		return settings{}, err
	}
	s := settings{
		learner:     strings.TrimSpace(flagLearner),
		contentDir:  flagContentDir,
		dbPath:      flagDBPath,
		logLevel:    flagLogLevel,
		queueFactor: flagQueueFactor,
		params:      params,
	}
	if s.learner == "" {
		return settings{}, fmt.Errorf("--learner must not be empty")
	}
	if s.queueFactor < 0 {
		return settings{}, fmt.Errorf("--queue-factor must be >= 0")
	}
	return s, nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.TimeOnly,
		NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
	}))
	slog.SetDefault(logger)
	return logger, nil
}

// app holds the wired components a command runs against.
type app struct {
	settings settings
	logger   *slog.Logger
	catalog  *content.Catalog
	store    *store.Store
	svc      *practice.Service
}

func openApp(cmd *cobra.Command) (*app, error) {
	s, err := resolveSettings(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(s.logLevel)
	if err != nil {
		return nil, err
	}
	catalog, err := content.LoadDir(s.contentDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	engine, err := shadow.NewEngine(s.params)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(s.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	logger.Debug("opened catalog and store", "content_dir", s.contentDir, "items", catalog.Len(), "db", s.dbPath)
	return &app{
		settings: s,
		logger:   logger,
		catalog:  catalog,
		store:    st,
		svc:      practice.New(engine, catalog, st, logger),
	}, nil
}

func (a *app) close() {
	if cerr := a.store.Close(); cerr != nil {
		a.logger.Warn("failed to close db", "err", cerr)
	}
}

func (a *app) titles() map[model.ContentID]string {
	out := make(map[model.ContentID]string, a.catalog.Len())
	for _, item := range a.catalog.Items() {
		out[item.ID] = item.Title
	}
	return out
}

// candidates pairs every catalog item with the learner's stored progress.
func (a *app) candidates(ctx context.Context) ([]generator.Candidate, error) {
	entries, err := a.store.ListProgress(ctx, a.settings.learner)
	if err != nil {
		return nil, err
	}
	byID := make(map[model.ContentID]model.ShadowProgress, len(entries))
	for _, e := range entries {
		byID[e.ContentID] = e.Progress
	}
	items := a.catalog.Items()
	out := make([]generator.Candidate, 0, len(items))
	for _, item := range items {
		p, ok := byID[item.ID]
		if !ok {
			p = model.NewShadowProgress()
		}
		out = append(out, generator.Candidate{ID: item.ID, Progress: p, Mastered: a.settings.params.Mastered(p)})
	}
	return out, nil
}

// upNext plans the next n practice items without immediate repeats.
func (a *app) upNext(ctx context.Context, gen *generator.Generator, n int) ([]model.ContentID, error) {
	cands, err := a.candidates(ctx)
	if err != nil {
		return nil, err
	}
	return gen.Queue(cands, n), nil
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if a.catalog.Len() == 0 {
		return fmt.Errorf("no content found in %s", a.settings.contentDir)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	gen := generator.New(a.settings.queueFactor)
	next := func() (model.ContentID, bool) {
		cands, err := a.candidates(ctx)
		if err != nil {
			a.logger.Warn("failed to load progress for queue", "err", err)
			return "", false
		}
		return gen.Next(cands)
	}

	var first model.ContentID
	if practiceContent != "" {
		item, err := a.catalog.Lookup(practiceContent)
		if err != nil {
			return err
		}
		first = item.ID
	} else {
		id, ok := next()
		if !ok {
			return fmt.Errorf("no content to practice")
		}
		first = id
	}

	xp, err := a.store.TotalXP(ctx, a.settings.learner)
	if err != nil {
		return fmt.Errorf("failed to load xp: %w", err)
	}
	m, err := tui.NewModel(a.svc, a.settings.learner, first, next, xp)
	if err != nil {
		return err
	}
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	envCfg, err := config.LoadEnv()
	if err != nil {
		return err
	}
	path := config.DefaultConfigPath()
	if envCfg.ConfigPath != "" {
		path = envCfg.ConfigPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	p := shadow.DefaultParams()
	return fmt.Sprintf(`# tuishadow configuration
# Uncomment a value to enable it. TUISHADOW_* environment variables override
# the file and CLI flags override both.

[practice]
# learner = %q
# content-dir = %q
# db-path = %q
# log-level = %q
# queue-factor = %.1f

[scoring]
# emphasis-window = %.2f                       # Seconds a stressed unit may deviate
# delay-tolerance = [%.2f, %.2f, %.2f, %.2f]   # Average delay tolerance per level
# rhythm-emphasis-weight = %.1f
# timing-tempo-weight = %.1f
# overall-rhythm-weight = %.1f
# level-up-threshold = %.1f
# base-xp = [%d, %d, %d, %d]
`,
		config.DefaultLearner(),
		config.DefaultContentDir(),
		config.DefaultDBPath(),
		defaultLogLevel,
		generator.DefaultFactor,
		p.EmphasisWindow,
		p.DelayTolerance[0], p.DelayTolerance[1], p.DelayTolerance[2], p.DelayTolerance[3],
		p.RhythmEmphasisWeight,
		p.TimingTempoWeight,
		p.OverallRhythmWeight,
		p.LevelUpThreshold,
		p.BaseXP[0], p.BaseXP[1], p.BaseXP[2], p.BaseXP[3],
	)
}
