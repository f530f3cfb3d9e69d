// Package cmd implements the allot CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/theirongolddev/allot/internal/budget"
	"github.com/theirongolddev/allot/internal/config"
	"github.com/theirongolddev/allot/internal/document"
	"github.com/theirongolddev/allot/internal/store"
	"github.com/theirongolddev/allot/internal/tui/theme"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagFile      string
	flagConfig    string
	flagVerbose   bool
	flagQuiet     bool
	flagNoHistory bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "allot",
	Short: "Project budget allocation",
	Long: "Distribute a project's grand total across categories with per-category locks,\n" +
		"fees and over-budget detection.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runShow,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFile, "file", "f", "", "Budget document (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().BoolVar(&flagNoHistory, "no-history", false, "Do not record a revision on save")
}

func setupLogging() {
	level := zerolog.InfoLevel
	switch {
	case flagVerbose:
		level = zerolog.DebugLevel
	case flagQuiet:
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("LOG_FORMAT") == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

func setup(_ *cobra.Command, _ []string) error {
	setupLogging()

	var err error
	if flagConfig != "" {
		cfg, err = config.LoadFrom(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	theme.SetActive(cfg.Appearance.Theme)
	log.Debug().Str("budget", budgetPath()).Msg("config loaded")
	return nil
}

func saveConfig() error {
	if flagConfig != "" {
		return config.SaveTo(flagConfig, cfg)
	}
	return config.Save(cfg)
}

// budgetPath is --file, else the configured default.
func budgetPath() string {
	if flagFile != "" {
		return flagFile
	}
	if cfg.General.BudgetFile != "" {
		return cfg.General.BudgetFile
	}
	return config.DefaultConfig().General.BudgetFile
}

// loadEngine reads the budget document into a fresh engine.
func loadEngine() (*budget.Engine, error) {
	path := budgetPath()
	snap, err := document.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no budget at %s (run `allot new` first)", path)
	}
	if err != nil {
		return nil, err
	}
	e := budget.New(decimal.Zero)
	if err := e.Load(snap); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return e, nil
}

// saveEngine writes the document and, unless disabled, records a revision.
func saveEngine(e *budget.Engine, note string) error {
	path := budgetPath()
	snap := e.Snapshot()
	if err := document.Save(path, snap); err != nil {
		return err
	}
	if e.OverBudget() {
		log.Warn().Err(e.CheckBudget()).Msg("saved an over-budget state")
	}

	h, err := openHistory()
	if err != nil {
		log.Warn().Err(err).Msg("history unavailable")
		return nil
	}
	if h == nil {
		return nil
	}
	defer func() { _ = h.Close() }()

	data, err := document.Marshal(snap)
	if err != nil {
		return err
	}
	rev, added, err := h.Record(store.RevisionOf(path, e, data, note))
	if err != nil {
		log.Warn().Err(err).Msg("recording revision")
		return nil
	}
	if info, err := os.Stat(path); err == nil {
		_ = h.TrackFile(path, store.FileInfo{MtimeNs: info.ModTime().UnixNano(), SizeBytes: info.Size()})
	}
	log.Debug().Int64("revision", rev.ID).Bool("added", added).Msg("history")
	return nil
}

// openHistory returns nil when history is turned off.
func openHistory() (*store.History, error) {
	if flagNoHistory || !cfg.General.History {
		return nil, nil
	}
	return store.Open(store.DefaultPath(config.DataDir()))
}

// mutate loads the budget, applies fn and saves the result.
func mutate(note string, fn func(e *budget.Engine) error) error {
	e, err := loadEngine()
	if err != nil {
		return err
	}
	if err := fn(e); err != nil {
		return err
	}
	if err := saveEngine(e, note); err != nil {
		return err
	}
	printProjection(e)
	return nil
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	return i, nil
}
