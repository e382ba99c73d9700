package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/japaniel/kanjiguard/pkg/config"
	"github.com/japaniel/kanjiguard/pkg/db"
	"github.com/japaniel/kanjiguard/pkg/knowledge"
	"github.com/japaniel/kanjiguard/pkg/logging"
	"github.com/japaniel/kanjiguard/pkg/rewrite"
)

// app carries state shared by every subcommand of one invocation.
type app struct {
	configPath string
	learner    string
	dbPath     string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
	conn   *sql.DB
}

// newCLI builds the command tree. The caller closes the returned app after
// Execute returns, since cobra skips post-run hooks when a command fails.
func newCLI() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:   "kanjiguard",
		Short: "Adapt Japanese text to the kanji a learner has studied",
		Long: `kanjiguard keeps a learner's studied kanji and vocabulary in SQLite and
rewrites Japanese text so that words with unstudied kanji are shown in kana
or annotated with their reading.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config YAML (default $KANJIGUARD_CONFIG or ./kanjiguard.yaml)")
	root.PersistentFlags().StringVar(&a.learner, "learner", "", "learner name (overrides learner.name)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (overrides database.path)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides log.level)")

	root.AddCommand(
		newImportCmd(a),
		newKnownCmd(a),
		newClassifyCmd(a),
		newAdaptCmd(a),
		newModeCmd(a),
		newGenerateCmd(a),
		newExtractCmd(a),
	)
	return root, a
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.learner != "" {
		cfg.Learner.Name = a.learner
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) close() {
	if a.conn != nil {
		_ = a.conn.Close()
		a.conn = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// store opens the database on first use.
func (a *app) store() (*sql.DB, error) {
	if a.conn != nil {
		return a.conn, nil
	}
	conn, err := db.Open(a.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.logger.Debug("database opened", zap.String("path", a.cfg.Database.Path))
	a.conn = conn
	return conn, nil
}

// snapshot loads the learner's knowledge.
func (a *app) snapshot() (knowledge.Snapshot, error) {
	conn, err := a.store()
	if err != nil {
		return knowledge.Snapshot{}, err
	}
	records, err := db.LoadRecords(conn, a.cfg.Learner.Name)
	if err != nil {
		return knowledge.Snapshot{}, err
	}
	return knowledge.NewSnapshot(records), nil
}

// mode resolves the display mode: flag, then stored setting, then config.
func (a *app) mode(flag string) (rewrite.Mode, error) {
	if flag != "" {
		return rewrite.ParseMode(flag)
	}
	conn, err := a.store()
	if err != nil {
		return rewrite.ModeNone, err
	}
	m, ok, err := db.LookupDisplayMode(conn, a.cfg.Learner.Name)
	if err != nil {
		return rewrite.ModeNone, err
	}
	if ok {
		return m, nil
	}
	return a.cfg.DisplayMode(), nil
}
