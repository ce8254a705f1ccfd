package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-assistant/internal/buildinfo"
	"github.com/insightdelivered/statement-assistant/internal/config"
	"github.com/insightdelivered/statement-assistant/internal/logger"
	"github.com/insightdelivered/statement-assistant/internal/metrics"
	"github.com/insightdelivered/statement-assistant/internal/models"
	"github.com/insightdelivered/statement-assistant/internal/parser"
	"github.com/insightdelivered/statement-assistant/internal/statement"
	"github.com/insightdelivered/statement-assistant/internal/storage"
)

// session is the state shared by every subcommand once flags are parsed.
type session struct {
	envFile  string
	logLevel string
	cfg      *config.Config
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rt := &session{}

	rootCmd := &cobra.Command{
		Use:     "statement-assistant",
		Short:   "Parse, store and query ICICI bank statements",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&rt.envFile, "env-file", "", "load environment from this file instead of ./.env")
	rootCmd.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(
		newParseCommand(rt),
		newImportCommand(rt),
		newQueryCommand(rt),
		newServeCommand(rt),
	)

	return rootCmd
}

func (rt *session) load() error {
	cfg, err := config.Load(rt.envFile)
	if err != nil {
		return err
	}
	if rt.logLevel != "" {
		cfg.LogLevel = rt.logLevel
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	rt.cfg = cfg
	return nil
}

// passwords loads the password book. A missing file is not an error:
// statements that need a password then fail with a clear message.
func (rt *session) passwords() config.PasswordBook {
	book, err := config.LoadPasswordBook(rt.cfg.PasswordFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.L.Debug("no password file", "path", rt.cfg.PasswordFile)
		} else {
			logger.L.Warn("ignoring password file", "path", rt.cfg.PasswordFile, "error", err)
		}
		return nil
	}
	return book
}

func (rt *session) openDB() (*storage.Database, error) {
	return storage.Open(rt.cfg.DatabasePath, logger.L)
}

func (rt *session) service(db *storage.Database, m *metrics.Metrics) *statement.Service {
	return statement.NewService(statement.Deps{
		DB:        db,
		Passwords: rt.passwords(),
		Metrics:   m,
		CacheTTL:  rt.cfg.ParseCacheTTL,
	})
}

// sourceFlags are shared by the commands that read statements.
type sourceFlags struct {
	bank     string
	password string
	text     bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.bank, "bank", "", "bank type: icici (auto-detected if omitted)")
	cmd.Flags().StringVar(&f.password, "password", "", "PDF password (defaults to the password file)")
	cmd.Flags().BoolVar(&f.text, "text", false, "inputs are extracted text, pages separated by form feeds")
}

func (f *sourceFlags) validate() error {
	if f.bank == "" {
		return nil
	}
	_, err := parser.ParseBankType(f.bank)
	return err
}

// parseInput parses one statement file according to the source flags.
func parseInput(cmd *cobra.Command, svc *statement.Service, path string, f *sourceFlags) (*models.StatementInfo, error) {
	ctx := cmd.Context()
	if !f.text {
		return svc.ParseFile(ctx, path, statement.ParseOptions{Bank: f.bank, Password: f.password})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	pages := parser.TextPages(strings.Split(string(data), "\f"))
	return svc.ParsePages(ctx, pages, f.bank)
}
