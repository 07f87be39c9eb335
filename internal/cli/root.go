// Package cli implements merchantctl, the operator command line for the
// merchant desk: schema migrations, pending selection handling, reports,
// catalog seeding, owner accounts and a self-contained demo server.
package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"merchant-desk/internal/config"
	"merchant-desk/internal/database"
	"merchant-desk/internal/events"
	"merchant-desk/internal/logger"
	"merchant-desk/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// App carries what subcommands share after the root command has loaded configuration
type App struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *sql.DB
	stores   *server.Stores
	producer *events.Producer
}

type Option func(*App)

// WithStores makes every command run against stores instead of PostgreSQL
func WithStores(stores server.Stores) Option {
	return func(a *App) { a.stores = &stores }
}

func NewRootCommand(opts ...Option) *cobra.Command {
	a := &App{}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:               "merchantctl",
		Short:             "Operate the merchant desk",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
	}

	flags := root.PersistentFlags()
	flags.String("log-level", "warn", "log level (debug|info|warn|error)")
	flags.String("env", "", "environment name, overrides SERVER_ENV")
	flags.String("db-host", "", "database host, overrides DB_HOST")
	flags.String("db-port", "", "database port, overrides DB_PORT")
	flags.String("db-name", "", "database name, overrides DB_DATABASE")
	flags.String("timezone", "", "reporting timezone, overrides REPORT_TIMEZONE")

	viper.BindPFlag("LOG_LEVEL", flags.Lookup("log-level"))
	viper.BindPFlag("SERVER_ENV", flags.Lookup("env"))
	viper.BindPFlag("DB_HOST", flags.Lookup("db-host"))
	viper.BindPFlag("DB_PORT", flags.Lookup("db-port"))
	viper.BindPFlag("DB_DATABASE", flags.Lookup("db-name"))
	viper.BindPFlag("REPORT_TIMEZONE", flags.Lookup("timezone"))

	root.AddCommand(
		a.migrateCommand(),
		a.selectionsCommand(),
		a.reportCommand(),
		a.catalogCommand(),
		a.accountsCommand(),
		a.demoCommand(),
	)
	return root
}

// Execute runs merchantctl with the process arguments
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *App) setup(_ *cobra.Command, _ []string) error {
	a.cfg = config.Load()

	log, err := logger.NewWithLevel(a.cfg.Server.Env, a.cfg.Server.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log = log
	return nil
}

func (a *App) close() {
	if a.producer != nil {
		a.producer.Close()
		a.producer = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", zap.Error(err))
		}
		a.db = nil
	}
	if a.log != nil {
		a.log.Sync()
	}
}

func (a *App) database(ctx context.Context) (*sql.DB, error) {
	if a.db == nil {
		db, err := database.New(ctx, a.cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
	}
	return a.db, nil
}

func (a *App) openStores(ctx context.Context) (server.Stores, error) {
	if a.stores != nil {
		return *a.stores, nil
	}
	db, err := a.database(ctx)
	if err != nil {
		return server.Stores{}, err
	}
	return server.PostgresStores(db), nil
}

// publisher writes to Kafka when brokers are configured
func (a *App) publisher() events.Publisher {
	if !a.cfg.Kafka.Enabled() {
		return events.NopPublisher{}
	}
	if a.producer == nil {
		a.producer = events.NewProducer(a.cfg.Kafka.Brokers, 16, a.log)
		a.producer.Start()
	}
	return a.producer
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
