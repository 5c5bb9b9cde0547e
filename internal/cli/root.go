// Package cli provides the querydeck command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"querydeck/internal/app"
	"querydeck/internal/config"
	"querydeck/internal/dbconn"
	"querydeck/internal/logger"
	"querydeck/internal/secret"
	"querydeck/internal/store"
)

// runtime is the per-invocation state built before any command runs.
type runtime struct {
	version  string
	cfg      *config.Config
	logger   *slog.Logger
	logClose io.Closer
}

type runtimeKey struct{}

func runtimeFrom(cmd *cobra.Command) *runtime {
	rt, _ := cmd.Context().Value(runtimeKey{}).(*runtime)
	return rt
}

// NewRootCmd creates the root command.
func NewRootCmd(version string) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "querydeck",
		Short: "Browse and query MySQL, MariaDB, PostgreSQL, SQL Server and SQLite databases",
		Long: `querydeck serves a JSON API for database browsing clients and runs the
same operations from the command line: paginated queries, schema
introspection, database listing and saved connection profiles.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(config.Options{ConfigFile: cfgFile, Flags: cmd.Flags()})
			if err != nil {
				return err
			}
			log, closer, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			if cfg.File != "" {
				log.Debug("using config file", "path", cfg.File)
			}
			rt := &runtime{version: version, cfg: cfg, logger: log, logClose: closer}
			cmd.SetContext(context.WithValue(cmd.Context(), runtimeKey{}, rt))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if rt := runtimeFrom(cmd); rt != nil {
				return rt.logClose.Close()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./querydeck.yaml)")
	pf.String("log-level", "", "Log level (debug|info|warn|error)")
	pf.String("log-format", "", "Log format (text|json)")
	pf.String("log-file", "", "Write logs to a rotated file instead of stderr")
	pf.String("store", "", "Path to the querydeck store database")
	pf.String("secret-key", "", "64-character hex key for password encryption")
	pf.Bool("no-keyring", false, "Do not read or create the key in the OS keyring")

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newObjectsCommand())
	rootCmd.AddCommand(newDatabasesCommand())
	rootCmd.AddCommand(newConnectionsCommand())
	rootCmd.AddCommand(newEncryptCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute(version string) error {
	rootCmd := NewRootCmd(version)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// openApp builds the app for one command. The store needs the encryption
// key; when no key is available and the command does not need saved
// connections, the app runs without a store.
func (rt *runtime) openApp(ctx context.Context, needStore bool) (*app.App, func(), error) {
	c, err := secret.Open(secret.Options{
		KeyHex:     rt.cfg.Secret.Key,
		UseKeyring: rt.cfg.Secret.Keyring,
		Logger:     rt.logger,
	})
	if err != nil {
		if needStore {
			return nil, nil, fmt.Errorf("load encryption key: %w", err)
		}
		rt.logger.Warn("no encryption key, saved connections and history disabled", "error", err)
	}

	var st *store.Store
	if c != nil {
		st, err = store.Open(ctx, rt.cfg.Store.Path, c, rt.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		rt.logger.Debug("store opened", "path", st.Path())
	}

	a := app.New(app.Options{
		Version: rt.version,
		Store:   st,
		Cipher:  c,
		Opener: &dbconn.Factory{
			ConnectTimeout: rt.cfg.Database.ConnectTimeout,
			QueryTimeout:   rt.cfg.Database.QueryTimeout,
			MaxConns:       rt.cfg.Database.MaxConns,
			Logger:         rt.logger,
		},
		DefaultPageSize: rt.cfg.Database.DefaultPageSize,
		Logger:          rt.logger,
	})
	cleanup := func() {
		if st != nil {
			_ = st.Close()
		}
	}
	return a, cleanup, nil
}
