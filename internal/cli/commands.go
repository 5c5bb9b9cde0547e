package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"querydeck/internal/dbconn"
	"querydeck/internal/server"
	"querydeck/internal/sqlx"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Example: `  querydeck serve
  querydeck serve --addr 127.0.0.1:8080 --log-format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt := runtimeFrom(cmd)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, cleanup, err := rt.openApp(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := server.New(server.Config{
				App:               a,
				Addr:              rt.cfg.Server.Addr,
				ReadHeaderTimeout: rt.cfg.Server.ReadHeaderTimeout,
				ShutdownTimeout:   rt.cfg.Server.ShutdownTimeout,
				Logger:            rt.logger,
			})
			return srv.Serve(ctx)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default :3000)")
	return cmd
}

func newQueryCommand() *cobra.Command {
	var conn connFlags
	var page int64
	var format string

	cmd := &cobra.Command{
		Use:   "query SQL",
		Short: "Run one SQL statement",
		Long: `Run one SQL statement against a database. SELECT statements are
paginated: the total row count is reported with the requested page.
Other statements run unchanged.`,
		Example: `  querydeck query "SELECT * FROM users" --type sqlite --file app.db
  querydeck query "SELECT * FROM orders" --connection-id 3 --page 2 --page-size 20
  querydeck query "UPDATE users SET active = 0" --connection-id 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := runtimeFrom(cmd)
			a, cleanup, err := rt.openApp(cmd.Context(), conn.id > 0)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := a.Execute(cmd.Context(), conn.target(), dbconn.Request{
				Query:    args[0],
				Page:     page,
				PageSize: a.DefaultPageSize(),
			})
			if err != nil {
				return err
			}
			return renderResult(cmd.OutOrStdout(), res, format)
		},
	}
	conn.register(cmd)
	cmd.Flags().Int64Var(&page, "page", 0, "Page number, starting at 0")
	cmd.Flags().Int64("page-size", 0, "Rows per page (default 50)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json")
	return cmd
}

func newObjectsCommand() *cobra.Command {
	var conn connFlags
	var format, dialect string

	cmd := &cobra.Command{
		Use:   "objects",
		Short: "Introspect tables, views, routines, triggers, events and indexes",
		Example: `  querydeck objects --type postgresql --server localhost --database shop --user app --password secret
  querydeck objects --connection-id 3 --format json
  querydeck objects --type sqlite --file app.db --format ddl --dialect postgresql`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt := runtimeFrom(cmd)
			a, cleanup, err := rt.openApp(cmd.Context(), conn.id > 0)
			if err != nil {
				return err
			}
			defer cleanup()

			if format == "ddl" {
				ddl, err := a.ExportDDL(cmd.Context(), conn.target(), dialect)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), ddl)
				return err
			}
			m, err := a.Introspect(cmd.Context(), conn.target())
			if err != nil {
				return err
			}
			return renderModel(cmd.OutOrStdout(), m, format)
		},
	}
	conn.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json, ddl")
	cmd.Flags().StringVar(&dialect, "dialect", "", "DDL dialect for --format ddl (default: the connection's type)")
	_ = cmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return sqlx.Dialects(), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func newDatabasesCommand() *cobra.Command {
	var conn connFlags

	cmd := &cobra.Command{
		Use:     "databases",
		Short:   "List the databases on a server",
		Example: `  querydeck databases --type mysql --server localhost --user root --password secret`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt := runtimeFrom(cmd)
			a, cleanup, err := rt.openApp(cmd.Context(), conn.id > 0)
			if err != nil {
				return err
			}
			defer cleanup()

			names, err := a.ListDatabases(cmd.Context(), conn.target())
			if err != nil {
				return err
			}
			return renderList(cmd.OutOrStdout(), "Database", names)
		},
	}
	conn.register(cmd)
	return cmd
}

func newConnectionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "connections",
		Short: "List saved connection profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt := runtimeFrom(cmd)
			a, cleanup, err := rt.openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer cleanup()

			conns, err := a.ListConnections(cmd.Context())
			if err != nil {
				return err
			}
			return renderConnections(cmd.OutOrStdout(), conns)
		},
	}
}

func newEncryptCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "encrypt TEXT",
		Short:   "Print the ENC: form of a password",
		Example: `  querydeck encrypt 'my-db-password'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := runtimeFrom(cmd)
			a, cleanup, err := rt.openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer cleanup()

			enc, err := a.Encrypt(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), enc)
			return err
		},
	}
}
