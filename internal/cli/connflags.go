package cli

import (
	"github.com/spf13/cobra"

	"querydeck/internal/app"
	"querydeck/internal/dbconn"
)

// connFlags selects the target connection of a command.
type connFlags struct {
	id       int64
	typ      string
	server   string
	port     int
	database string
	user     string
	password string
	file     string
}

func (f *connFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Int64Var(&f.id, "connection-id", 0, "Use a saved connection profile")
	fs.StringVar(&f.typ, "type", "", "Connection type (mysql|mariadb|postgresql|sqlserver|sqlite)")
	fs.StringVar(&f.server, "server", "", "Database server host")
	fs.IntVar(&f.port, "port", 0, "Database server port (default: the engine's port)")
	fs.StringVar(&f.database, "database", "", "Database name")
	fs.StringVar(&f.user, "user", "", "Database user")
	fs.StringVar(&f.password, "password", "", "Database password, plaintext or ENC: form")
	fs.StringVar(&f.file, "file", "", "SQLite database file")

	cmd.MarkFlagsMutuallyExclusive("connection-id", "type")
	cmd.MarkFlagsOneRequired("connection-id", "type")
	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return dbconn.ConnectionTypes(), cobra.ShellCompDirectiveNoFileComp
	})
}

func (f *connFlags) target() app.Target {
	if f.id > 0 {
		return app.Target{ConnectionID: f.id}
	}
	return app.Target{Connection: &dbconn.Connection{
		ConnectionType: f.typ,
		Server:         f.server,
		Port:           dbconn.Port(f.port),
		DatabaseName:   f.database,
		Username:       f.user,
		Password:       f.password,
		FilePath:       f.file,
	}}
}
