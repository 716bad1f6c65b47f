package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/sadreammm/Helply/internal/db"
)

const (
	migrateUp      = "up"
	migrateReset   = "reset"
	migrateVersion = "version"
)

// MigrateCommand manages the SQLite schema used by the sqlite task store.
type MigrateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	action string
	dbPath string
}

// NewMigrateCommand returns the migrate command.
func NewMigrateCommand(rootCmd *RootCommand, app *kingpin.Application) *MigrateCommand {
	c := &MigrateCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("migrate", "Apply, reset or inspect the database schema.")
	c.Cmd.Arg("action", "up, reset or version.").Default(migrateUp).EnumVar(&c.action, migrateUp, migrateReset, migrateVersion)
	c.Cmd.Flag("db-path", "SQLite file, overrides DATABASE_PATH.").StringVar(&c.dbPath)

	return c
}

func (c MigrateCommand) Name() string { return c.Cmd.FullCommand() }

func (c MigrateCommand) Run(ctx context.Context) error {
	path := c.dbPath
	if path == "" {
		path = c.rootCmd.Env.CRMEnv.DatabasePath
	}

	// Opening applies pending migrations.
	conn, err := db.New(ctx, path)
	if err != nil {
		return err
	}
	defer conn.Close()

	if c.action == migrateReset {
		if err := conn.Reset(ctx); err != nil {
			return err
		}
	}

	version, dirty, err := conn.Version()
	if err != nil {
		return fmt.Errorf("could not read schema version: %w", err)
	}
	fmt.Fprintf(c.rootCmd.Stdout, "%s: schema version %d (dirty: %t)\n", conn.Path(), version, dirty)
	return nil
}
