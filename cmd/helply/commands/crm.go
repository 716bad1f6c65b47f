package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/sadreammm/Helply/internal/crm/sqlite"
)

// CRMSeedCommand inserts the demo employees and tasks into the sqlite store.
type CRMSeedCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	dbPath string
}

// NewCRMSeedCommand returns the crm seed command.
func NewCRMSeedCommand(rootCmd *RootCommand, crmCmd *kingpin.CmdClause) *CRMSeedCommand {
	c := &CRMSeedCommand{rootCmd: rootCmd}

	c.Cmd = crmCmd.Command("seed", "Insert demo employees and tasks into an empty sqlite store.")
	c.Cmd.Flag("db-path", "SQLite file, overrides DATABASE_PATH.").StringVar(&c.dbPath)

	return c
}

func (c CRMSeedCommand) Name() string { return c.Cmd.FullCommand() }

func (c CRMSeedCommand) Run(ctx context.Context) error {
	path := c.dbPath
	if path == "" {
		path = c.rootCmd.Env.CRMEnv.DatabasePath
	}

	store, err := sqlite.New(ctx, sqlite.Config{DBPath: path})
	if err != nil {
		return err
	}
	defer store.Close()

	seeded, err := store.Seed(ctx)
	if err != nil {
		return err
	}
	if !seeded {
		fmt.Fprintln(c.rootCmd.Stdout, "store already has employees, nothing seeded")
		return nil
	}
	fmt.Fprintln(c.rootCmd.Stdout, "demo data seeded")
	return nil
}
