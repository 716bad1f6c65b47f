package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"

	"github.com/sadreammm/Helply/cmd/helply/commands"
)

// Version is the application version (set via ldflags).
var Version = "dev"

// Run runs the main application.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	app := kingpin.New("helply", "Onboarding assistant: page-aware guidance for employee tasks.")
	app.Version(Version)
	rootCmd := commands.NewRootCommand(app)
	rootCmd.Version = Version

	serveCmd := commands.NewServeCommand(rootCmd, app)
	matchCmd := commands.NewMatchCommand(rootCmd, app)

	kbCmd := app.Command("kb", "Manage the action knowledge base.")
	kbValidateCmd := commands.NewKBValidateCommand(rootCmd, kbCmd)
	kbPushCmd := commands.NewKBPushCommand(rootCmd, kbCmd)

	migrateCmd := commands.NewMigrateCommand(rootCmd, app)

	crmCmd := app.Command("crm", "Manage the task store.")
	crmSeedCmd := commands.NewCRMSeedCommand(rootCmd, crmCmd)

	cmds := map[string]commands.Command{
		serveCmd.Name():      serveCmd,
		matchCmd.Name():      matchCmd,
		kbValidateCmd.Name(): kbValidateCmd,
		kbPushCmd.Name():     kbPushCmd,
		migrateCmd.Name():    migrateCmd,
		crmSeedCmd.Name():    crmSeedCmd,
	}

	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}

	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr
	if err := rootCmd.Setup(); err != nil {
		return err
	}

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Execute command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				if err := cmds[cmdName].Run(ctx); err != nil {
					return fmt.Errorf("%q command failed: %w", cmdName, err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

func main() {
	if err := Run(context.Background(), os.Args, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
