package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/sadreammm/Helply/internal/kb"
	"github.com/sadreammm/Helply/internal/storage"
)

// KBValidateCommand checks a knowledge base document.
type KBValidateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	file   string
	strict bool
}

// NewKBValidateCommand returns the kb validate command.
func NewKBValidateCommand(rootCmd *RootCommand, kbCmd *kingpin.CmdClause) *KBValidateCommand {
	c := &KBValidateCommand{rootCmd: rootCmd}

	c.Cmd = kbCmd.Command("validate", "Validate a knowledge base document.")
	c.Cmd.Arg("file", "Local document, defaults to the configured one.").StringVar(&c.file)
	c.Cmd.Flag("strict", "Fail on any problem.").BoolVar(&c.strict)

	return c
}

func (c KBValidateCommand) Name() string { return c.Cmd.FullCommand() }

func (c KBValidateCommand) Run(ctx context.Context) error {
	var (
		k   *kb.KB
		err error
	)
	if c.file != "" {
		data, rerr := os.ReadFile(c.file)
		if rerr != nil {
			return rerr
		}
		k, err = kb.Parse(data)
	} else {
		var store *kb.Store
		store, _, err = c.rootCmd.knowledgeBase(ctx)
		if store != nil {
			k = store.Current()
		}
	}
	if err != nil {
		return err
	}

	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	if c.rootCmd.NoColor {
		ok.DisableColor()
		warn.DisableColor()
	}

	problems := k.Validate()
	for _, p := range problems {
		warn.Fprintf(c.rootCmd.Stdout, "! %s\n", p)
	}
	ok.Fprintf(c.rootCmd.Stdout, "%d definitions, %d problems\n", k.Len(), len(problems))

	if c.strict && len(problems) > 0 {
		return fmt.Errorf("knowledge base has %d problems", len(problems))
	}
	return nil
}

// KBPushCommand uploads a local document to the configured storage.
type KBPushCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	file string
}

// NewKBPushCommand returns the kb push command.
func NewKBPushCommand(rootCmd *RootCommand, kbCmd *kingpin.CmdClause) *KBPushCommand {
	c := &KBPushCommand{rootCmd: rootCmd}

	c.Cmd = kbCmd.Command("push", "Upload a knowledge base document to storage (KB_PATH).")
	c.Cmd.Arg("file", "Local document.").Required().ExistingFileVar(&c.file)

	return c
}

func (c KBPushCommand) Name() string { return c.Cmd.FullCommand() }

func (c KBPushCommand) Run(ctx context.Context) error {
	data, err := os.ReadFile(c.file)
	if err != nil {
		return err
	}
	k, err := kb.Parse(data)
	if err != nil {
		return fmt.Errorf("refusing to push: %w", err)
	}

	dst, err := c.rootCmd.storage(ctx)
	if err != nil {
		return fmt.Errorf("could not create storage: %w", err)
	}
	if err := dst.Write(ctx, c.rootCmd.Env.KBEnv.Path, data); err != nil {
		return err
	}

	where := c.rootCmd.Env.KBEnv.Path
	if s3, ok := dst.(*storage.S3Storage); ok {
		where = s3.Location(where)
	}
	fmt.Fprintf(c.rootCmd.Stdout, "pushed %d definitions to %s\n", k.Len(), where)
	return nil
}
