package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kingpin/v2"

	"github.com/sadreammm/Helply/internal/intent"
)

// MatchCommand ranks knowledge base actions against a free-text request.
type MatchCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	query  []string
	url    string
	topK   int
	format string
}

// NewMatchCommand returns the match command.
func NewMatchCommand(rootCmd *RootCommand, app *kingpin.Application) *MatchCommand {
	c := &MatchCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("match", "Rank knowledge base actions for a request.")
	c.Cmd.Arg("query", "What the employee wants to do.").Required().StringsVar(&c.query)
	c.Cmd.Flag("url", "Current page URL.").StringVar(&c.url)
	c.Cmd.Flag("top", "Number of results.").Default("5").IntVar(&c.topK)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c MatchCommand) Name() string { return c.Cmd.FullCommand() }

func (c MatchCommand) Run(ctx context.Context) error {
	defs, _, err := c.rootCmd.knowledgeBase(ctx)
	if err != nil {
		return err
	}

	results := intent.NewMatcher(defs).Match(strings.Join(c.query, " "), intent.Context{URL: c.url}, c.topK)

	if c.format == "json" {
		enc := json.NewEncoder(c.rootCmd.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(c.rootCmd.Stdout, "no matching action")
		return nil
	}
	tw := tabwriter.NewWriter(c.rootCmd.Stdout, 0, 0, 2, ' ', 0)
	defer tw.Flush()
	fmt.Fprintln(tw, "ACTION\tPLATFORM\tCONFIDENCE\tTITLE")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", r.ActionID, r.Platform, r.Confidence, r.Title)
	}
	return nil
}
