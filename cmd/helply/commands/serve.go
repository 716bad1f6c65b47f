package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"

	"github.com/sadreammm/Helply/internal/config"
	"github.com/sadreammm/Helply/internal/crm"
	"github.com/sadreammm/Helply/internal/crm/sqlite"
	"github.com/sadreammm/Helply/internal/engine"
	"github.com/sadreammm/Helply/internal/intent"
	"github.com/sadreammm/Helply/internal/interfaces"
	"github.com/sadreammm/Helply/internal/kb"
	"github.com/sadreammm/Helply/internal/llm"
	"github.com/sadreammm/Helply/internal/metrics"
	"github.com/sadreammm/Helply/internal/progress"
	"github.com/sadreammm/Helply/server"
	"github.com/sadreammm/Helply/server/handlers"
)

const shutdownTimeout = 15 * time.Second

// ServeCommand runs the HTTP API.
type ServeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	port    string
	noWatch bool
}

// NewServeCommand returns the serve command.
func NewServeCommand(rootCmd *RootCommand, app *kingpin.Application) *ServeCommand {
	c := &ServeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("serve", "Run the guidance API.").Default()
	c.Cmd.Flag("port", "Listen port, overrides HTTP_PORT.").StringVar(&c.port)
	c.Cmd.Flag("no-watch", "Do not reload the knowledge base on change.").BoolVar(&c.noWatch)

	return c
}

func (c ServeCommand) Name() string { return c.Cmd.FullCommand() }

func (c ServeCommand) Run(ctx context.Context) error {
	env := c.rootCmd.Env
	if c.port != "" {
		env.HTTPPort = c.port
	}

	defs, kbFile, err := c.rootCmd.knowledgeBase(ctx)
	if err != nil {
		return err
	}

	store, err := crm.Connect(ctx, env.CRMEnv)
	if err != nil {
		return err
	}
	defer store.Close()

	m := metrics.New()

	settings := config.NewSettings(env.AIEnv.Enabled)
	if s, ok := store.(*sqlite.Store); ok {
		if err := settings.Persist(ctx, s.DB()); err != nil {
			slog.WarnContext(ctx, "could not load persisted settings", "error", err)
		}
	}

	var gen interfaces.GuidanceGenerator
	client, err := llm.New(llm.Config{
		APIKey:    env.AIEnv.GeminiAPIKey,
		Model:     env.AIEnv.GeminiModel,
		BaseURL:   env.AIEnv.GeminiBaseURL,
		Timeout:   env.AIEnv.Timeout,
		Platforms: platformNames(defs),
		Metrics:   m,
	})
	switch {
	case errors.Is(err, llm.ErrDisabled):
		slog.InfoContext(ctx, "no GEMINI_API_KEY, generative guidance unavailable")
	case err != nil:
		return fmt.Errorf("could not create llm client: %w", err)
	default:
		gen = client
	}

	persister, err := progress.NewPersister(progress.PersisterConfig{Store: store, Metrics: m})
	if err != nil {
		return fmt.Errorf("could not create persister: %w", err)
	}
	defer persister.Wait()

	e, err := engine.New(engine.Config{
		Tasks:       store,
		Definitions: defs,
		Matcher:     intent.NewMatcher(defs),
		Generator:   gen,
		Persister:   persister,
		Settings:    settings,
		Metrics:     m,
	})
	if err != nil {
		return fmt.Errorf("could not create engine: %w", err)
	}

	srv := server.NewServer(&env.BaseEnv, handlers.New(handlers.Config{Engine: e, Version: c.rootCmd.Version}), m)

	var g run.Group

	// HTTP server.
	{
		g.Add(
			func() error {
				if err := srv.ListenAndServe(ctx); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			},
			func(_ error) {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil {
					slog.Error("server shutdown failed", "error", err)
				}
			},
		)
	}

	// Knowledge base reload.
	if env.KBEnv.Watch && !c.noWatch && kbFile != "" {
		ctx, cancel := context.WithCancel(ctx)
		w := kb.NewWatcher(defs, kbFile)
		g.Add(
			func() error {
				return w.Run(ctx)
			},
			func(_ error) {
				cancel()
			},
		)
	}

	// Parent cancellation.
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error {
				<-ctx.Done()
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	slog.InfoContext(ctx, "helply ready",
		"crm", env.CRMEnv.Type,
		"ai_enabled", settings.AIEnabled(),
		"definitions", defs.Current().Len(),
	)
	return g.Run()
}

func platformNames(defs *kb.Store) []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range defs.List() {
		name := d.Platform
		if p, ok := defs.Platform(d.Platform); ok && p.Name != "" {
			name = p.Name
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
