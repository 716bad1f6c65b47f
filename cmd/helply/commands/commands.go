package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/sadreammm/Helply/internal/config"
	"github.com/sadreammm/Helply/internal/kb"
	"github.com/sadreammm/Helply/internal/storage"
	"github.com/sadreammm/Helply/pkg/clog"
)

const (
	// LoggerTypeDefault is the human readable logger.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the json logger.
	LoggerTypeJSON = "json"
)

// Command is an application command; every command is registered in main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand holds global flags and instances shared by all commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoColor    bool
	LoggerType string
	EnvFile    string

	// Global instances.
	Version string
	Env     *config.Env
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewRootCommand registers the global flags.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug logging.").BoolVar(&c.Debug)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default("").EnumVar(&c.LoggerType, "", LoggerTypeDefault, LoggerTypeJSON)
	app.Flag("env-file", "KEY=VALUE file loaded before the environment.").Default(".env").StringVar(&c.EnvFile)

	return c
}

// Setup loads configuration and installs the default logger.
func (c *RootCommand) Setup() error {
	if err := config.LoadEnvFile(c.EnvFile); err != nil {
		return err
	}
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	c.Env = env

	level := env.SlogLevel()
	if c.Debug {
		level = slog.LevelDebug
	}

	loggerType := c.LoggerType
	if loggerType == "" {
		loggerType = LoggerTypeJSON
		if env.Local() {
			loggerType = LoggerTypeDefault
		}
	}

	var h slog.Handler
	switch loggerType {
	case LoggerTypeDefault:
		h = clog.NewTextHandler(c.Stderr, clog.WithColor(!c.NoColor), clog.WithLevel(level))
	default:
		h = slog.NewJSONHandler(c.Stderr, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(clog.NewAttributesHandler(h)).With("version", c.Version)
	slog.SetDefault(logger)

	slog.Debug("debug level is enabled")
	return nil
}

// storage returns the blob store the knowledge base lives in.
func (c *RootCommand) storage(ctx context.Context) (storage.Storage, error) {
	env := c.Env.StorageEnv
	switch env.Type {
	case "s3":
		return storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region)
	case "local", "":
		return storage.NewLocalStorage(env.BaseDir)
	default:
		return nil, fmt.Errorf("unknown storage type %q", env.Type)
	}
}

// knowledgeBase loads the knowledge base. The returned file is the local
// path to watch, empty when the document is not on the local filesystem.
func (c *RootCommand) knowledgeBase(ctx context.Context) (*kb.Store, string, error) {
	src, err := c.storage(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("could not create storage: %w", err)
	}
	store := kb.NewStore(src, c.Env.KBEnv.Path)
	if err := store.Load(ctx); err != nil {
		return nil, "", err
	}

	var file string
	if local, ok := src.(*storage.LocalStorage); ok {
		if file, err = filepath.Abs(local.Path(c.Env.KBEnv.Path)); err != nil {
			return nil, "", err
		}
	}
	return store, file, nil
}
