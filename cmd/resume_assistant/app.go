package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-assistant/internal/config"
	"github.com/jonathan/resume-assistant/internal/db"
	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/logger"
	"github.com/jonathan/resume-assistant/internal/pipeline"
	"github.com/jonathan/resume-assistant/internal/stages"
)

// app holds the process dependencies the commands use. Tests replace them.
type app struct {
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	getenv    func(string) string
	newClient func(ctx context.Context, cfg *llm.Config, apiKey string) (llm.Client, error)
}

func defaultApp() *app {
	return &app{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		newClient: func(ctx context.Context, cfg *llm.Config, apiKey string) (llm.Client, error) {
			if apiKey == "" {
				return nil, fmt.Errorf("%s environment variable or --api-key flag is required", config.APIKeyEnv(cfg.Provider))
			}
			return llm.NewClient(ctx, cfg, apiKey)
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "resume_assistant",
		Short: "Resume assistant CLI and HTTP API server",
		Long: `Resume assistant routes a request through a small graph of text-generation stages:
it collects a structured profile, analyzes a job description, writes a tailored
resume and reviews it, depending on what the request asks for.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.AddCommand(newRunCmd(a), newParseCmd(a), newServeCmd(a))
	return root
}

// loadConfig reads the optional --config file, applies explicitly set flags,
// then environment variables and defaults, and initializes logging.
func (a *app) loadConfig(path string, overrides func(*config.Config)) (*config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	overrides(&cfg)
	cfg.ApplyEnv(a.getenv)
	cfg = cfg.MergeWithDefaults(config.Config{
		LogLevel:          "info",
		LogFormat:         "pretty",
		Port:              8080,
		MaxConcurrentRuns: 4,
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logCfg := cfg.LoggerConfig()
	logCfg.Output = a.stderr
	logger.Init(logCfg)
	if path != "" {
		logger.Debug().Str("path", path).Msg("loaded config file")
	}
	return &cfg, nil
}

// openStore connects to and migrates the database when one is configured.
// It returns nil when cfg has no database URL.
func openStore(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return database, nil
}

// newExecutor wires the stage handlers around client and applies the
// configured fallback mode and store.
func newExecutor(client llm.Client, cfg *config.Config, database *db.DB) (*pipeline.Executor, error) {
	opts := []pipeline.Option{pipeline.WithLogger(logger.Logger)}
	if cfg.FallbackMode != "" {
		opts = append(opts, pipeline.WithFallbackMode(pipeline.Mode(cfg.FallbackMode)))
	}
	if database != nil {
		opts = append(opts, pipeline.WithStore(database))
	}
	return pipeline.NewExecutor(stages.Handlers(client, cfg.LLMConfig()), opts...)
}
