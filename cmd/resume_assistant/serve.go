package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-assistant/internal/config"
	"github.com/jonathan/resume-assistant/internal/fetch"
	"github.com/jonathan/resume-assistant/internal/logger"
	"github.com/jonathan/resume-assistant/internal/server"
)

// jobCacheTTL is how long fetched job postings are reused by the server.
const jobCacheTTL = 15 * time.Minute

type serveFlags struct {
	configPath        string
	port              int
	maxConcurrentRuns int
	fallbackMode      string
	apiKey            string
	databaseURL       string
	browser           bool
}

func newServeCmd(a *app) *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start an HTTP server that exposes the assistant:

  POST /v1/resume/run           run a request and return the composed output
  POST /v1/resume/run/stream    same, streaming progress and text via SSE
  GET  /v1/runs[/{id}[/artifacts]]  run history (requires a database)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd, &f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	flags.IntVar(&f.port, "port", 8080, "Port to listen on (defaults to PORT env var)")
	flags.IntVar(&f.maxConcurrentRuns, "max-concurrent-runs", server.DefaultMaxConcurrentRuns, "Maximum runs executing at once")
	flags.StringVar(&f.fallbackMode, "fallback-mode", "", "Mode to use when a request cannot be classified")
	flags.StringVar(&f.apiKey, "api-key", "", "API key for the provider (defaults to GEMINI_API_KEY, or OPENAI_API_KEY for provider openai)")
	flags.StringVar(&f.databaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	flags.BoolVar(&f.browser, "browser", false, "Render job_url pages in headless Chrome when the static page has too little text")

	return cmd
}

func (a *app) serve(cmd *cobra.Command, f *serveFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	changed := cmd.Flags().Changed
	cfg, err := a.loadConfig(f.configPath, func(c *config.Config) {
		if changed("port") {
			c.Port = f.port
		}
		if changed("max-concurrent-runs") {
			c.MaxConcurrentRuns = f.maxConcurrentRuns
		}
		if changed("fallback-mode") {
			c.FallbackMode = f.fallbackMode
		}
		if changed("api-key") {
			c.APIKey = f.apiKey
		}
		if changed("db-url") {
			c.DatabaseURL = f.databaseURL
		}
		if changed("browser") {
			c.Browser = f.browser
		}
	})
	if err != nil {
		return err
	}

	client, err := a.newClient(ctx, cfg.LLMConfig(), cfg.APIKey)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	database, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	executor, err := newExecutor(client, cfg, database)
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithLogger(logger.Logger),
		server.WithJobFetcher(fetch.NewJobCache(jobCacheTTL, cfg.FetchOptions())),
	}
	if database != nil {
		defer database.Close()
		opts = append(opts, server.WithRunStore(database))
	} else {
		logger.Warn().Msg("no database configured, run history endpoints are disabled")
	}

	srv := server.New(server.Config{
		Port:              cfg.Port,
		MaxConcurrentRuns: cfg.MaxConcurrentRuns,
	}, executor, opts...)
	return srv.Start(ctx)
}
