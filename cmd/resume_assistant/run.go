package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-assistant/internal/config"
	"github.com/jonathan/resume-assistant/internal/fetch"
	"github.com/jonathan/resume-assistant/internal/ingestion"
	"github.com/jonathan/resume-assistant/internal/logger"
	"github.com/jonathan/resume-assistant/internal/observability"
	"github.com/jonathan/resume-assistant/internal/pipeline"
)

type runFlags struct {
	configPath   string
	input        string
	job          string
	jobURL       string
	browser      bool
	mode         string
	fallbackMode string
	apiKey       string
	databaseURL  string
	stream       bool
	verbose      bool
}

func newRunCmd(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one request through the assistant",
		Long: "Classifies the request, then runs the stages its mode needs:\n\n" + modePaths() + `
The composed output is written to stdout. Configuration can be loaded from a
JSON file using --config. Command-line arguments override config file values.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runRequest(cmd, &f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	flags.StringVarP(&f.input, "input", "i", "", `Path to the request text, or "-" for stdin`)
	flags.StringVarP(&f.job, "job", "j", "", "Path to job description text file (mutually exclusive with --job-url)")
	flags.StringVar(&f.jobURL, "job-url", "", "URL to fetch the job description from (mutually exclusive with --job)")
	flags.BoolVar(&f.browser, "browser", false, "Render --job-url pages in headless Chrome when the static page has too little text")
	flags.StringVarP(&f.mode, "mode", "m", "", "Skip classification: FULL_PIPELINE, WRITE_ONLY, REVIEW_ONLY or ANALYZE_ONLY")
	flags.StringVar(&f.fallbackMode, "fallback-mode", "", "Mode to use when the request cannot be classified")
	flags.StringVar(&f.apiKey, "api-key", "", "API key for the provider (defaults to GEMINI_API_KEY, or OPENAI_API_KEY for provider openai)")
	flags.StringVar(&f.databaseURL, "db-url", "", "PostgreSQL connection URL for run history (optional, defaults to DATABASE_URL env var)")
	flags.BoolVar(&f.stream, "stream", false, "Echo generated text to stderr as it arrives")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "Print stage progress and a run summary to stderr")

	return cmd
}

// modePaths lists the working stages of each mode, one line per mode.
func modePaths() string {
	var sb strings.Builder
	for _, m := range pipeline.Modes {
		path, err := pipeline.Path(m)
		if err != nil {
			continue
		}
		names := make([]string, 0, len(path))
		for _, stage := range path {
			if stage != pipeline.StageRouter && stage != pipeline.StageOutputComposer {
				names = append(names, string(stage))
			}
		}
		fmt.Fprintf(&sb, "  %-14s %s\n", m, strings.Join(names, " -> "))
	}
	return sb.String()
}

func (a *app) runRequest(cmd *cobra.Command, f *runFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	changed := cmd.Flags().Changed
	cfg, err := a.loadConfig(f.configPath, func(c *config.Config) {
		if changed("input") {
			c.Input = f.input
		}
		if changed("job") {
			c.Job = f.job
		}
		if changed("job-url") {
			c.JobURL = f.jobURL
		}
		if changed("browser") {
			c.Browser = f.browser
		}
		if changed("mode") {
			c.Mode = f.mode
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
		if changed("stream") {
			c.Stream = f.stream
		}
		if changed("verbose") {
			c.Verbose = f.verbose
		}
	})
	if err != nil {
		return err
	}
	ctx = logger.Logger.WithContext(ctx)

	if cfg.Input == "" {
		return fmt.Errorf("--input must be provided (via flag or config)")
	}
	if cfg.Input == ingestion.Stdin && cfg.Job == ingestion.Stdin {
		return fmt.Errorf("--input and --job cannot both read stdin")
	}

	userInput, err := ingestion.ReadText(cfg.Input, a.stdin)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	jobDescription, err := ingestion.JobDescription(ctx,
		ingestion.JobSource{Path: cfg.Job, URL: cfg.JobURL}, a.stdin, jobFetcher(cfg.FetchOptions()))
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
	if database != nil {
		defer database.Close()
	}

	executor, err := newExecutor(client, cfg, database)
	if err != nil {
		return err
	}

	in := pipeline.Input{
		UserInput:      userInput,
		JobDescription: jobDescription,
		ModeHint:       pipeline.Mode(cfg.Mode),
	}
	printer := observability.NewPrinter(a.stderr)
	if cfg.Verbose {
		in.OnProgress = printer.PrintStage
	}
	if cfg.Stream {
		in.OnChunk = streamTo(a, cfg.Verbose)
	}

	res, err := executor.Execute(ctx, in)
	if cfg.Stream {
		fmt.Fprintln(a.stderr)
	}
	if err != nil {
		return err
	}
	if cfg.Verbose {
		printer.PrintRunSummary(res)
	}

	logger.Debug().Str("run_id", res.RunID.String()).Msg("writing output")
	_, err = fmt.Fprintln(a.stdout, res.Output)
	return err
}

// streamTo echoes chunks to stderr, starting a new block whenever the stage
// changes.
func streamTo(a *app, verbose bool) pipeline.ChunkCallback {
	var current pipeline.Stage
	return func(stage pipeline.Stage, chunk string) {
		if stage != current {
			if current != "" || verbose {
				fmt.Fprintln(a.stderr)
			}
			fmt.Fprintf(a.stderr, "[%s]\n", stage)
			current = stage
		}
		fmt.Fprint(a.stderr, chunk)
	}
}

func jobFetcher(opts *fetch.Options) ingestion.JobFetcher {
	return ingestion.JobFetcherFunc(func(ctx context.Context, url string) (string, error) {
		return fetch.JobText(ctx, url, opts)
	})
}
