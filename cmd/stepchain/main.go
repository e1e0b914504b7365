package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"

	"stepchain/internal/collector"
	"stepchain/internal/config"
	"stepchain/internal/log"
	"stepchain/internal/o11y"
	"stepchain/internal/progress"
	"stepchain/internal/ratelimit"
	"stepchain/internal/scenario"
	"stepchain/internal/script"
)

const (
	ExitSuccess        = 0
	ExitScenarioFailed = 1
	ExitError          = 2
)

type options struct {
	configPath string
	page       string
	output     string
	logs       string
	rate       float64
	verbose    bool
	quiet      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to YAML scenario file (required)")
	flag.StringVar(&opts.page, "page", "", "page fixture overriding scenario.page (.json or .yaml)")
	flag.StringVar(&opts.output, "output", "text", "output format: text, json")
	flag.StringVar(&opts.logs, "logs", "", "directory for per-run log files (overrides logging.dir)")
	flag.Float64Var(&opts.rate, "rate", -1, "simulated input events per second, 0 for unpaced (overrides input.rate)")
	flag.BoolVar(&opts.verbose, "verbose", false, "enable debug logging")
	flag.BoolVar(&opts.quiet, "quiet", false, "suppress progress output during the run")
	flag.Parse()

	if opts.configPath == "" {
		fmt.Fprintln(os.Stderr, "error: --config is required")
		flag.Usage()
		os.Exit(ExitError)
	}
	if opts.output != "text" && opts.output != "json" {
		fmt.Fprintf(os.Stderr, "error: --output must be 'text' or 'json', got %q\n", opts.output)
		os.Exit(ExitError)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, opts, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) int {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}
	if opts.page != "" {
		cfg.Scenario.Page = opts.page
	}
	if opts.logs != "" {
		cfg.Logging.Dir = opts.logs
	}
	if opts.rate >= 0 {
		cfg.Input.Rate = opts.rate
	}
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}

	ctx = clog.WithLogger(ctx, log.New(stderr, log.ParseLevel(cfg.Logging.Level)))

	shutdown, err := o11y.SetupTracing(ctx)
	if err != nil {
		log.Warn(ctx, "tracing disabled", log.Err(err))
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn(ctx, "failed to flush traces", log.Err(err))
		}
	}()

	sc, err := script.Load(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}

	runID := uuid.NewString()
	ctx, closeLogs := log.SetupScenarioLogging(ctx, cfg.Logging.Dir, runID, sc.Name)
	defer closeLogs()

	coll := collector.NewCollector()
	prog := progress.NewProgress(coll, sc.Batch.WorstCase(), opts.quiet || opts.output == "json")
	prog.SetOutput(stderr)
	prog.Printf("stepchain: scenario %q, %d steps, worst case %s", sc.Name, sc.Batch.Len(), sc.Batch.WorstCase())

	grace := cfg.Scenario.Grace
	if grace == 0 {
		grace = scenario.DefaultGrace
	}

	prog.Start()
	_, runErr := scenario.Execute(ctx, sc.Batch, scenario.NewCLI(grace),
		scenario.WithPage(sc.Page),
		scenario.WithVariables(sc.Vars),
		scenario.WithReporter(coll),
		scenario.WithPacer(ratelimit.NewPacer(cfg.Input.Rate)),
		scenario.WithRunner(scenario.WithRunID(runID), scenario.WithName(sc.Name)),
	)
	prog.Stop()
	coll.Close()

	summary := coll.Summary()
	summary.RunID = runID
	if opts.output == "json" {
		if err := collector.FormatJSON(stdout, sc.Name, summary); err != nil {
			fmt.Fprintf(stderr, "error: writing report: %v\n", err)
			return ExitError
		}
	} else {
		collector.FormatText(stdout, sc.Name, summary)
	}

	if ctx.Err() != nil {
		fmt.Fprintln(stderr, "interrupted")
		return ExitSuccess
	}
	if runErr != nil {
		if opts.output == "text" {
			fmt.Fprintf(stderr, "\nScenario failed after %s:\n%v\n", summary.Duration.Round(time.Millisecond), runErr)
		}
		return ExitScenarioFailed
	}
	return ExitSuccess
}
