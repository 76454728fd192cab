package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/skillgauge/skillgauge/internal/config"
	"github.com/skillgauge/skillgauge/internal/dataset"
	"github.com/skillgauge/skillgauge/internal/execution"
	"github.com/skillgauge/skillgauge/internal/feedback"
	"github.com/skillgauge/skillgauge/internal/judge"
	"github.com/skillgauge/skillgauge/internal/models"
	"github.com/skillgauge/skillgauge/internal/orchestration"
	"github.com/skillgauge/skillgauge/internal/reporting"
	"github.com/skillgauge/skillgauge/internal/scoring"
)

var (
	runParallel     bool
	runWorkers      int
	runProvider     string
	runModel        string
	runBaseURL      string
	runFeedbackPath string
	runJUnitPath    string
	runVerbose      bool
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <suite.yaml>",
		Short: "Run an evaluation suite",
		Long: `Run an evaluation suite from a config file.

The config names the suite kind (structural or quality), the dataset of test
cases, and for quality suites the judge provider and model. Structural suites
need no credentials; quality suites read OPENAI_API_KEY or ANTHROPIC_API_KEY
from the environment depending on the provider.`,
		Args: cobra.ExactArgs(1),
		RunE: runSuiteE,
	}

	cmd.Flags().BoolVar(&runParallel, "parallel", false, "Run cases concurrently")
	cmd.Flags().IntVar(&runWorkers, "workers", 0, "Number of concurrent workers (default: 4, requires --parallel)")
	cmd.Flags().StringVar(&runProvider, "provider", "", "Judge provider: openai | anthropic (overrides config)")
	cmd.Flags().StringVar(&runModel, "model", "", "Judge model (overrides config)")
	cmd.Flags().StringVar(&runBaseURL, "base-url", "", "Override the OpenAI-compatible endpoint base URL")
	cmd.Flags().StringVar(&runFeedbackPath, "feedback", "", "Append per-check scores as JSON lines to this file")
	cmd.Flags().StringVar(&runJUnitPath, "junit", "", "Write a JUnit XML report to this file")
	cmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print per-check scores to stdout")

	return cmd
}

func runSuiteE(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}

	// CLI flags override config
	if runParallel {
		cfg.Parallel = true
	}
	if runWorkers > 0 {
		cfg.Workers = runWorkers
	}
	if runProvider != "" {
		cfg.Provider = runProvider
	}
	if runModel != "" {
		cfg.Model = runModel
	}

	cases, err := dataset.Load(cfg.DatasetPath())
	if err != nil {
		return err
	}

	sink, cleanup, err := buildSink()
	if err != nil {
		return err
	}
	defer cleanup()

	var engine execution.AnswerEngine
	var scorer *scoring.CompositeScorer
	if cfg.Kind == config.SuiteQuality {
		client, err := buildJudgeClient(cfg)
		if err != nil {
			return err
		}
		scorer = scoring.NewCompositeScorer(judge.NewInvoker(client))
		engine = execution.NewChatEngine(client, cfg.Model)
	}

	runner := orchestration.NewRunner(cfg, engine, scorer, sink,
		orchestration.WithProgressListener(progressPrinter))

	outcome, err := runner.RunSuite(cmd.Context(), cases)
	if err != nil {
		return err
	}

	printSuiteSummary(outcome)

	if runJUnitPath != "" {
		if err := reporting.WriteJUnitXML(outcome, runJUnitPath); err != nil {
			return err
		}
		fmt.Printf("JUnit report written to %s\n", runJUnitPath)
	}

	if outcome.Digest.Errors > 0 {
		return fmt.Errorf("%d case(s) hit execution errors", outcome.Digest.Errors)
	}
	if outcome.Digest.Failed > 0 {
		return &CaseFailureError{Message: fmt.Sprintf("%d of %d case(s) failed", outcome.Digest.Failed, outcome.Digest.Total)}
	}
	return nil
}

// buildSink assembles the feedback destination from the CLI flags. The
// returned cleanup closes file-backed sinks.
func buildSink() (feedback.Sink, func(), error) {
	if runFeedbackPath != "" {
		jsonl, err := feedback.NewJSONLSink(runFeedbackPath)
		if err != nil {
			return nil, nil, err
		}
		return jsonl, func() { _ = jsonl.Close() }, nil
	}
	if runVerbose {
		return feedback.NewConsoleSink(os.Stdout), func() {}, nil
	}
	return nil, func() {}, nil
}

func buildJudgeClient(cfg *config.SuiteConfig) (judge.Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("quality suite %q needs a model (config or --model)", cfg.Name)
	}
	switch cfg.Provider {
	case "openai", "":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return judge.NewOpenAIClient(apiKey, runBaseURL, cfg.Model), nil
	case "anthropic":
		if os.Getenv("ANTHROPIC_API_KEY") == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
		}
		return judge.NewAnthropicClient(cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (expected openai or anthropic)", cfg.Provider)
	}
}

func progressPrinter(event orchestration.ProgressEvent) {
	switch event.EventType {
	case orchestration.EventSuiteStart:
		fmt.Printf("Running %d case(s)...\n", event.TotalCases)
	case orchestration.EventCaseComplete:
		fmt.Printf("[%d/%d] %s: %s (%s)\n",
			event.CaseNum, event.TotalCases, event.CaseID, event.Status,
			time.Duration(event.DurationMs)*time.Millisecond)
	}
}

func printSuiteSummary(outcome *models.SuiteOutcome) {
	d := outcome.Digest
	fmt.Printf("\nSuite %s (%s): %d passed, %d failed, %d errors (pass rate %.0f%%, %s)\n",
		outcome.Name, outcome.Kind, d.Passed, d.Failed, d.Errors,
		d.PassRate*100, time.Duration(d.DurationMs)*time.Millisecond)

	for _, c := range outcome.Cases {
		if c.Status == models.StatusPassed && len(c.Scores) == 0 {
			continue
		}
		line := fmt.Sprintf("  %s: %s", c.ID, c.Status)
		if scores := reporting.FormatScores(c.Scores); scores != "" {
			line += " " + scores
		}
		if c.ErrorMsg != "" {
			line += " (" + c.ErrorMsg + ")"
		}
		fmt.Println(line)
		for _, f := range c.Failures {
			fmt.Printf("    - %s\n", f)
		}
	}
}
