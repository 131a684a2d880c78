package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"noteaudit/core"
	"noteaudit/correct"
	"noteaudit/logging"
	"noteaudit/pipeline"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		// Use fmt here since logger isn't initialized yet
		fmt.Printf("Warning: could not load .env file: %v\n", err)
	}

	cfg, err := core.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.DevMode, cfg.LogFilePath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Single positional argument: the target folder. Defaults to the
	// current directory.
	inputDir := "."
	if len(os.Args) > 1 {
		inputDir = os.Args[1]
	}

	ref, err := core.LoadReferenceTables(cfg.ReferenceFile)
	if err != nil {
		logger.Fatal("failed to load reference tables",
			zap.String("file", cfg.ReferenceFile), zap.Error(err))
	}

	var gen correct.GoalGenerator
	if cfg.OpenAIAPIKey != "" {
		gen = correct.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.GoalModel)
	} else {
		logger.Warn("no OpenAI API key configured; missing goals will be reported, not drafted",
			zap.String("hint", core.ErrMissingAPIKey().Action))
	}

	logger.Info("configuration loaded",
		zap.String("folder", inputDir),
		zap.String("goal_model", cfg.GoalModel),
		zap.Duration("ai_timeout", cfg.AITimeout),
		zap.Int("max_concurrent", cfg.MaxConcurrent),
		zap.Bool("dev_mode", cfg.DevMode),
	)

	// Interrupt cancels in-flight files; completed outcomes still report.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received interrupt signal, cancelling run")
		cancel()
	}()

	p := pipeline.New(cfg, ref, gen, logger)
	result, err := p.Run(ctx, inputDir)
	if err != nil {
		// A folder with nothing left to process is a normal state for a
		// rerun, not a failure.
		if noInputRun(err) {
			logger.Info("no PDF files found; nothing to do", zap.String("folder", inputDir))
			color.New(color.FgYellow).Printf("No PDF files found in %s; nothing to do.\n", inputDir)
			return
		}
		logger.Fatal("run failed", zap.Error(err))
	}

	printSummary(result)
}

// noInputRun reports whether the run ended only because the folder had no
// PDFs to process.
func noInputRun(err error) bool {
	var perr *core.ProcessingError
	return errors.As(err, &perr) && perr.Code == core.ErrCodeNoInput
}

// printSummary writes the colored end-of-run summary to stdout.
func printSummary(result *pipeline.Result) {
	counts := result.Report.Counts

	header := color.New(color.FgCyan, color.Bold)
	header.Println("\nCompliance run complete")

	fmt.Printf("  Total files:   %d\n", counts.Total)
	fmt.Printf("  Therapy notes: %d\n", counts.Therapy)
	fmt.Printf("  Medical notes: %d\n", counts.Medical)

	color.New(color.FgGreen).Printf("  Compliant:     %d\n", counts.Compliant)
	color.New(color.FgGreen).Printf("  Corrected:     %d\n", counts.Corrected)
	if counts.NeedsReview > 0 {
		color.New(color.FgYellow).Printf("  Needs review:  %d\n", counts.NeedsReview)
	}
	if counts.Skipped > 0 {
		color.New(color.FgHiBlack).Printf("  Skipped:       %d\n", counts.Skipped)
	}
	if counts.Failed > 0 {
		color.New(color.FgRed).Printf("  Failed:        %d\n", counts.Failed)
	}
	if counts.BelowMDM > 0 {
		color.New(color.FgYellow).Printf("  Below MDM:     %d\n", counts.BelowMDM)
	}

	fmt.Printf("\n  Report: %s\n", result.HTMLPath)
	fmt.Printf("  Data:   %s\n", result.JSONPath)
}
