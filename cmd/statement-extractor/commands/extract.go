package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical/statement-extractor/cmd/statement-extractor/ui"
	"github.com/spherical/statement-extractor/internal/domain"
	"github.com/spherical/statement-extractor/internal/extract"
)

var (
	extractPDFPath    string
	extractOutputPath string
	extractTimeout    time.Duration
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract holdings from a local PDF statement",
	Long:  "Run the extraction pipeline on a PDF file and print or save the JSON result.",
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractPDFPath, "pdf", "p", "", "Path to PDF statement (required)")
	extractCmd.Flags().StringVarP(&extractOutputPath, "output", "o", "", "Write JSON to this file instead of stdout")
	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 15*time.Minute, "Abort if extraction takes longer")
	_ = extractCmd.MarkFlagRequired("pdf")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Extraction.APIKey == "" {
		return domain.ConfigError("OPENAI_API_KEY is not set", nil)
	}
	// keep log lines off stdout, which carries the JSON result
	if !verbose {
		cfg.Observability.LogLevel = "warn"
	}
	cfg.Observability.LogFormat = "console"

	data, err := os.ReadFile(extractPDFPath)
	if err != nil {
		return domain.IOError(fmt.Sprintf("cannot read %s", extractPDFPath), err)
	}

	ui.Section("Statement Extraction")
	ui.Info("PDF file: %s", extractPDFPath)
	ui.Info("Model: %s (summary: %s)", cfg.Extraction.PageModel, cfg.Extraction.SummaryModel)

	progress := ui.NewPhaseProgress()
	defer progress.Finish()

	service, err := newService(cfg, newLogger(cfg, os.Stderr), func(phase string, done, total int) {
		progress.Update(phaseLabel(phase), done, total)
	})
	if err != nil {
		return err
	}

	start := time.Now()
	spinner := ui.NewSpinner("Rasterizing PDF...")
	spinner.Start()
	progress.OnFirstUpdate(spinner.Stop)

	result, err := service.Process(ctx, data)
	spinner.Stop()
	progress.Finish()
	if err != nil {
		ui.Error("Extraction failed after %s: %v", ui.FormatDuration(time.Since(start)), err)
		return fmt.Errorf("extraction failed: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	ui.Success("Extraction completed in %s", ui.FormatDuration(time.Since(start)))
	ui.Section("Summary")
	ui.Table([]string{"Field", "Value"}, [][]string{
		{"Account owner", result.AccountOwnerName},
		{"Portfolio value", fmt.Sprintf("%.2f", result.PortfolioValue)},
		{"Holdings", fmt.Sprintf("%d", len(result.Holdings))},
	})
	ui.Newline()

	if extractOutputPath == "" {
		fmt.Fprintln(os.Stdout, string(out))
		return nil
	}
	if err := os.WriteFile(extractOutputPath, append(out, '\n'), 0o644); err != nil {
		return domain.IOError(fmt.Sprintf("cannot write %s", extractOutputPath), err)
	}
	ui.Success("JSON saved to: %s", extractOutputPath)
	return nil
}

func phaseLabel(phase string) string {
	switch phase {
	case extract.PhasePages:
		return "Reading tables  "
	case extract.PhaseHoldings:
		return "Finding holdings"
	default:
		return phase
	}
}
