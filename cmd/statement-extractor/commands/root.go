package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/spherical/statement-extractor/cmd/statement-extractor/ui"
	"github.com/spherical/statement-extractor/internal/config"
	"github.com/spherical/statement-extractor/internal/extract"
	"github.com/spherical/statement-extractor/internal/llm"
	"github.com/spherical/statement-extractor/internal/observability"
	"github.com/spherical/statement-extractor/internal/pdf"
)

// Version is set at build time with -ldflags.
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "statement-extractor",
	Short: "Extract holdings and account figures from PDF financial statements",
	Long: `statement-extractor rasterizes each page of a PDF financial statement, asks a
vision model to transcribe its tables, and derives the account owner, portfolio
value and individual holdings as a single JSON document.

Run it as an HTTP service with "serve" or on a local file with "extract".`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.InitUI(noColor)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default $CONFIG_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return config.Load(path)
}

func newLogger(cfg *config.Config, out io.Writer) *observability.Logger {
	level := cfg.Observability.LogLevel
	if verbose {
		level = "debug"
	}
	return observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      cfg.Observability.LogFormat,
		Output:      out,
		ServiceName: cfg.Observability.ServiceName,
	})
}

// newService builds the extraction pipeline around one shared client.
func newService(cfg *config.Config, logger *observability.Logger, progress extract.ProgressFunc) (*extract.Service, error) {
	rasterizer, err := pdf.NewRasterizer(pdf.Options{
		Quality:  cfg.Raster.Quality,
		DPI:      cfg.Raster.DPI,
		MaxPages: cfg.Raster.MaxPages,
		MaxBytes: cfg.Server.MaxUploadBytes,
	}, logger)
	if err != nil {
		return nil, err
	}

	client := llm.NewClient(llm.Config{
		BaseURL: cfg.Extraction.BaseURL,
		APIKey:  cfg.Extraction.APIKey,
		Timeout: cfg.Extraction.Timeout,
	}, logger)

	retry := llm.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.Extraction.HoldingsMaxAttempts
	retry.BackoffUnit = cfg.Extraction.HoldingsBackoffUnit

	return extract.NewService(rasterizer, client, extract.Options{
		PageModel:    cfg.Extraction.PageModel,
		SummaryModel: cfg.Extraction.SummaryModel,
		Temperature:  cfg.Extraction.Temperature,
		Workers:      cfg.PoolSize(),
		Retry:        retry,
		Progress:     progress,
	}, logger), nil
}
