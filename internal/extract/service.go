package extract

import (
	"context"
	"time"

	"github.com/spherical/statement-extractor/internal/domain"
	"github.com/spherical/statement-extractor/internal/llm"
	"github.com/spherical/statement-extractor/internal/observability"
)

// Options configures a Service
type Options struct {
	PageModel    string
	SummaryModel string
	Temperature  float64
	Workers      int
	Retry        llm.RetryPolicy
	Progress     ProgressFunc
}

// Service orchestrates the statement extraction process
type Service struct {
	rasterizer  domain.Rasterizer
	coordinator *Coordinator
	aggregator  *Aggregator
	logger      *observability.Logger
}

// NewService wires the extractors, coordinator and aggregator around one client
func NewService(rasterizer domain.Rasterizer, client StructuredClient, opts Options, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.Nop()
	}
	pages := NewPageExtractor(client, opts.PageModel, opts.Temperature, logger)
	holdings := NewHoldingsExtractor(client, opts.PageModel, opts.Temperature, opts.Retry, logger)

	return &Service{
		rasterizer:  rasterizer,
		coordinator: NewCoordinator(pages, holdings, opts.Workers, opts.Progress, logger),
		aggregator:  NewAggregator(client, opts.SummaryModel, opts.Temperature, logger),
		logger:      logger.WithOperation("extract"),
	}
}

// Process handles the complete workflow: rasterize, extract every page, aggregate
func (s *Service) Process(ctx context.Context, pdf []byte) (*domain.ExtractionResult, error) {
	start := time.Now()
	log := s.logger.WithContext(ctx)

	images, err := s.rasterizer.Rasterize(ctx, pdf)
	if err != nil {
		log.Error().Err(err).Msg("Rasterization failed")
		return nil, err
	}
	log.Info().Int("pages", len(images)).Int("bytes", len(pdf)).Msg("Processing statement")

	tables, holdings, err := s.coordinator.Run(ctx, images)
	if err != nil {
		return nil, err
	}

	result, err := s.aggregator.Aggregate(ctx, tables, holdings)
	if err != nil {
		log.Error().Err(err).Msg("Aggregation failed")
		return nil, err
	}

	log.Info().
		Int("pages", len(images)).
		Int("holdings", len(result.Holdings)).
		Dur("elapsed", time.Since(start)).
		Msg("Extraction complete")

	return result, nil
}
