package extract

import (
	"context"
	"time"

	"github.com/spherical/statement-extractor/internal/domain"
	"github.com/spherical/statement-extractor/internal/observability"
	"github.com/spherical/statement-extractor/internal/workerpool"
)

// Phase names reported to progress callbacks
const (
	PhasePages    = "pages"
	PhaseHoldings = "holdings"
)

// ProgressFunc is told how many tasks of a phase have finished
type ProgressFunc func(phase string, done, total int)

// Coordinator fans pages out to the extractors in two phases. Both phases run
// on one pool created per call, and the second starts only after every page
// of the first has finished.
type Coordinator struct {
	pages    domain.PageExtractor
	holdings domain.HoldingsExtractor
	poolSize int
	progress ProgressFunc
	logger   *observability.Logger
}

// NewCoordinator creates a coordinator. poolSize <= 0 means runtime.NumCPU().
func NewCoordinator(pages domain.PageExtractor, holdings domain.HoldingsExtractor, poolSize int, progress ProgressFunc, logger *observability.Logger) *Coordinator {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Coordinator{
		pages:    pages,
		holdings: holdings,
		poolSize: poolSize,
		progress: progress,
		logger:   logger.WithOperation("coordinate"),
	}
}

// Run extracts tables from every page, then holdings from every page's tables.
// Both outputs are aligned with images by index. Any failure fails the whole
// run once its phase has drained, and no partial output is returned.
func (c *Coordinator) Run(ctx context.Context, images []domain.PageImage) ([]domain.TableSet, []domain.HoldingSet, error) {
	pool := workerpool.New(c.poolSize)
	log := c.logger.WithContext(ctx)

	start := time.Now()
	tables, err := workerpool.Map(ctx, pool, images, func(ctx context.Context, _ int, page domain.PageImage) (domain.TableSet, error) {
		return c.pages.Extract(ctx, page)
	}, c.progressOption(PhasePages))
	if err != nil {
		log.Error().Err(err).Int("pages", len(images)).Msg("Table extraction failed")
		return nil, nil, err
	}
	log.Info().Int("pages", len(images)).Int("workers", pool.Size()).Dur("elapsed", time.Since(start)).Msg("Tables extracted")

	start = time.Now()
	holdings, err := workerpool.Map(ctx, pool, tables, func(ctx context.Context, _ int, ts domain.TableSet) (domain.HoldingSet, error) {
		return c.holdings.Extract(ctx, ts)
	}, c.progressOption(PhaseHoldings))
	if err != nil {
		log.Error().Err(err).Int("pages", len(images)).Msg("Holdings extraction failed")
		return nil, nil, err
	}
	log.Info().Int("pages", len(images)).Dur("elapsed", time.Since(start)).Msg("Holdings extracted")

	return tables, holdings, nil
}

func (c *Coordinator) progressOption(phase string) workerpool.Option {
	return workerpool.WithProgress(func(done, total int) {
		if c.progress != nil {
			c.progress(phase, done, total)
		}
	})
}
