// Package extract turns rasterized statement pages into holdings and account
// summary figures using a structured-extraction service.
package extract

import (
	"context"
	"fmt"

	"github.com/spherical/statement-extractor/internal/domain"
	"github.com/spherical/statement-extractor/internal/llm"
	"github.com/spherical/statement-extractor/internal/observability"
)

// StructuredClient performs one schema-constrained extraction call
type StructuredClient interface {
	Complete(ctx context.Context, req llm.Request, out any) error
}

// PageExtractor converts a page image into its tables with a single call.
// Errors, rate limiting included, are returned as-is without retry.
type PageExtractor struct {
	client      StructuredClient
	model       string
	temperature float64
	logger      *observability.Logger
}

// NewPageExtractor creates a page extractor
func NewPageExtractor(client StructuredClient, model string, temperature float64, logger *observability.Logger) *PageExtractor {
	if logger == nil {
		logger = observability.Nop()
	}
	return &PageExtractor{
		client:      client,
		model:       model,
		temperature: temperature,
		logger:      logger.WithOperation("page_extract"),
	}
}

// Extract returns the tables found on one page
func (e *PageExtractor) Extract(ctx context.Context, page domain.PageImage) (domain.TableSet, error) {
	var tables domain.TableSet
	err := e.client.Complete(ctx, llm.Request{
		Model:        e.model,
		Temperature:  e.temperature,
		SystemPrompt: pageSystemPrompt,
		ImageJPEG:    page.Data,
		Schema:       llm.TablesSchema,
	}, &tables)
	if err != nil {
		return domain.TableSet{}, domain.ExtractionError(fmt.Sprintf("page %d: table extraction failed", page.PageNumber), err)
	}

	e.logger.WithContext(ctx).Debug().
		Int("page", page.PageNumber).
		Int("tables", len(tables.Tables)).
		Msg("Page tables extracted")

	return tables, nil
}
