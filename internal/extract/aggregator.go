package extract

import (
	"context"
	"encoding/json"

	"github.com/spherical/statement-extractor/internal/domain"
	"github.com/spherical/statement-extractor/internal/llm"
	"github.com/spherical/statement-extractor/internal/observability"
)

// Aggregator merges per-page output into the final result. It makes one
// summary call over every table of the statement, without retry.
type Aggregator struct {
	client      StructuredClient
	model       string
	temperature float64
	logger      *observability.Logger
}

// NewAggregator creates an aggregator
func NewAggregator(client StructuredClient, model string, temperature float64, logger *observability.Logger) *Aggregator {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Aggregator{
		client:      client,
		model:       model,
		temperature: temperature,
		logger:      logger.WithOperation("aggregate"),
	}
}

// Aggregate derives the account summary from all tables and appends the
// holdings of every page in page order
func (a *Aggregator) Aggregate(ctx context.Context, tables []domain.TableSet, holdings []domain.HoldingSet) (*domain.ExtractionResult, error) {
	payload, err := json.Marshal(domain.FlattenTables(tables))
	if err != nil {
		return nil, domain.ExtractionError("Failed to serialize tables", err)
	}

	var summary domain.SummaryRecord
	err = a.client.Complete(ctx, llm.Request{
		Model:        a.model,
		Temperature:  a.temperature,
		SystemPrompt: summarySystemPrompt,
		UserText:     string(payload),
		Schema:       llm.SummarySchema,
	}, &summary)
	if err != nil {
		return nil, domain.ExtractionError("summary extraction failed", err)
	}

	result := domain.NewExtractionResult(summary, domain.FlattenHoldings(holdings))

	a.logger.WithContext(ctx).Info().
		Int("holdings", len(result.Holdings)).
		Float64("portfolio_value", result.PortfolioValue).
		Msg("Statement aggregated")

	return result, nil
}
