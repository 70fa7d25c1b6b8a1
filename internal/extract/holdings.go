package extract

import (
	"context"
	"encoding/json"

	"github.com/spherical/statement-extractor/internal/domain"
	"github.com/spherical/statement-extractor/internal/llm"
	"github.com/spherical/statement-extractor/internal/observability"
)

// HoldingsExtractor derives individual holdings from one page's tables.
// Rate-limited calls are retried per its RetryPolicy; anything else fails at once.
type HoldingsExtractor struct {
	client      StructuredClient
	model       string
	temperature float64
	retry       llm.RetryPolicy
	logger      *observability.Logger
}

// NewHoldingsExtractor creates a holdings extractor
func NewHoldingsExtractor(client StructuredClient, model string, temperature float64, retry llm.RetryPolicy, logger *observability.Logger) *HoldingsExtractor {
	if logger == nil {
		logger = observability.Nop()
	}
	return &HoldingsExtractor{
		client:      client,
		model:       model,
		temperature: temperature,
		retry:       retry,
		logger:      logger.WithOperation("holdings_extract"),
	}
}

// Extract returns the holdings described by tables. A set with no tables still
// makes the call; the service answers with an empty list.
func (e *HoldingsExtractor) Extract(ctx context.Context, tables domain.TableSet) (domain.HoldingSet, error) {
	if tables.Tables == nil {
		tables.Tables = []domain.Table{}
	}
	payload, err := json.Marshal(tables)
	if err != nil {
		return domain.HoldingSet{}, domain.ExtractionError("Failed to serialize tables", err)
	}

	req := llm.Request{
		Model:        e.model,
		Temperature:  e.temperature,
		SystemPrompt: holdingsSystemPrompt,
		UserText:     string(payload),
		Schema:       llm.HoldingsSchema,
	}

	holdings, err := llm.Retry(ctx, e.retry, e.logger, func(ctx context.Context) (domain.HoldingSet, error) {
		var out domain.HoldingSet
		err := e.client.Complete(ctx, req, &out)
		return out, err
	})
	if err != nil {
		return domain.HoldingSet{}, err
	}
	if holdings.Holdings == nil {
		holdings.Holdings = []domain.Holding{}
	}

	return holdings, nil
}
