package extract

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spherical/statement-extractor/internal/domain"
	"github.com/spherical/statement-extractor/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoPageStatement: page 1 has one holdings table, page 2 has no tables.
func twoPageStatement() *fakeClient {
	return &fakeClient{respond: func(req llm.Request) (string, error) {
		switch req.Schema {
		case llm.TablesSchema:
			if string(req.ImageJPEG) == "page-1" {
				return oneTablePage, nil
			}
			return `{"tables":[]}`, nil
		case llm.HoldingsSchema:
			if req.UserText == `{"tables":[]}` {
				return `{"holdings":[]}`, nil
			}
			return `{"holdings":[{"name":"Fund A","cost_basis":100.0}]}`, nil
		case llm.SummarySchema:
			return `{"account_owner_name":"Jane Doe","portfolio_value":100.0}`, nil
		}
		return "", errors.New("unexpected schema")
	}}
}

func newTestService(client StructuredClient, pages int) *Service {
	return NewService(&fakeRasterizer{pages: testPages(pages)}, client, Options{
		PageModel:    "gpt-4o",
		SummaryModel: "gpt-4o-mini",
		Workers:      4,
		Retry:        llm.DefaultRetryPolicy(),
	}, nil)
}

func TestService_Process_TwoPageStatement(t *testing.T) {
	client := twoPageStatement()
	svc := newTestService(client, 2)

	result, err := svc.Process(context.Background(), []byte("%PDF-1.7"))
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"account_owner_name":"Jane Doe","portfolio_value":100,"holdings":[{"name":"Fund A","cost_basis":100}]}`, string(data))

	assert.Len(t, client.callsFor(llm.TablesSchema), 2)
	assert.Len(t, client.callsFor(llm.HoldingsSchema), 2)

	summaryCalls := client.callsFor(llm.SummarySchema)
	require.Len(t, summaryCalls, 1)
	assert.Equal(t, "gpt-4o-mini", summaryCalls[0].Model)

	var payload []domain.Table
	require.NoError(t, json.Unmarshal([]byte(summaryCalls[0].UserText), &payload))
	require.Len(t, payload, 1)
	assert.Equal(t, "Brokerage > Holdings", payload[0].FullHeading)
}

func TestService_Process_HoldingsKeepPageOrder(t *testing.T) {
	client := &fakeClient{respond: func(req llm.Request) (string, error) {
		switch req.Schema {
		case llm.TablesSchema:
			heading := string(req.ImageJPEG)
			return `{"tables":[{"full_heading":"` + heading + `","rows":[]}]}`, nil
		case llm.HoldingsSchema:
			var ts domain.TableSet
			_ = json.Unmarshal([]byte(req.UserText), &ts)
			return `{"holdings":[{"name":"` + ts.Tables[0].FullHeading + `","cost_basis":1}]}`, nil
		default:
			return `{"account_owner_name":"","portfolio_value":0}`, nil
		}
	}}

	result, err := newTestService(client, 6).Process(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, h := range result.Holdings {
		names = append(names, h.Name)
	}
	assert.Equal(t, []string{"page-1", "page-2", "page-3", "page-4", "page-5", "page-6"}, names)
}

func TestService_Process_Idempotent(t *testing.T) {
	svc := newTestService(twoPageStatement(), 2)

	first, err := svc.Process(context.Background(), nil)
	require.NoError(t, err)
	second, err := svc.Process(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestService_Process_Failures(t *testing.T) {
	tests := []struct {
		name    string
		fail    *llm.Schema
		err     error
		wantErr error
	}{
		{name: "page rate limited", fail: llm.TablesSchema, err: domain.RateLimitError("429", nil), wantErr: domain.ErrRateLimited},
		{name: "summary schema mismatch", fail: llm.SummarySchema, err: domain.SchemaMismatchError("bad", nil), wantErr: domain.ErrSchemaMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := twoPageStatement()
			client := &fakeClient{respond: func(req llm.Request) (string, error) {
				if req.Schema == tt.fail {
					return "", tt.err
				}
				return base.respond(req)
			}}

			result, err := newTestService(client, 2).Process(context.Background(), nil)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Process_RasterizeError(t *testing.T) {
	client := twoPageStatement()
	svc := NewService(&fakeRasterizer{err: domain.ValidationError("not a pdf", nil)}, client, Options{}, nil)

	_, err := svc.Process(context.Background(), []byte("nope"))
	assert.Equal(t, domain.ErrorTypeValidation, domain.TypeOf(err))
	assert.Empty(t, client.calls)
}
