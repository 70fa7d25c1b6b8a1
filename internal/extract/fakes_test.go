package extract

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/spherical/statement-extractor/internal/domain"
	"github.com/spherical/statement-extractor/internal/llm"
)

// fakeClient answers structured calls with canned JSON chosen by respond.
type fakeClient struct {
	mu      sync.Mutex
	calls   []llm.Request
	respond func(req llm.Request) (string, error)
}

func (f *fakeClient) Complete(_ context.Context, req llm.Request, out any) error {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	body, err := f.respond(req)
	if err != nil {
		return err
	}
	if err := req.Schema.Validate([]byte(body)); err != nil {
		return domain.SchemaMismatchError("fake output failed validation", err)
	}
	return json.Unmarshal([]byte(body), out)
}

func (f *fakeClient) callsFor(schema *llm.Schema) []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []llm.Request
	for _, c := range f.calls {
		if c.Schema == schema {
			out = append(out, c)
		}
	}
	return out
}

type fakeRasterizer struct {
	pages []domain.PageImage
	err   error
}

func (f *fakeRasterizer) Rasterize(context.Context, []byte) ([]domain.PageImage, error) {
	return f.pages, f.err
}

type pageFunc func(ctx context.Context, page domain.PageImage) (domain.TableSet, error)

func (f pageFunc) Extract(ctx context.Context, page domain.PageImage) (domain.TableSet, error) {
	return f(ctx, page)
}

type holdingsFunc func(ctx context.Context, tables domain.TableSet) (domain.HoldingSet, error)

func (f holdingsFunc) Extract(ctx context.Context, tables domain.TableSet) (domain.HoldingSet, error) {
	return f(ctx, tables)
}
