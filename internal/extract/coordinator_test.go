package extract

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spherical/statement-extractor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPages(n int) []domain.PageImage {
	pages := make([]domain.PageImage, n)
	for i := range pages {
		pages[i] = domain.PageImage{PageNumber: i + 1, Data: []byte(fmt.Sprintf("page-%d", i+1))}
	}
	return pages
}

func TestCoordinator_OutputsAlignedWithPages(t *testing.T) {
	const n = 7
	pages := pageFunc(func(_ context.Context, page domain.PageImage) (domain.TableSet, error) {
		// later pages finish first
		time.Sleep(time.Duration(n-page.PageNumber) * time.Millisecond)
		return domain.TableSet{Tables: []domain.Table{{FullHeading: string(page.Data)}}}, nil
	})
	holdings := holdingsFunc(func(_ context.Context, ts domain.TableSet) (domain.HoldingSet, error) {
		return domain.HoldingSet{Holdings: []domain.Holding{{Name: ts.Tables[0].FullHeading}}}, nil
	})

	coord := NewCoordinator(pages, holdings, 3, nil, nil)
	tables, holds, err := coord.Run(context.Background(), testPages(n))

	require.NoError(t, err)
	require.Len(t, tables, n)
	require.Len(t, holds, n)
	for i := 0; i < n; i++ {
		want := fmt.Sprintf("page-%d", i+1)
		assert.Equal(t, want, tables[i].Tables[0].FullHeading)
		assert.Equal(t, want, holds[i].Holdings[0].Name)
	}
}

func TestCoordinator_HoldingsPhaseWaitsForAllPages(t *testing.T) {
	const n = 5
	var pagesDone atomic.Int32
	pages := pageFunc(func(_ context.Context, page domain.PageImage) (domain.TableSet, error) {
		time.Sleep(time.Duration(page.PageNumber) * time.Millisecond)
		pagesDone.Add(1)
		return domain.TableSet{}, nil
	})
	holdings := holdingsFunc(func(context.Context, domain.TableSet) (domain.HoldingSet, error) {
		assert.Equal(t, int32(n), pagesDone.Load())
		return domain.HoldingSet{}, nil
	})

	_, _, err := NewCoordinator(pages, holdings, 2, nil, nil).Run(context.Background(), testPages(n))
	require.NoError(t, err)
}

func TestCoordinator_PageFailureFailsRun(t *testing.T) {
	var finished atomic.Int32
	boom := errors.New("vision call failed")
	pages := pageFunc(func(_ context.Context, page domain.PageImage) (domain.TableSet, error) {
		defer finished.Add(1)
		if page.PageNumber == 2 {
			return domain.TableSet{}, boom
		}
		time.Sleep(3 * time.Millisecond)
		return domain.TableSet{}, nil
	})
	holdings := holdingsFunc(func(context.Context, domain.TableSet) (domain.HoldingSet, error) {
		t.Error("holdings phase must not start after a page failure")
		return domain.HoldingSet{}, nil
	})

	tables, holds, err := NewCoordinator(pages, holdings, 4, nil, nil).Run(context.Background(), testPages(4))

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, tables)
	assert.Nil(t, holds)
	assert.Equal(t, int32(4), finished.Load(), "in-flight pages drain before failing")
}

func TestCoordinator_HoldingsFailureFailsRun(t *testing.T) {
	pages := pageFunc(func(context.Context, domain.PageImage) (domain.TableSet, error) {
		return domain.TableSet{}, nil
	})
	holdings := holdingsFunc(func(context.Context, domain.TableSet) (domain.HoldingSet, error) {
		return domain.HoldingSet{}, domain.RetriesExhaustedError("gave up", nil)
	})

	_, _, err := NewCoordinator(pages, holdings, 2, nil, nil).Run(context.Background(), testPages(3))
	assert.True(t, errors.Is(err, domain.ErrRetriesExhausted))
}

func TestCoordinator_ReportsProgress(t *testing.T) {
	pages := pageFunc(func(context.Context, domain.PageImage) (domain.TableSet, error) {
		return domain.TableSet{}, nil
	})
	holdings := holdingsFunc(func(context.Context, domain.TableSet) (domain.HoldingSet, error) {
		return domain.HoldingSet{}, nil
	})

	var mu sync.Mutex
	final := map[string]int{}
	progress := func(phase string, done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 3, total)
		if done > final[phase] {
			final[phase] = done
		}
	}

	_, _, err := NewCoordinator(pages, holdings, 2, progress, nil).Run(context.Background(), testPages(3))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{PhasePages: 3, PhaseHoldings: 3}, final)
}
