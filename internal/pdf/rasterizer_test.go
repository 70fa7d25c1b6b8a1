package pdf

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/spherical/statement-extractor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF returns a minimal blank PDF with one page per entry in widths.
// Every page is 200pt tall.
func buildPDF(widths ...int) []byte {
	var objects []string
	kids := ""
	for i := range widths {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(widths)),
	)
	for _, w := range widths {
		objects = append(objects, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d 200] >>", w))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestRasterizer_Rasterize(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		data       []byte
		wantWidths []int
		wantType   domain.ErrorType
	}{
		{
			name:       "pages in document order",
			opts:       Options{Quality: 85, DPI: 72},
			data:       buildPDF(100, 200, 300),
			wantWidths: []int{100, 200, 300},
		},
		{
			name:       "single page",
			opts:       Options{Quality: 50, DPI: 72},
			data:       buildPDF(150),
			wantWidths: []int{150},
		},
		{
			name:       "within page limit",
			opts:       Options{Quality: 85, DPI: 72, MaxPages: 2},
			data:       buildPDF(100, 120),
			wantWidths: []int{100, 120},
		},
		{
			name:     "over page limit",
			opts:     Options{Quality: 85, DPI: 72, MaxPages: 2},
			data:     buildPDF(100, 200, 300),
			wantType: domain.ErrorTypeValidation,
		},
		{
			name:     "corrupt body",
			opts:     Options{Quality: 85, DPI: 72},
			data:     []byte("%PDF-garbage"),
			wantType: domain.ErrorTypeConversion,
		},
		{
			name:     "not a pdf",
			opts:     Options{Quality: 85, DPI: 72},
			data:     []byte("hello"),
			wantType: domain.ErrorTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRasterizer(tt.opts, nil)
			require.NoError(t, err)

			pages, err := r.Rasterize(context.Background(), tt.data)
			if tt.wantType != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantType, domain.TypeOf(err))
				assert.Nil(t, pages)
				return
			}

			require.NoError(t, err)
			require.Len(t, pages, len(tt.wantWidths))
			for i, page := range pages {
				assert.Equal(t, i+1, page.PageNumber)
				assert.Equal(t, tt.wantWidths[i], page.Width)
				assert.Equal(t, 200, page.Height)
				require.GreaterOrEqual(t, len(page.Data), 2)
				assert.Equal(t, []byte{0xFF, 0xD8}, page.Data[:2], "page %d is not a JPEG", page.PageNumber)
			}
		})
	}
}

func TestRasterizer_DPIScalesPages(t *testing.T) {
	r, err := NewRasterizer(Options{Quality: 85, DPI: 144}, nil)
	require.NoError(t, err)

	pages, err := r.Rasterize(context.Background(), buildPDF(100))
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 200, pages[0].Width)
	assert.Equal(t, 400, pages[0].Height)
}

func TestRasterizer_CanceledContext(t *testing.T) {
	r, err := NewRasterizer(Options{Quality: 85, DPI: 72}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Rasterize(ctx, buildPDF(100, 100))
	assert.ErrorIs(t, err, context.Canceled)
}
