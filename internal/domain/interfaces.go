package domain

import "context"

// Rasterizer defines the interface for converting a PDF to page images
type Rasterizer interface {
	// Rasterize turns PDF bytes into JPEG page images ordered by page number
	Rasterize(ctx context.Context, pdf []byte) ([]PageImage, error)
}

// PageExtractor converts one page image into its tables
type PageExtractor interface {
	Extract(ctx context.Context, page PageImage) (TableSet, error)
}

// HoldingsExtractor derives individual holdings from one page's tables
type HoldingsExtractor interface {
	Extract(ctx context.Context, tables TableSet) (HoldingSet, error)
}

// Pipeline handles the complete workflow: rasterize -> extract pages -> aggregate
type Pipeline interface {
	Process(ctx context.Context, pdf []byte) (*ExtractionResult, error)
}
