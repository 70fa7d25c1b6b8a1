// Package pdf rasterizes PDF documents into per-page JPEG images.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"time"

	"github.com/gen2brain/go-fitz"
	"github.com/spherical/statement-extractor/internal/domain"
	"github.com/spherical/statement-extractor/internal/observability"
)

// Options controls rasterization output
type Options struct {
	Quality  int     // JPEG quality, 1..100
	DPI      float64 // render resolution
	MaxPages int     // 0 = unlimited
	MaxBytes int64   // upload limit enforced before opening the document
}

// Rasterizer implements domain.Rasterizer using go-fitz (MuPDF).
// Pages are kept in memory; nothing touches the filesystem.
type Rasterizer struct {
	opts      Options
	validator *Validator
	logger    *observability.Logger
}

// NewRasterizer creates a new PDF rasterizer
func NewRasterizer(opts Options, logger *observability.Logger) (*Rasterizer, error) {
	validator := NewValidator(opts.MaxBytes)
	if err := validator.ValidateQuality(opts.Quality); err != nil {
		return nil, err
	}
	if opts.DPI <= 0 {
		opts.DPI = 200
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Rasterizer{
		opts:      opts,
		validator: validator,
		logger:    logger.WithOperation("rasterize"),
	}, nil
}

// Rasterize converts every page of the PDF to a JPEG image, ordered by page number
func (r *Rasterizer) Rasterize(ctx context.Context, data []byte) ([]domain.PageImage, error) {
	if err := r.validator.ValidatePDF(data); err != nil {
		return nil, err
	}

	start := time.Now()

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, domain.ConversionError("Failed to open PDF", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, domain.ValidationError("PDF has no pages", nil)
	}
	if r.opts.MaxPages > 0 && pageCount > r.opts.MaxPages {
		return nil, domain.ValidationError(fmt.Sprintf("PDF has %d pages, limit is %d", pageCount, r.opts.MaxPages), nil)
	}

	images := make([]domain.PageImage, 0, pageCount)
	opts := &jpeg.Options{Quality: r.opts.Quality}

	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.ImageDPI(pageNum, r.opts.DPI)
		if err != nil {
			return nil, domain.ConversionError(fmt.Sprintf("Failed to render page %d", pageNum+1), err)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return nil, domain.ConversionError(fmt.Sprintf("Failed to encode page %d as JPG", pageNum+1), err)
		}

		bounds := img.Bounds()
		images = append(images, domain.PageImage{
			PageNumber: pageNum + 1,
			Data:       buf.Bytes(),
			Width:      bounds.Dx(),
			Height:     bounds.Dy(),
		})
	}

	r.logger.WithContext(ctx).Info().
		Int("pages", len(images)).
		Dur("elapsed", time.Since(start)).
		Msg("PDF rasterized")

	return images, nil
}
