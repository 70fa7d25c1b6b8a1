package pdf

import (
	"bytes"
	"fmt"

	"github.com/spherical/statement-extractor/internal/domain"
)

var pdfMagic = []byte("%PDF-")

// Validator provides input validation for uploaded PDF documents
type Validator struct {
	maxBytes int64
}

// NewValidator creates a new validator. maxBytes <= 0 disables the size check.
func NewValidator(maxBytes int64) *Validator {
	return &Validator{maxBytes: maxBytes}
}

// ValidatePDF checks that data looks like a PDF document and is within the size limit
func (v *Validator) ValidatePDF(data []byte) error {
	if len(data) == 0 {
		return domain.ValidationError("uploaded file is empty", nil)
	}

	if v.maxBytes > 0 && int64(len(data)) > v.maxBytes {
		return domain.ValidationError(fmt.Sprintf("file is %d bytes, limit is %d", len(data), v.maxBytes), nil)
	}

	// Some producers emit a few junk bytes before the header; readers accept it within the first KiB.
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	if !bytes.Contains(head, pdfMagic) {
		return domain.ValidationError("file is not a PDF (missing %PDF- header)", nil)
	}

	return nil
}

// ValidateQuality validates image quality parameter
func (v *Validator) ValidateQuality(quality int) error {
	if quality < 1 || quality > 100 {
		return domain.ValidationError(fmt.Sprintf("quality must be between 1 and 100, got %d", quality), nil)
	}
	return nil
}
