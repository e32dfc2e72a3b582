package imaging

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

var allowedSourceTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// Candidate is the best-effort metadata a picker reports for a source image.
// Zero values mean the field was not reported.
type Candidate struct {
	MimeType      string `json:"mimeType,omitempty"`
	FileSizeBytes int64  `json:"fileSizeBytes,omitempty"`
	PixelWidth    int    `json:"pixelWidth,omitempty"`
	PixelHeight   int    `json:"pixelHeight,omitempty"`
}

// ValidationResult is the outcome of ValidateCandidate.
type ValidationResult struct {
	IsValid bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
}

// Err converts a failed result into a *ProcessingError, or nil when valid.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return newError(KindValidation, r.Error, nil)
}

// ValidateCandidate checks the declared metadata of a source image before any
// transform work is done. Only the declared format and byte size can reject;
// pixel dimensions are left to the resize step.
func (n *Normalizer) ValidateCandidate(c Candidate) ValidationResult {
	res := validateCandidate(c, n.limits)
	n.observer.RecordValidation(res.IsValid)
	if res.IsValid && (c.PixelWidth > 1000 || c.PixelHeight > 1000) {
		n.logger.Debug("large source image will be downsized",
			"width", c.PixelWidth, "height", c.PixelHeight, "max_dimension", n.limits.MaxDimension)
	}
	return res
}

func validateCandidate(c Candidate, limits Limits) ValidationResult {
	if c.MimeType != "" && !allowedSourceTypes[strings.ToLower(c.MimeType)] {
		return ValidationResult{Error: "unsupported format: use JPEG, PNG or WebP"}
	}
	if c.FileSizeBytes > limits.MaxSourceSize {
		return ValidationResult{Error: fmt.Sprintf("file too large: choose an image smaller than %s",
			humanize.IBytes(uint64(limits.MaxSourceSize)))}
	}
	return ValidationResult{IsValid: true}
}
