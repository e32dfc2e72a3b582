package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"
)

// Normalizer turns a source image into a size-bounded EncodedImage. It holds
// no state between calls; concurrent calls are independent.
type Normalizer struct {
	limits      Limits
	transformer Transformer
	observer    Observer
	logger      *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithObserver records outcomes on o.
func WithObserver(o Observer) Option {
	return func(n *Normalizer) {
		if o != nil {
			n.observer = o
		}
	}
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}

// NewNormalizer creates a Normalizer that delegates pixel work to t.
func NewNormalizer(t Transformer, limits Limits, opts ...Option) *Normalizer {
	n := &Normalizer{
		limits:      limits,
		transformer: t,
		observer:    nopObserver{},
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Limits returns the limits the normalizer was built with.
func (n *Normalizer) Limits() Limits {
	return n.limits
}

// Normalize invokes the transformer exactly once: fit within the
// MaxDimension square, re-encode as JPEG at JPEGQuality and return the base64
// payload. A payload larger than MaxEncodedSize is rejected with
// ErrTooComplex rather than retried; the caller must pick another image.
func (n *Normalizer) Normalize(ctx context.Context, src Source) (EncodedImage, error) {
	start := time.Now()
	n.logger.DebugContext(ctx, "normalizing image", "source", src.String(), "max_dimension", n.limits.MaxDimension)

	res, err := n.transformer.Transform(ctx, src, TransformOptions{
		MaxWidth:  n.limits.MaxDimension,
		MaxHeight: n.limits.MaxDimension,
		Format:    FormatJPEG,
		Quality:   n.limits.JPEGQuality,
		Base64:    true,
	})
	if err != nil {
		perr := transformError(err)
		n.logger.ErrorContext(ctx, "image transform failed", "source", src.String(), "error", err)
		n.observer.RecordNormalize(OutcomeTransformFailed, time.Since(start), 0)
		return EncodedImage{}, perr
	}
	if res == nil || res.Base64 == "" {
		n.observer.RecordNormalize(OutcomeTransformFailed, time.Since(start), 0)
		return EncodedImage{}, newError(KindTransformFailed, "could not generate encoded payload", nil)
	}
	if res.Width > n.limits.MaxDimension || res.Height > n.limits.MaxDimension {
		n.observer.RecordNormalize(OutcomeTransformFailed, time.Since(start), 0)
		return EncodedImage{}, newError(KindTransformFailed,
			fmt.Sprintf("could not resize image: got %dx%d, limit %dx%d",
				res.Width, res.Height, n.limits.MaxDimension, n.limits.MaxDimension), nil)
	}

	img := EncodedImage{
		MimeType: OutputMimeType,
		Payload:  res.Base64,
		Width:    res.Width,
		Height:   res.Height,
	}
	if !img.WithinBudget(n.limits.MaxEncodedSize) {
		n.logger.WarnContext(ctx, "encoded image over budget",
			"size_kb", img.SizeKB(), "limit_kb", kb(int64(n.limits.MaxEncodedSize)))
		n.observer.RecordNormalize(OutcomeTooComplex, time.Since(start), img.SizeBytes())
		return EncodedImage{}, newError(KindTooComplex,
			fmt.Sprintf("image too complex: %dKB, limit %dKB; try a simpler or smaller image",
				img.SizeKB(), kb(int64(n.limits.MaxEncodedSize))), nil)
	}

	n.logger.InfoContext(ctx, "image normalized",
		"width", img.Width, "height", img.Height, "size_kb", img.SizeKB())
	n.observer.RecordNormalize(OutcomeOK, time.Since(start), img.SizeBytes())
	return img, nil
}

// ReoptimizeIfNeeded returns a stored image unchanged when it satisfies the
// current size budget, and otherwise runs it through Normalize once.
func (n *Normalizer) ReoptimizeIfNeeded(ctx context.Context, dataURI string) (EncodedImage, error) {
	parsed := n.ParseDataURI(dataURI)
	if parsed == nil {
		return EncodedImage{}, newError(KindInvalidDataURI, "invalid data uri", nil)
	}
	if parsed.Valid {
		n.logger.DebugContext(ctx, "stored image already within budget", "size_kb", parsed.SizeKB)
		n.observer.RecordNormalize(OutcomeReused, 0, parsed.SizeBytes)
		img := EncodedImage{MimeType: parsed.MimeType, Payload: parsed.Payload}
		img.Width, img.Height = storedDimensions(parsed.Payload)
		return img, nil
	}
	n.logger.InfoContext(ctx, "re-encoding stored image", "size_kb", parsed.SizeKB,
		"limit_kb", kb(int64(n.limits.MaxEncodedSize)))
	return n.Normalize(ctx, DataURISource(dataURI))
}

// storedDimensions reads only the image header; zeros mean unknown.
func storedDimensions(payload string) (int, int) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return 0, 0
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// transformError maps a transformer failure to a user-facing message.
func transformError(err error) *ProcessingError {
	var perr *ProcessingError
	if errors.As(err, &perr) {
		return perr
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "manipulat"):
		return newError(KindTransformFailed, "resize failed, try another image", err)
	case strings.Contains(msg, "memory"):
		return newError(KindTransformFailed, "file too large to process, choose a smaller image", err)
	default:
		return newError(KindTransformFailed, "could not process image: "+err.Error(), err)
	}
}
