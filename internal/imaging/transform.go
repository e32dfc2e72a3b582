package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"math"

	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Format names an output encoding a Transformer can produce.
type Format string

const FormatJPEG Format = "jpeg"

// TransformOptions is one resize + re-encode request.
type TransformOptions struct {
	// The output fits within MaxWidth x MaxHeight with the source aspect ratio kept.
	MaxWidth  int
	MaxHeight int
	Format    Format
	Quality   float64 // [0,1]
	Base64    bool    // ask for the payload already base64-encoded
}

// TransformResult is what a Transformer hands back.
type TransformResult struct {
	Width  int
	Height int
	Data   []byte
	Base64 string // set only when TransformOptions.Base64 was requested
}

// Transformer resizes and re-encodes an image. It is the only place pixels are touched.
type Transformer interface {
	Transform(ctx context.Context, src Source, opts TransformOptions) (*TransformResult, error)
}

const defaultMaxPixels = 50_000_000

// DrawTransformer decodes JPEG, PNG or WebP input and scales it with
// golang.org/x/image/draw.
type DrawTransformer struct {
	Interpolator draw.Interpolator
	// MaxPixels bounds width*height of a decoded source.
	MaxPixels int
}

// NewDrawTransformer returns a transformer using Catmull-Rom resampling.
func NewDrawTransformer() *DrawTransformer {
	return &DrawTransformer{Interpolator: draw.CatmullRom, MaxPixels: defaultMaxPixels}
}

func (t *DrawTransformer) Transform(ctx context.Context, src Source, opts TransformOptions) (*TransformResult, error) {
	if opts.Format != FormatJPEG {
		return nil, fmt.Errorf("unsupported output format %q", opts.Format)
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("image manipulation failed: read source: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image manipulation failed: %w", err)
	}
	maxPixels := t.MaxPixels
	if maxPixels <= 0 {
		maxPixels = defaultMaxPixels
	}
	if cfg.Width*cfg.Height > maxPixels {
		return nil, fmt.Errorf("out of memory: %dx%d source exceeds %d pixels", cfg.Width, cfg.Height, maxPixels)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image manipulation failed: %w", err)
	}

	bounds := img.Bounds()
	width, height := FitWithin(bounds.Dx(), bounds.Dy(), opts.MaxWidth, opts.MaxHeight)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	// JPEG has no alpha channel; flatten transparent sources onto white.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	interp := t.Interpolator
	if interp == nil {
		interp = draw.CatmullRom
	}
	interp.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality(opts.Quality)}); err != nil {
		return nil, fmt.Errorf("image manipulation failed: encode jpeg: %w", err)
	}

	result := &TransformResult{Width: width, Height: height, Data: buf.Bytes()}
	if opts.Base64 {
		result.Base64 = base64.StdEncoding.EncodeToString(result.Data)
	}
	return result, nil
}

// FitWithin scales width x height so that it fits the maxWidth x maxHeight box
// as tightly as possible while keeping its aspect ratio. Both edges are at least 1.
func FitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 {
		return max(maxWidth, 1), max(maxHeight, 1)
	}
	scale := math.Min(float64(maxWidth)/float64(width), float64(maxHeight)/float64(height))
	w := int(math.Round(float64(width) * scale))
	h := int(math.Round(float64(height) * scale))
	return min(max(w, 1), maxWidth), min(max(h, 1), maxHeight)
}

func jpegQuality(q float64) int {
	return min(max(int(math.Round(q*100)), 1), 100)
}
