package imaging

import "fmt"

const (
	defaultMaxDimension   = 200
	defaultJPEGQuality    = 0.7
	defaultMaxEncodedSize = 100 * 1024       // 100KB of base64 text
	defaultMaxSourceSize  = 10 * 1024 * 1024 // 10MB
)

// Limits parameterizes every normalizer operation.
type Limits struct {
	// MaxDimension bounds the longest output edge, in pixels.
	MaxDimension int
	// JPEGQuality is the compression factor in [0,1].
	JPEGQuality float64
	// MaxEncodedSize is the ceiling on the base64 payload length, in bytes.
	MaxEncodedSize int
	// MaxSourceSize is the hard ceiling on the declared source file size, in bytes.
	MaxSourceSize int64
}

// DefaultLimits returns the limits used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{
		MaxDimension:   defaultMaxDimension,
		JPEGQuality:    defaultJPEGQuality,
		MaxEncodedSize: defaultMaxEncodedSize,
		MaxSourceSize:  defaultMaxSourceSize,
	}
}

// Validate reports whether the limits describe a usable pipeline.
func (l Limits) Validate() error {
	if l.MaxDimension < 1 {
		return fmt.Errorf("max dimension must be positive, got %d", l.MaxDimension)
	}
	if l.JPEGQuality <= 0 || l.JPEGQuality > 1 {
		return fmt.Errorf("jpeg quality must be in (0,1], got %g", l.JPEGQuality)
	}
	if l.MaxEncodedSize < 1024 {
		return fmt.Errorf("max encoded size must be at least 1KB, got %d", l.MaxEncodedSize)
	}
	if l.MaxSourceSize < 1 {
		return fmt.Errorf("max source size must be positive, got %d", l.MaxSourceSize)
	}
	return nil
}

// kb converts a byte count to whole kilobytes, rounding half up.
func kb(n int64) int {
	return int((n + 512) / 1024)
}
