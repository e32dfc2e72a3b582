package imaging

import (
	"strings"
)

// OutputMimeType is the only format the normalizer ever produces.
const OutputMimeType = "image/jpeg"

// EncodedImage is the resized, re-encoded, base64 result of normalizing one
// source image. It is a value type; a new upload produces a new value.
type EncodedImage struct {
	MimeType string
	Payload  string // base64, standard alphabet, no line breaks
	Width    int    // after resizing
	Height   int
}

// SizeBytes is the length of the base64 payload.
func (e EncodedImage) SizeBytes() int64 {
	return int64(len(e.Payload))
}

// SizeKB is SizeBytes rounded to whole kilobytes.
func (e EncodedImage) SizeKB() int {
	return kb(e.SizeBytes())
}

// WithinBudget reports whether the payload fits the given size budget.
func (e EncodedImage) WithinBudget(maxEncodedSize int) bool {
	return e.SizeBytes() <= int64(maxEncodedSize)
}

// DataURI is the only persisted form of an EncodedImage.
func (e EncodedImage) DataURI() string {
	return "data:" + e.MimeType + ";base64," + e.Payload
}

// ParsedImage describes a stored data URI without decoding its pixels.
type ParsedImage struct {
	MimeType  string `json:"mimeType"`
	Payload   string `json:"-"`
	SizeBytes int64  `json:"sizeBytes"`
	SizeKB    int    `json:"sizeKB"`
	// Valid reports compliance with the size budget in force at parse time,
	// which may be lower than the one the image was stored under.
	Valid bool `json:"isValid"`
}

// ParseDataURI inspects a previously stored data URI. It returns nil when the
// value is not a base64 image data URI; callers treat that as "no image".
func (n *Normalizer) ParseDataURI(value string) *ParsedImage {
	mimeType, payload, ok := splitDataURI(value)
	if !ok || !strings.HasPrefix(mimeType, "image/") {
		return nil
	}
	size := int64(len(payload))
	return &ParsedImage{
		MimeType:  mimeType,
		Payload:   payload,
		SizeBytes: size,
		SizeKB:    kb(size),
		Valid:     size <= int64(n.limits.MaxEncodedSize),
	}
}

// splitDataURI separates "data:<mime>;base64,<payload>" into its parts.
func splitDataURI(value string) (mimeType, payload string, ok bool) {
	if !strings.HasPrefix(value, "data:") {
		return "", "", false
	}
	header, payload, found := strings.Cut(value, ",")
	if !found || payload == "" {
		return "", "", false
	}
	params := strings.Split(strings.TrimPrefix(header, "data:"), ";")
	if len(params) < 2 || params[len(params)-1] != "base64" {
		return "", "", false
	}
	mimeType = strings.ToLower(strings.TrimSpace(params[0]))
	if mimeType == "" {
		return "", "", false
	}
	return mimeType, payload, true
}
