package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
)

// Source is an opaque reference to image bytes that a Transformer can read.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// String describes the source for logs; it never includes image bytes.
	String() string
}

// BytesSource serves an in-memory upload.
type BytesSource []byte

func (s BytesSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s)), nil
}

func (s BytesSource) String() string {
	return fmt.Sprintf("bytes(%d)", len(s))
}

// FileSource reads a local file.
type FileSource string

func (s FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(string(s))
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	return f, nil
}

func (s FileSource) String() string {
	return "file(" + string(s) + ")"
}

// DataURISource decodes a base64 data URI, typically one read back from a profile.
type DataURISource string

func (s DataURISource) Open(ctx context.Context) (io.ReadCloser, error) {
	_, payload, ok := splitDataURI(string(s))
	if !ok {
		return nil, ErrInvalidDataURI
	}
	return io.NopCloser(base64.NewDecoder(base64.StdEncoding, strings.NewReader(payload))), nil
}

func (s DataURISource) String() string {
	mimeType, payload, ok := splitDataURI(string(s))
	if !ok {
		return "data-uri(invalid)"
	}
	return fmt.Sprintf("data-uri(%s, %d)", mimeType, len(payload))
}
