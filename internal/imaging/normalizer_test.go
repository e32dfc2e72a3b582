package imaging_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/cinelist/internal/imaging"
)

// fakeTransformer returns a canned result and records what it was asked to do.
type fakeTransformer struct {
	result *imaging.TransformResult
	err    error

	calls   int
	lastSrc imaging.Source
	lastOpt imaging.TransformOptions
}

func (f *fakeTransformer) Transform(ctx context.Context, src imaging.Source, opts imaging.TransformOptions) (*imaging.TransformResult, error) {
	f.calls++
	f.lastSrc = src
	f.lastOpt = opts
	return f.result, f.err
}

func payloadOfKB(n int) string {
	return strings.Repeat("A", n*1024)
}

func newNormalizer(t *testing.T, ft *fakeTransformer) *imaging.Normalizer {
	t.Helper()
	return imaging.NewNormalizer(ft, imaging.DefaultLimits())
}

func TestValidateCandidate(t *testing.T) {
	n := newNormalizer(t, &fakeTransformer{})

	tests := []struct {
		name      string
		candidate imaging.Candidate
		valid     bool
		errPart   string
	}{
		{
			name:      "huge dimensions but small file",
			candidate: imaging.Candidate{PixelWidth: 5000, PixelHeight: 5000, FileSizeBytes: 50_000},
			valid:     true,
		},
		{
			name:      "small dimensions but 11MB file",
			candidate: imaging.Candidate{PixelWidth: 100, PixelHeight: 100, FileSizeBytes: 11 * 1024 * 1024},
			errPart:   "file too large",
		},
		{
			name:      "gif rejected",
			candidate: imaging.Candidate{MimeType: "image/gif"},
			errPart:   "unsupported format",
		},
		{name: "png accepted", candidate: imaging.Candidate{MimeType: "image/png"}, valid: true},
		{name: "jpg alias accepted", candidate: imaging.Candidate{MimeType: "image/jpg"}, valid: true},
		{name: "webp accepted", candidate: imaging.Candidate{MimeType: "IMAGE/WEBP"}, valid: true},
		{name: "no metadata at all", candidate: imaging.Candidate{}, valid: true},
		{
			name:      "exactly at the source ceiling",
			candidate: imaging.Candidate{MimeType: "image/jpeg", FileSizeBytes: 10 * 1024 * 1024},
			valid:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := n.ValidateCandidate(tt.candidate)
			assert.Equal(t, tt.valid, res.IsValid)
			if tt.valid {
				assert.Empty(t, res.Error)
				assert.NoError(t, res.Err())
				return
			}
			assert.Contains(t, res.Error, tt.errPart)
			assert.ErrorIs(t, res.Err(), imaging.ErrValidation)
		})
	}
}

func TestNormalize_EndToEnd(t *testing.T) {
	ft := &fakeTransformer{result: &imaging.TransformResult{Width: 150, Height: 200, Base64: payloadOfKB(60)}}
	n := newNormalizer(t, ft)

	candidate := imaging.Candidate{MimeType: "image/jpeg", FileSizeBytes: 2_000_000, PixelWidth: 3000, PixelHeight: 4000}
	require.True(t, n.ValidateCandidate(candidate).IsValid)

	img, err := n.Normalize(context.Background(), imaging.FileSource("/tmp/photo.jpg"))
	require.NoError(t, err)

	assert.Equal(t, 150, img.Width)
	assert.Equal(t, 200, img.Height)
	assert.Equal(t, 60, img.SizeKB())
	assert.Equal(t, "image/jpeg", img.MimeType)
	assert.True(t, strings.HasPrefix(img.DataURI(), "data:image/jpeg;base64,"))
	assert.True(t, img.WithinBudget(n.Limits().MaxEncodedSize))

	assert.Equal(t, 1, ft.calls)
	assert.Equal(t, imaging.TransformOptions{
		MaxWidth:  200,
		MaxHeight: 200,
		Format:    imaging.FormatJPEG,
		Quality:   0.7,
		Base64:    true,
	}, ft.lastOpt)
}

func TestNormalize_TooComplex(t *testing.T) {
	ft := &fakeTransformer{result: &imaging.TransformResult{Width: 150, Height: 200, Base64: payloadOfKB(140)}}
	n := newNormalizer(t, ft)

	_, err := n.Normalize(context.Background(), imaging.FileSource("/tmp/photo.jpg"))
	require.Error(t, err)
	assert.ErrorIs(t, err, imaging.ErrTooComplex)
	assert.Contains(t, err.Error(), "140")
	assert.Contains(t, err.Error(), "100")
	assert.Equal(t, 1, ft.calls, "no retry with other parameters")
}

func TestNormalize_BudgetBoundary(t *testing.T) {
	ft := &fakeTransformer{result: &imaging.TransformResult{Width: 10, Height: 10, Base64: payloadOfKB(100)}}
	n := newNormalizer(t, ft)

	img, err := n.Normalize(context.Background(), imaging.BytesSource("x"))
	require.NoError(t, err)
	assert.EqualValues(t, 100*1024, img.SizeBytes())

	ft.result.Base64 += "A"
	_, err = n.Normalize(context.Background(), imaging.BytesSource("x"))
	assert.ErrorIs(t, err, imaging.ErrTooComplex)
}

func TestNormalize_NoPayload(t *testing.T) {
	for name, res := range map[string]*imaging.TransformResult{
		"nil result":    nil,
		"empty payload": {Width: 10, Height: 10},
	} {
		t.Run(name, func(t *testing.T) {
			n := newNormalizer(t, &fakeTransformer{result: res})
			_, err := n.Normalize(context.Background(), imaging.BytesSource("x"))
			assert.ErrorIs(t, err, imaging.ErrTransformFailed)
			assert.Equal(t, "could not generate encoded payload", imaging.Message(err))
		})
	}
}

func TestNormalize_OutOfBoxResult(t *testing.T) {
	ft := &fakeTransformer{result: &imaging.TransformResult{Width: 201, Height: 50, Base64: "AAAA"}}
	n := newNormalizer(t, ft)

	_, err := n.Normalize(context.Background(), imaging.BytesSource("x"))
	assert.ErrorIs(t, err, imaging.ErrTransformFailed)
}

func TestNormalize_TransformErrorMapping(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"manipulation", errors.New("image manipulation failed: unexpected EOF"), "resize failed, try another image"},
		{"manipulate", errors.New("could not manipulate asset"), "resize failed, try another image"},
		{"memory", errors.New("out of memory"), "file too large to process, choose a smaller image"},
		{"generic", cause, "could not process image: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newNormalizer(t, &fakeTransformer{err: tt.err})
			_, err := n.Normalize(context.Background(), imaging.BytesSource("x"))
			require.Error(t, err)
			assert.ErrorIs(t, err, imaging.ErrTransformFailed)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.want, imaging.Message(err))
		})
	}
}

func TestParseDataURI(t *testing.T) {
	n := newNormalizer(t, &fakeTransformer{})

	assert.Nil(t, n.ParseDataURI("not-a-data-uri"))
	assert.Nil(t, n.ParseDataURI(""))
	assert.Nil(t, n.ParseDataURI("data:text/plain;base64,SGVsbG8="))
	assert.Nil(t, n.ParseDataURI("data:image/png,rawbytes"))
	assert.Nil(t, n.ParseDataURI("data:image/png;base64,"))
	assert.Nil(t, n.ParseDataURI("https://example.com/avatar.jpg"))

	parsed := n.ParseDataURI("data:image/png;base64," + payloadOfKB(20))
	require.NotNil(t, parsed)
	assert.Equal(t, "image/png", parsed.MimeType)
	assert.Equal(t, 20, parsed.SizeKB)
	assert.True(t, parsed.Valid)

	parsed = n.ParseDataURI("data:image/jpeg;base64," + payloadOfKB(150))
	require.NotNil(t, parsed)
	assert.Equal(t, 150, parsed.SizeKB)
	assert.False(t, parsed.Valid)
}

func TestParseDataURI_RoundTrip(t *testing.T) {
	ft := &fakeTransformer{result: &imaging.TransformResult{Width: 200, Height: 120, Base64: payloadOfKB(60) + "AAA"}}
	n := newNormalizer(t, ft)

	img, err := n.Normalize(context.Background(), imaging.BytesSource("x"))
	require.NoError(t, err)

	parsed := n.ParseDataURI(img.DataURI())
	require.NotNil(t, parsed)
	assert.Equal(t, img.SizeKB(), parsed.SizeKB)
	assert.Equal(t, img.Payload, parsed.Payload)
	assert.True(t, parsed.Valid)
}

func TestParseDataURI_LoweredBudget(t *testing.T) {
	stored := "data:image/jpeg;base64," + payloadOfKB(80)

	loose := imaging.NewNormalizer(&fakeTransformer{}, imaging.DefaultLimits())
	assert.True(t, loose.ParseDataURI(stored).Valid)

	limits := imaging.DefaultLimits()
	limits.MaxEncodedSize = 50 * 1024
	strict := imaging.NewNormalizer(&fakeTransformer{}, limits)
	assert.False(t, strict.ParseDataURI(stored).Valid)
}

func TestReoptimizeIfNeeded_AlreadyCompliant(t *testing.T) {
	ft := &fakeTransformer{}
	n := newNormalizer(t, ft)
	stored := "data:image/jpeg;base64," + payloadOfKB(42)

	img, err := n.ReoptimizeIfNeeded(context.Background(), stored)
	require.NoError(t, err)
	assert.Equal(t, 0, ft.calls, "no transform for a compliant image")
	assert.Equal(t, stored, img.DataURI())
	assert.Equal(t, 42, img.SizeKB())
}

func TestReoptimizeIfNeeded_OverBudget(t *testing.T) {
	ft := &fakeTransformer{result: &imaging.TransformResult{Width: 200, Height: 200, Base64: payloadOfKB(30)}}
	n := newNormalizer(t, ft)
	stored := "data:image/jpeg;base64," + payloadOfKB(130)

	img, err := n.ReoptimizeIfNeeded(context.Background(), stored)
	require.NoError(t, err)
	assert.Equal(t, 1, ft.calls)
	assert.Equal(t, imaging.DataURISource(stored), ft.lastSrc)
	assert.Equal(t, 30, img.SizeKB())
}

func TestReoptimizeIfNeeded_StillTooComplex(t *testing.T) {
	ft := &fakeTransformer{result: &imaging.TransformResult{Width: 200, Height: 200, Base64: payloadOfKB(110)}}
	n := newNormalizer(t, ft)

	_, err := n.ReoptimizeIfNeeded(context.Background(), "data:image/jpeg;base64,"+payloadOfKB(130))
	assert.ErrorIs(t, err, imaging.ErrTooComplex)
	assert.Equal(t, 1, ft.calls, "exactly one pass, no loop")
}

func TestReoptimizeIfNeeded_Invalid(t *testing.T) {
	ft := &fakeTransformer{}
	n := newNormalizer(t, ft)

	_, err := n.ReoptimizeIfNeeded(context.Background(), "not-a-data-uri")
	assert.ErrorIs(t, err, imaging.ErrInvalidDataURI)
	assert.Equal(t, 0, ft.calls)
}

func TestLimitsValidate(t *testing.T) {
	require.NoError(t, imaging.DefaultLimits().Validate())

	bad := imaging.DefaultLimits()
	bad.JPEGQuality = 1.5
	assert.Error(t, bad.Validate())

	bad = imaging.DefaultLimits()
	bad.MaxDimension = 0
	assert.Error(t, bad.Validate())

	bad = imaging.DefaultLimits()
	bad.MaxEncodedSize = 10
	assert.Error(t, bad.Validate())
}
