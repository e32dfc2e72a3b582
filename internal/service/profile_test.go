package service_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/msomdec/cinelist/internal/domain"
	"github.com/msomdec/cinelist/internal/imaging"
	"github.com/msomdec/cinelist/internal/repository/sqlite"
	"github.com/msomdec/cinelist/internal/service"
)

// stubTransformer returns a fixed result without decoding anything.
type stubTransformer struct {
	result *imaging.TransformResult
	calls  int
}

func (s *stubTransformer) Transform(ctx context.Context, src imaging.Source, opts imaging.TransformOptions) (*imaging.TransformResult, error) {
	s.calls++
	return s.result, nil
}

func seedTestUser(t *testing.T, db *sqlite.DB, email string) int64 {
	t.Helper()
	u := &domain.User{Email: email, DisplayName: "Test", PasswordHash: "hash"}
	if err := db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u.ID
}

func newTestProfileService(t *testing.T, tr imaging.Transformer) (*service.ProfileService, *sqlite.DB) {
	t.Helper()
	_, db := newTestAuthService(t)
	svc, err := service.NewProfileService(db.Users(), imaging.NewNormalizer(tr, imaging.DefaultLimits()), nil)
	if err != nil {
		t.Fatalf("NewProfileService: %v", err)
	}
	return svc, db
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestProfileService_UploadPicture(t *testing.T) {
	svc, db := newTestProfileService(t, imaging.NewDrawTransformer())
	ctx := context.Background()
	userID := seedTestUser(t, db, "upload@example.com")

	src := testPNG(t, 400, 300)
	c := imaging.Candidate{MimeType: "image/png", FileSizeBytes: int64(len(src)), PixelWidth: 400, PixelHeight: 300}

	img, err := svc.UploadPicture(ctx, userID, c, imaging.BytesSource(src))
	if err != nil {
		t.Fatalf("UploadPicture: %v", err)
	}
	if img.Width != 200 || img.Height != 150 {
		t.Fatalf("expected 200x150, got %dx%d", img.Width, img.Height)
	}

	user, err := db.Users().GetByID(ctx, userID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.ProfilePicture != img.DataURI() || user.PhotoURL != img.DataURI() {
		t.Fatal("expected both picture fields to hold the new data uri")
	}

	pic, err := svc.GetPicture(ctx, userID)
	if err != nil {
		t.Fatalf("GetPicture: %v", err)
	}
	if pic.MimeType != "image/jpeg" || !pic.Valid || pic.SizeKB != img.SizeKB() {
		t.Fatalf("unexpected picture stats: %+v", pic)
	}
}

func TestProfileService_UploadPicture_RejectedKeepsOldPicture(t *testing.T) {
	stub := &stubTransformer{result: &imaging.TransformResult{Width: 100, Height: 100, Base64: "AAAA"}}
	svc, db := newTestProfileService(t, stub)
	ctx := context.Background()
	userID := seedTestUser(t, db, "reject@example.com")

	if _, err := svc.UploadPicture(ctx, userID, imaging.Candidate{}, imaging.BytesSource("x")); err != nil {
		t.Fatalf("first upload: %v", err)
	}

	_, err := svc.UploadPicture(ctx, userID, imaging.Candidate{MimeType: "image/gif"}, imaging.BytesSource("x"))
	if !errors.Is(err, imaging.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("expected no transform for a rejected candidate, got %d calls", stub.calls)
	}

	stub.result = &imaging.TransformResult{Width: 100, Height: 100, Base64: strings.Repeat("A", 140*1024)}
	_, err = svc.UploadPicture(ctx, userID, imaging.Candidate{}, imaging.BytesSource("x"))
	if !errors.Is(err, imaging.ErrTooComplex) {
		t.Fatalf("expected ErrTooComplex, got %v", err)
	}

	pic, err := svc.GetPicture(ctx, userID)
	if err != nil {
		t.Fatalf("GetPicture: %v", err)
	}
	if pic.DataURI != "data:image/jpeg;base64,AAAA" {
		t.Fatalf("expected the first picture to survive, got %q", pic.DataURI)
	}
}

func TestProfileService_GetPicture_NotFound(t *testing.T) {
	svc, db := newTestProfileService(t, &stubTransformer{})
	ctx := context.Background()
	userID := seedTestUser(t, db, "empty@example.com")

	if _, err := svc.GetPicture(ctx, userID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// A legacy URL is not a data uri and reads as absent.
	if err := db.Users().SetProfilePicture(ctx, userID, "https://example.com/me.jpg"); err != nil {
		t.Fatalf("SetProfilePicture: %v", err)
	}
	if _, err := svc.GetPicture(ctx, userID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for legacy url, got %v", err)
	}

	if _, err := svc.GetPicture(ctx, 99999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestProfileService_ReoptimizePicture(t *testing.T) {
	stub := &stubTransformer{result: &imaging.TransformResult{Width: 200, Height: 200, Base64: strings.Repeat("B", 30*1024)}}
	svc, db := newTestProfileService(t, stub)
	ctx := context.Background()
	userID := seedTestUser(t, db, "reopt@example.com")

	compliant := "data:image/jpeg;base64," + strings.Repeat("A", 40*1024)
	if err := db.Users().SetProfilePicture(ctx, userID, compliant); err != nil {
		t.Fatalf("SetProfilePicture: %v", err)
	}

	_, changed, err := svc.ReoptimizePicture(ctx, userID)
	if err != nil {
		t.Fatalf("ReoptimizePicture: %v", err)
	}
	if changed || stub.calls != 0 {
		t.Fatalf("expected compliant picture to be left alone (changed=%v, calls=%d)", changed, stub.calls)
	}

	oversized := "data:image/jpeg;base64," + strings.Repeat("A", 130*1024)
	if err := db.Users().SetProfilePicture(ctx, userID, oversized); err != nil {
		t.Fatalf("SetProfilePicture: %v", err)
	}

	img, changed, err := svc.ReoptimizePicture(ctx, userID)
	if err != nil {
		t.Fatalf("ReoptimizePicture: %v", err)
	}
	if !changed || img.SizeKB() != 30 {
		t.Fatalf("expected a 30KB re-encode, got changed=%v size=%d", changed, img.SizeKB())
	}

	pic, err := svc.GetPicture(ctx, userID)
	if err != nil {
		t.Fatalf("GetPicture: %v", err)
	}
	if pic.DataURI != img.DataURI() {
		t.Fatal("expected the re-encoded picture to be stored")
	}
}

func TestProfileService_RemovePicture(t *testing.T) {
	stub := &stubTransformer{result: &imaging.TransformResult{Width: 10, Height: 10, Base64: "AAAA"}}
	svc, db := newTestProfileService(t, stub)
	ctx := context.Background()
	userID := seedTestUser(t, db, "remove@example.com")

	if _, err := svc.UploadPicture(ctx, userID, imaging.Candidate{}, imaging.BytesSource("x")); err != nil {
		t.Fatalf("UploadPicture: %v", err)
	}
	if err := svc.RemovePicture(ctx, userID); err != nil {
		t.Fatalf("RemovePicture: %v", err)
	}
	if _, err := svc.GetPicture(ctx, userID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after removal, got %v", err)
	}
}

func TestProfileService_Avatar(t *testing.T) {
	svc, db := newTestProfileService(t, imaging.NewDrawTransformer())
	ctx := context.Background()
	userID := seedTestUser(t, db, "avatar@example.com")

	if _, _, err := svc.Avatar(ctx, userID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before upload, got %v", err)
	}

	if _, err := svc.UploadPicture(ctx, userID, imaging.Candidate{}, imaging.BytesSource(testPNG(t, 120, 240))); err != nil {
		t.Fatalf("UploadPicture: %v", err)
	}

	data, mimeType, err := svc.Avatar(ctx, userID)
	if err != nil {
		t.Fatalf("Avatar: %v", err)
	}
	if mimeType != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q", mimeType)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode avatar: %v", err)
	}
	if cfg.Width != 100 || cfg.Height != 200 {
		t.Fatalf("expected 100x200, got %dx%d", cfg.Width, cfg.Height)
	}

	cached, _, err := svc.Avatar(ctx, userID)
	if err != nil {
		t.Fatalf("Avatar (cached): %v", err)
	}
	if !bytes.Equal(cached, data) {
		t.Fatal("expected cached avatar to match")
	}
}
