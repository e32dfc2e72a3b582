package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/msomdec/cinelist/internal/domain"
	"github.com/msomdec/cinelist/internal/imaging"
)

const avatarCacheSize = 256

// Picture describes the avatar stored on a profile.
type Picture struct {
	DataURI  string
	MimeType string
	SizeKB   int
	Valid    bool
}

// ProfileService stores normalized profile pictures and serves them back.
type ProfileService struct {
	users      domain.UserRepository
	normalizer *imaging.Normalizer
	avatars    *lru.Cache[string, []byte]
	logger     *slog.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(users domain.UserRepository, normalizer *imaging.Normalizer, logger *slog.Logger) (*ProfileService, error) {
	avatars, err := lru.New[string, []byte](avatarCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create avatar cache: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ProfileService{users: users, normalizer: normalizer, avatars: avatars, logger: logger}, nil
}

// Limits returns the image limits uploads are checked against.
func (s *ProfileService) Limits() imaging.Limits {
	return s.normalizer.Limits()
}

// ValidateCandidate checks picker metadata without touching the profile.
func (s *ProfileService) ValidateCandidate(c imaging.Candidate) imaging.ValidationResult {
	return s.normalizer.ValidateCandidate(c)
}

// UploadPicture validates, normalizes and stores a new avatar. Nothing is
// written unless every step succeeds.
func (s *ProfileService) UploadPicture(ctx context.Context, userID int64, c imaging.Candidate, src imaging.Source) (imaging.EncodedImage, error) {
	if err := s.normalizer.ValidateCandidate(c).Err(); err != nil {
		return imaging.EncodedImage{}, err
	}

	img, err := s.normalizer.Normalize(ctx, src)
	if err != nil {
		return imaging.EncodedImage{}, err
	}

	if err := s.users.SetProfilePicture(ctx, userID, img.DataURI()); err != nil {
		return imaging.EncodedImage{}, fmt.Errorf("store picture: %w", err)
	}

	s.logger.InfoContext(ctx, "profile picture updated", "user_id", userID, "size_kb", img.SizeKB())
	return img, nil
}

// GetPicture returns the stored avatar. A missing or unparseable value is
// reported as domain.ErrNotFound.
func (s *ProfileService) GetPicture(ctx context.Context, userID int64) (*Picture, error) {
	stored, err := s.storedPicture(ctx, userID)
	if err != nil {
		return nil, err
	}

	parsed := s.normalizer.ParseDataURI(stored)
	if parsed == nil {
		return nil, domain.ErrNotFound
	}

	return &Picture{
		DataURI:  stored,
		MimeType: parsed.MimeType,
		SizeKB:   parsed.SizeKB,
		Valid:    parsed.Valid,
	}, nil
}

// ReoptimizePicture re-encodes the stored avatar if it no longer fits the
// size budget. The profile is only written when the value changed.
func (s *ProfileService) ReoptimizePicture(ctx context.Context, userID int64) (imaging.EncodedImage, bool, error) {
	stored, err := s.storedPicture(ctx, userID)
	if err != nil {
		return imaging.EncodedImage{}, false, err
	}

	img, err := s.normalizer.ReoptimizeIfNeeded(ctx, stored)
	if errors.Is(err, imaging.ErrInvalidDataURI) {
		return imaging.EncodedImage{}, false, domain.ErrNotFound
	}
	if err != nil {
		return imaging.EncodedImage{}, false, err
	}

	uri := img.DataURI()
	if uri == stored {
		return img, false, nil
	}

	if err := s.users.SetProfilePicture(ctx, userID, uri); err != nil {
		return imaging.EncodedImage{}, false, fmt.Errorf("store picture: %w", err)
	}

	s.logger.InfoContext(ctx, "profile picture re-encoded", "user_id", userID, "size_kb", img.SizeKB())
	return img, true, nil
}

// RemovePicture clears the avatar.
func (s *ProfileService) RemovePicture(ctx context.Context, userID int64) error {
	if err := s.users.SetProfilePicture(ctx, userID, ""); err != nil {
		return fmt.Errorf("clear picture: %w", err)
	}
	return nil
}

// Avatar returns the decoded image bytes and MIME type of a user's avatar.
func (s *ProfileService) Avatar(ctx context.Context, userID int64) ([]byte, string, error) {
	stored, err := s.storedPicture(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	parsed := s.normalizer.ParseDataURI(stored)
	if parsed == nil {
		return nil, "", domain.ErrNotFound
	}

	sum := sha256.Sum256([]byte(parsed.Payload))
	key := hex.EncodeToString(sum[:])
	if data, ok := s.avatars.Get(key); ok {
		return data, parsed.MimeType, nil
	}

	data, err := base64.StdEncoding.DecodeString(parsed.Payload)
	if err != nil {
		s.logger.WarnContext(ctx, "stored avatar is not valid base64", "user_id", userID, "error", err)
		return nil, "", domain.ErrNotFound
	}

	s.avatars.Add(key, data)
	return data, parsed.MimeType, nil
}

func (s *ProfileService) storedPicture(ctx context.Context, userID int64) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	stored := user.Picture()
	if stored == "" {
		return "", domain.ErrNotFound
	}
	return stored, nil
}
