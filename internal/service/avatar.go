package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // decoder registration
	"image/png"
	"path/filepath"
	"strings"

	"github.com/dverhoef/taskhive/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	maxAvatarSize = 1_000_000 // bytes
	avatarDim     = 250       // stored avatars are 250x250 PNG
)

// AvatarService validates uploads, normalizes them to a canonical square PNG,
// and stores the bytes in the blob store under a key kept on the user row.
type AvatarService struct {
	users domain.UserRepository
	files domain.FileStore
}

// NewAvatarService creates a new AvatarService.
func NewAvatarService(users domain.UserRepository, files domain.FileStore) *AvatarService {
	return &AvatarService{users: users, files: files}
}

// Set validates and stores the avatar for the user, replacing any previous
// one.
func (s *AvatarService) Set(ctx context.Context, user *domain.User, filename string, data []byte) error {
	if len(data) > maxAvatarSize {
		return fmt.Errorf("%w: avatar exceeds %d bytes", domain.ErrInvalidInput, maxAvatarSize)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png":
	default:
		return fmt.Errorf("%w: please upload a JPG, JPEG or PNG image", domain.ErrInvalidInput)
	}

	normalized, err := normalizeAvatar(data)
	if err != nil {
		return err
	}

	key := "avatars/" + uuid.NewString()
	if err := s.files.Save(ctx, key, normalized); err != nil {
		return fmt.Errorf("save avatar: %w", err)
	}

	oldKey := user.AvatarKey
	user.AvatarKey = key
	if err := s.users.Update(ctx, user); err != nil {
		// Best-effort cleanup of the stored blob.
		s.files.Delete(ctx, key)
		user.AvatarKey = oldKey
		return fmt.Errorf("update user: %w", err)
	}

	if oldKey != "" {
		if err := s.files.Delete(ctx, oldKey); err != nil {
			return fmt.Errorf("delete previous avatar: %w", err)
		}
	}
	return nil
}

// Clear removes the user's avatar. Clearing an absent avatar is a no-op.
func (s *AvatarService) Clear(ctx context.Context, user *domain.User) error {
	if user.AvatarKey == "" {
		return nil
	}

	key := user.AvatarKey
	user.AvatarKey = ""
	if err := s.users.Update(ctx, user); err != nil {
		user.AvatarKey = key
		return fmt.Errorf("update user: %w", err)
	}

	if err := s.files.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete avatar: %w", err)
	}
	return nil
}

// GetByUserID returns the avatar bytes and content type for any user's
// avatar. Missing user and missing avatar both yield ErrNotFound.
func (s *AvatarService) GetByUserID(ctx context.Context, userID int64) ([]byte, string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if user.AvatarKey == "" {
		return nil, "", domain.ErrNotFound
	}

	data, err := s.files.Get(ctx, user.AvatarKey)
	if err != nil {
		return nil, "", err
	}
	return data, "image/png", nil
}

// normalizeAvatar decodes the upload and re-encodes it as a 250x250 PNG so
// every stored avatar has one shape and one format.
func normalizeAvatar(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: image could not be decoded", domain.ErrInvalidInput)
	}

	dst := image.NewRGBA(image.Rect(0, 0, avatarDim, avatarDim))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}
