package service_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/dverhoef/taskhive/internal/domain"
	"github.com/dverhoef/taskhive/internal/service"
)

func newTestAvatarService(t *testing.T) (*service.AvatarService, *service.AuthService, domain.FileStore) {
	t.Helper()
	auth, db := newTestAuthService(t)
	return service.NewAvatarService(db.Users(), db.Avatars()), auth, db.Avatars()
}

// testPNG returns an encoded PNG of the given size.
func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestAvatarService_Set_NormalizesTo250PNG(t *testing.T) {
	avatars, auth, _ := newTestAvatarService(t)
	ctx := context.Background()
	user := registerTestUser(t, auth, "avatar@example.com")

	if err := avatars.Set(ctx, user, "photo.png", testPNG(t, 40, 30)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, contentType, err := avatars.GetByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if contentType != "image/png" {
		t.Fatalf("expected image/png, got %s", contentType)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode stored avatar: %v", err)
	}
	if format != "png" {
		t.Fatalf("expected png, got %s", format)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 250 || bounds.Dy() != 250 {
		t.Fatalf("expected 250x250, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestAvatarService_Set_RejectsBadExtension(t *testing.T) {
	avatars, auth, _ := newTestAvatarService(t)
	user := registerTestUser(t, auth, "ext@example.com")

	err := avatars.Set(context.Background(), user, "notes.txt", testPNG(t, 10, 10))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAvatarService_Set_RejectsOversizedUpload(t *testing.T) {
	avatars, auth, _ := newTestAvatarService(t)
	user := registerTestUser(t, auth, "big@example.com")

	err := avatars.Set(context.Background(), user, "big.png", make([]byte, 1_000_001))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAvatarService_Set_RejectsUndecodableImage(t *testing.T) {
	avatars, auth, _ := newTestAvatarService(t)
	user := registerTestUser(t, auth, "garbage@example.com")

	err := avatars.Set(context.Background(), user, "fake.png", []byte("not an image"))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAvatarService_Set_ReplacesPreviousBlob(t *testing.T) {
	avatars, auth, files := newTestAvatarService(t)
	ctx := context.Background()
	user := registerTestUser(t, auth, "replace@example.com")

	if err := avatars.Set(ctx, user, "first.png", testPNG(t, 10, 10)); err != nil {
		t.Fatalf("first Set: %v", err)
	}
	firstKey := user.AvatarKey

	if err := avatars.Set(ctx, user, "second.png", testPNG(t, 20, 20)); err != nil {
		t.Fatalf("second Set: %v", err)
	}
	if user.AvatarKey == firstKey {
		t.Fatal("expected a new storage key on replace")
	}

	if _, err := files.Get(ctx, firstKey); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected previous blob to be deleted, got %v", err)
	}
}

func TestAvatarService_Clear(t *testing.T) {
	avatars, auth, files := newTestAvatarService(t)
	ctx := context.Background()
	user := registerTestUser(t, auth, "clear@example.com")

	if err := avatars.Set(ctx, user, "pic.jpg", testPNG(t, 10, 10)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	key := user.AvatarKey

	if err := avatars.Clear(ctx, user); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if user.AvatarKey != "" {
		t.Fatal("expected avatar key to be cleared")
	}
	if _, err := files.Get(ctx, key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected blob to be deleted, got %v", err)
	}

	// Clearing again is a no-op.
	if err := avatars.Clear(ctx, user); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestAvatarService_GetByUserID_NotFound(t *testing.T) {
	avatars, auth, _ := newTestAvatarService(t)
	ctx := context.Background()

	// Unknown user.
	if _, _, err := avatars.GetByUserID(ctx, 99999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}

	// Known user without an avatar looks exactly the same.
	user := registerTestUser(t, auth, "noavatar@example.com")
	if _, _, err := avatars.GetByUserID(ctx, user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing avatar, got %v", err)
	}
}
