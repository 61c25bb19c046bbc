package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dverhoef/taskhive/internal/domain"
	"github.com/dverhoef/taskhive/internal/service"
)

func TestUserService_Update_Fields(t *testing.T) {
	auth, db := newTestAuthService(t)
	users := service.NewUserService(db.Users(), 4)
	ctx := context.Background()

	user, _, err := auth.Register(ctx, "Before", "before@example.com", "secret123", 20)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	name := "After"
	age := int64(21)
	if err := users.Update(ctx, user, service.UserUpdate{Name: &name, Age: &age}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	found, err := db.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if found.Name != "After" || found.Age != 21 {
		t.Fatalf("expected updated fields, got %+v", found)
	}
	if found.Email != "before@example.com" {
		t.Fatalf("expected untouched email, got %s", found.Email)
	}
}

func TestUserService_Update_AllOrNothing(t *testing.T) {
	auth, db := newTestAuthService(t)
	users := service.NewUserService(db.Users(), 4)
	ctx := context.Background()

	user, _, err := auth.Register(ctx, "Atomic", "atomic@example.com", "secret123", 0)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// A valid name next to an invalid email must apply neither.
	name := "Should Not Apply"
	badEmail := "not-an-email"
	err = users.Update(ctx, user, service.UserUpdate{Name: &name, Email: &badEmail})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	found, err := db.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if found.Name != "Atomic" {
		t.Fatalf("expected name unchanged, got %q", found.Name)
	}
}

func TestUserService_Update_RehashesPassword(t *testing.T) {
	auth, db := newTestAuthService(t)
	users := service.NewUserService(db.Users(), 4)
	ctx := context.Background()

	user, _, err := auth.Register(ctx, "Rehash", "rehash@example.com", "secret123", 0)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	newPassword := "different456"
	if err := users.Update(ctx, user, service.UserUpdate{Password: &newPassword}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if user.PasswordHash == newPassword {
		t.Fatal("expected password to be hashed")
	}

	if _, _, err := auth.Login(ctx, "rehash@example.com", "different456"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, _, err := auth.Login(ctx, "rehash@example.com", "secret123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected old password to stop working, got %v", err)
	}
}

func TestUserService_Update_WeakPassword(t *testing.T) {
	auth, db := newTestAuthService(t)
	users := service.NewUserService(db.Users(), 4)
	ctx := context.Background()

	user, _, err := auth.Register(ctx, "Weak", "weak@example.com", "secret123", 0)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	weak := "short"
	err = users.Update(ctx, user, service.UserUpdate{Password: &weak})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUserService_Delete_CascadesTasks(t *testing.T) {
	auth, db := newTestAuthService(t)
	users := service.NewUserService(db.Users(), 4)
	tasks := service.NewTaskService(db.Tasks())
	ctx := context.Background()

	user, _, err := auth.Register(ctx, "Doomed", "doomed@example.com", "secret123", 0)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := tasks.Create(ctx, user.ID, "orphan candidate", false); err != nil {
		t.Fatalf("Create task: %v", err)
	}

	if err := users.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	remaining, err := tasks.List(ctx, user.ID, nil, "", 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no surviving tasks, got %d", len(remaining))
	}
}
