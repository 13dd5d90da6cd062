package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"aulanet/internal/core/domain"
	"aulanet/internal/infrastructure/repositories/memory"
	"aulanet/internal/infrastructure/storage"
)

func newUserService(t *testing.T) (*UserService, AuthService, *storage.MemoryStorage) {
	t.Helper()
	auth := NewAuthService("test-secret", time.Hour)
	store := storage.NewMemoryStorage()
	svc := NewUserService(memory.NewUserRepository(), auth, store, "user-images", zaptest.NewLogger(t).Sugar())
	return svc, auth, store
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	svc, auth, _ := newUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Marta", "Marta@Academy.Test", "secret123", domain.RoleTeacher, true)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "marta@academy.test" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if user.PasswordHash == "secret123" {
		t.Error("password stored in plain text")
	}

	logged, token, err := svc.Login(ctx, "marta@academy.test", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != user.ID {
		t.Errorf("logged in as %d, want %d", logged.ID, user.ID)
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email || !claims.IsAdmin {
		t.Errorf("claims = %+v", claims)
	}
}

func TestUserService_LoginFailures(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Marta", "marta@academy.test", "secret123", domain.RoleTeacher, false); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "marta@academy.test", "wrong-pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@academy.test", "secret123"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("unknown email: expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_DuplicateEmail(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Marta", "marta@academy.test", "secret123", domain.RoleTeacher, false); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, "Otra Marta", "MARTA@academy.test", "secret456", domain.RoleStudent, false)
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserService_RegisterValidation(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"empty name", "", "a@b.test", "secret123"},
		{"bad email", "Marta", "not-an-email", "secret123"},
		{"short password", "Marta", "a@b.test", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.userName, tt.email, tt.password, domain.RoleStudent, false); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestUserService_UpdateProfileImage(t *testing.T) {
	svc, _, store := newUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Marta", "marta@academy.test", "secret123", domain.RoleTeacher, false)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, err := svc.Update(ctx, user.ID, UpdateUserInput{
		Image: &ImageUpload{Data: []byte("first"), FileName: "a.png", MimeType: "image/png"},
	})
	if err != nil {
		t.Fatalf("first image update: %v", err)
	}
	if updated.ProfilePicture == "" {
		t.Fatal("expected a profile picture URL")
	}
	if store.Count() != 1 {
		t.Fatalf("expected 1 stored object, got %d", store.Count())
	}

	// A new image replaces the old object.
	replaced, err := svc.Update(ctx, user.ID, UpdateUserInput{
		Image: &ImageUpload{Data: []byte("second"), FileName: "b.png", MimeType: "image/png"},
	})
	if err != nil {
		t.Fatalf("second image update: %v", err)
	}
	if replaced.ProfilePicture == updated.ProfilePicture {
		t.Error("profile picture URL should change on replacement")
	}
	if store.Count() != 1 {
		t.Fatalf("old object should be deleted, got %d objects", store.Count())
	}

	// Deleting the user removes the image too.
	if err := svc.Delete(ctx, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if store.Count() != 0 {
		t.Fatalf("expected empty storage after delete, got %d objects", store.Count())
	}
	if _, err := svc.Get(ctx, user.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_Teachers(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Marta", "marta@academy.test", "secret123", domain.RoleTeacher, false); err != nil {
		t.Fatalf("register teacher: %v", err)
	}
	if _, err := svc.Register(ctx, "Pablo", "pablo@academy.test", "secret123", domain.RoleStudent, false); err != nil {
		t.Fatalf("register student: %v", err)
	}

	teachers, err := svc.Teachers(ctx)
	if err != nil {
		t.Fatalf("teachers: %v", err)
	}
	if len(teachers) != 1 {
		t.Fatalf("expected 1 teacher, got %d", len(teachers))
	}
	if teachers[0].Name != "Marta" {
		t.Errorf("teacher = %q", teachers[0].Name)
	}
}
