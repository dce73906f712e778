package services

import (
	"context"
	"errors"
	"testing"

	"github.com/evalx/evalx-backend/models"
)

func TestRegister(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "  Grace@Example.COM ",
		Password:  "correct horse",
		Role:      "Organiser",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "grace@example.com" {
		t.Errorf("email = %q, want normalized lowercase", user.Email)
	}
	if user.Role != models.RoleOrganiser {
		t.Errorf("role = %q, want Organiser", user.Role)
	}
	if user.PasswordHash != "" {
		t.Error("password hash leaked in response")
	}

	// Повтор с тем же email.
	if _, err := svc.Register(ctx, RegisterInput{
		Email: "grace@example.com", Password: "correct horse",
	}); !errors.Is(err, ErrUserEmailConflict) {
		t.Errorf("duplicate email: err = %v, want ErrUserEmailConflict", err)
	}
}

func TestRegisterShortPassword(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	if _, err := svc.Register(context.Background(), RegisterInput{
		Email: "a@b.c", Password: "short",
	}); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("err = %v, want ErrPasswordTooShort", err)
	}
}

func TestRegisterUnknownRoleDefaultsToDeveloper(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	user, err := svc.Register(context.Background(), RegisterInput{
		Email: "dev@example.com", Password: "long enough", Role: "Superuser",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != models.RoleDeveloper {
		t.Errorf("role = %q, want Developer", user.Role)
	}
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{
		Email: "ada@example.com", Password: "difference engine",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := svc.Login(ctx, LoginInput{Email: "ADA@example.com", Password: "difference engine"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.PasswordHash != "" {
		t.Error("password hash leaked in response")
	}

	if _, err := svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "wrong"}); !errors.Is(err, ErrAuthInvalidCredentials) {
		t.Errorf("bad password: err = %v, want ErrAuthInvalidCredentials", err)
	}
	// Неизвестный email и неверный пароль неразличимы снаружи.
	if _, err := svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "whatever"}); !errors.Is(err, ErrAuthInvalidCredentials) {
		t.Errorf("unknown email: err = %v, want ErrAuthInvalidCredentials", err)
	}
}
