package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hallelx2/legal-ai-backend/internal/config"
	"github.com/hallelx2/legal-ai-backend/internal/db/models"
	"go.uber.org/zap"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(newTestDB(t), config.Default().Security, zap.NewNop(), nil)
}

func register(t *testing.T, as *AuthService, email string) *models.User {
	t.Helper()
	user, err := as.Register(context.Background(), RegisterInput{
		Email: email, Password: "correct-horse", ConfirmPassword: "correct-horse", FirstName: "Ada",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return user
}

func TestRegister(t *testing.T) {
	as := newAuthService(t)
	ctx := context.Background()

	user := register(t, as, " Ada@Example.com ")
	if user.Email != "ada@example.com" || user.PasswordHash == "correct-horse" || !user.ActiveStatus {
		t.Errorf("user = %+v", user)
	}

	tests := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"duplicate", RegisterInput{Email: "ada@example.com", Password: "correct-horse", ConfirmPassword: "correct-horse"}, ErrConflict},
		{"bad email", RegisterInput{Email: "ada", Password: "correct-horse", ConfirmPassword: "correct-horse"}, ErrInvalidInput},
		{"short password", RegisterInput{Email: "b@example.com", Password: "short", ConfirmPassword: "short"}, ErrInvalidInput},
		{"mismatch", RegisterInput{Email: "b@example.com", Password: "correct-horse", ConfirmPassword: "battery-staple"}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := as.Register(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	as := newAuthService(t)
	ctx := context.Background()
	user := register(t, as, "ada@example.com")

	if _, err := as.Login(ctx, LoginInput{Email: "ada@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := as.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "x"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user err = %v", err)
	}

	pair, err := as.Login(ctx, LoginInput{Email: "ADA@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.UserID != user.ID || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("pair = %+v", pair)
	}

	got, err := as.Authenticate(ctx, pair.AccessToken)
	if err != nil || got.ID != user.ID {
		t.Fatalf("Authenticate = %v, %v", got, err)
	}
	if got.LastLogin == nil || got.FailedAttempts != 0 {
		t.Errorf("login bookkeeping = last %v failed %d", got.LastLogin, got.FailedAttempts)
	}

	if _, err := as.Authenticate(ctx, pair.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("refresh token accepted as access token: %v", err)
	}
	if _, err := as.Authenticate(ctx, "garbage"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("garbage token err = %v", err)
	}
}

func TestRefreshAndRevoke(t *testing.T) {
	as := newAuthService(t)
	ctx := context.Background()
	register(t, as, "ada@example.com")

	pair, err := as.Login(ctx, LoginInput{Email: "ada@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatal(err)
	}

	refreshed, err := as.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := as.Authenticate(ctx, refreshed.AccessToken); err != nil {
		t.Fatalf("refreshed token rejected: %v", err)
	}

	if err := as.RevokeAll(ctx, pair.UserID); err != nil {
		t.Fatal(err)
	}
	if _, err := as.Authenticate(ctx, refreshed.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("revoked access token err = %v", err)
	}
	if _, err := as.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("revoked refresh token err = %v", err)
	}
	if err := as.RevokeAll(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("revoke missing err = %v", err)
	}
}

func TestAccessTokenExpires(t *testing.T) {
	as := newAuthService(t)
	ctx := context.Background()
	register(t, as, "ada@example.com")

	issued := time.Now()
	as.now = func() time.Time { return issued }
	pair, err := as.Login(ctx, LoginInput{Email: "ada@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatal(err)
	}

	as.now = func() time.Time { return issued.Add(as.security.AccessTokenTTL + time.Minute) }
	if _, err := as.Authenticate(ctx, pair.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expired token err = %v", err)
	}
	if _, err := as.Refresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("refresh token should outlive the access token: %v", err)
	}
}
