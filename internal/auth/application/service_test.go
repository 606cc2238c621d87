package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wyfcoding/marketgateway/internal/auth/domain"
)

type fakeUserRepo struct {
	users  map[string]*domain.User
	nextID uint64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User), nextID: 1}
}

func (r *fakeUserRepo) Save(_ context.Context, user *domain.User) error {
	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = time.Now()
	r.users[user.Username] = user
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uint64) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.users[username], nil
}

func (r *fakeUserRepo) FindAll(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func newTestAuthService() *AuthService {
	return NewAuthService(newFakeUserRepo(), NewTokenService("test-secret", time.Hour))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterCommand{Username: "alice", Password: "password1"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID == 0 {
		t.Error("Register() returned zero user ID")
	}

	result, err := svc.Login(ctx, LoginCommand{Username: "alice", Password: "password1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Error("Login() returned empty token")
	}
	if result.Type != "Bearer" {
		t.Errorf("Login() type = %q, want %q", result.Type, "Bearer")
	}
	if result.Username != "alice" {
		t.Errorf("Login() username = %q, want %q", result.Username, "alice")
	}

	subject, ok := svc.Validate(result.Token)
	if !ok || subject != "alice" {
		t.Errorf("Validate() = (%q, %v), want (%q, true)", subject, ok, "alice")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterCommand{Username: "alice", Password: "password1"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.Register(ctx, RegisterCommand{Username: "alice", Password: "password2"})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("Register() error = %v, want ErrUserExists", err)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterCommand{Username: "alice", Password: "password1"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "alice", "wrong"},
		{"unknown user", "bob", "password1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, LoginCommand{Username: tt.username, Password: tt.password})
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestPasswordHashNotExposed(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterCommand{Username: "alice", Password: "password1"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	users, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("ListUsers() returned %d users, want 1", len(users))
	}
	if users[0].Username != "alice" {
		t.Errorf("ListUsers() username = %q, want %q", users[0].Username, "alice")
	}
}
