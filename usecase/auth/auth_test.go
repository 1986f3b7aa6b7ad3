package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/storytrack/backend/domain"
)

type fakeUsers struct {
	users map[string]*domain.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

type fakeSessions struct {
	sessions map[string]*domain.Session
}

func (f *fakeSessions) Get(_ context.Context, id string) (*domain.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessions) Save(_ context.Context, session *domain.Session) error {
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessions) Extend(_ context.Context, _ string, _ int) error { return nil }

func newTestUseCase(users map[string]*domain.User) (*UseCase, *fakeSessions) {
	sessions := &fakeSessions{sessions: make(map[string]*domain.Session)}
	uc := New(&fakeUsers{users: users}, sessions, TokenConfig{Secret: "s", Issuer: "test"}, nil)
	return uc, sessions
}

func TestLoginIssuesTokenWithRoles(t *testing.T) {
	uc, sessions := newTestUseCase(map[string]*domain.User{
		"u-1": {ID: "u-1", Status: "active", Roles: []domain.Role{domain.RoleMember, domain.RoleAdmin}},
	})

	result, err := uc.Login(context.Background(), "u-1", time.Hour)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token == "" {
		t.Fatal("empty token")
	}
	if _, ok := sessions.sessions[result.Session.ID]; !ok {
		t.Fatal("session not persisted")
	}

	token, err := jwt.Parse(result.Token, func(*jwt.Token) (interface{}, error) {
		return []byte("s"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("issued token does not verify: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["sub"] != "u-1" || claims["sid"] != result.Session.ID {
		t.Fatalf("claims = %+v", claims)
	}
	roles, _ := claims["roles"].([]interface{})
	if len(roles) != 2 {
		t.Fatalf("roles claim = %+v", claims["roles"])
	}
}

func TestLoginRejectsUnknownAndInactiveUsers(t *testing.T) {
	uc, _ := newTestUseCase(map[string]*domain.User{
		"u-2": {ID: "u-2", Status: "suspended", Roles: []domain.Role{domain.RoleMember}},
	})

	if _, err := uc.Login(context.Background(), "missing", time.Hour); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("unknown user: %v", err)
	}
	if _, err := uc.Login(context.Background(), "u-2", time.Hour); !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Fatalf("inactive user: %v", err)
	}
}

func TestRevokeSessionDeletes(t *testing.T) {
	uc, sessions := newTestUseCase(map[string]*domain.User{
		"u-1": {ID: "u-1", Status: "active", Roles: []domain.Role{domain.RoleMember}},
	})

	result, err := uc.Login(context.Background(), "u-1", time.Hour)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := uc.RevokeSession(context.Background(), result.Session.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, ok := sessions.sessions[result.Session.ID]; ok {
		t.Fatal("session survived revocation")
	}
}
