package services

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"storecraft/internal/repos"
)

var ErrBadCreds = errors.New("invalid email or password")

// AuthService is the authentication collaborator at the engine boundary: it
// resolves a session cookie to a trusted owner identity. The commerce core
// itself never authenticates.
type AuthService struct {
	Users *repos.UserRepo
}

func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*repos.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*repos.User, error) {
	return s.Users.SessionUser(ctx, sid)
}
