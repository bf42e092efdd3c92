package identity

import (
	"context"
	"errors"
	"time"

	"tutormarket/internal/domain"

	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Service mints anonymous session identities and resolves their bearer
// tokens. Authenticated user identities arrive already resolved by the
// external identity provider; this service only covers the guest side.
type Service struct {
	tokens     *tokenManager
	sessionTTL time.Duration
}

func New(sessionTTL time.Duration) *Service {
	return &Service{
		tokens:     newTokenManager(),
		sessionTTL: sessionTTL,
	}
}

// Issue creates a fresh anonymous session and a bearer token for it.
func (s *Service) Issue(ctx context.Context) (token, sessionID string, err error) {
	sessionID = uuid.NewString()
	token, err = s.tokens.Issue(sessionID, s.sessionTTL)
	if err != nil {
		return "", "", err
	}
	return token, sessionID, nil
}

// Resolve maps a bearer token back to its session identity.
func (s *Service) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	sessionID, ok := s.tokens.Validate(token)
	if !ok {
		return domain.Identity{}, ErrInvalidToken
	}
	return domain.SessionIdentity(sessionID), nil
}

// TTLSeconds exposes the session token lifetime for the issue response.
func (s *Service) TTLSeconds() int {
	return int(s.sessionTTL.Seconds())
}
