package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"linkboard/internal/middleware"
	"linkboard/internal/models"
)

// UserLookup resolves a token subject. A missing user must be reported as a
// NOT_FOUND AppError.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// RevocationList is the denylist of token ids.
type RevocationList interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, jti string, until time.Time) error
}

var errNoRevocations = errors.New("token revocation is not configured")

// Session is an authenticated request context.
type Session struct {
	User      *models.User
	TokenID   string
	ExpiresAt time.Time
}

// UserID returns the session user's id, or 0 for anonymous.
func (s *Session) UserID() uint {
	if s == nil || s.User == nil {
		return 0
	}
	return s.User.ID
}

// Gate authenticates Authorization header values. It never writes, except
// through Revoke.
type Gate struct {
	tokens      *TokenManager
	users       UserLookup
	revocations RevocationList
}

func NewGate(tokens *TokenManager, users UserLookup, revocations RevocationList) *Gate {
	return &Gate{tokens: tokens, users: users, revocations: revocations}
}

// ParseBearer extracts the token from "Bearer <token>".
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", models.NewUnauthenticatedError("authorization required")
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.Contains(token, " ") {
		return "", models.NewUnauthenticatedError("invalid authorization header format")
	}
	return token, nil
}

// Authenticate resolves header to a session. Bad, expired or revoked
// credentials and unknown users are Unauthenticated; banned or deleted
// users are Forbidden.
func (g *Gate) Authenticate(ctx context.Context, header string) (*Session, error) {
	raw, err := ParseBearer(header)
	if err != nil {
		return nil, err
	}

	verified, err := g.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}

	if g.revocations != nil && verified.TokenID != "" {
		revoked, err := g.revocations.IsRevoked(ctx, verified.TokenID)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "revocation check failed",
				slog.String("jti", verified.TokenID), slog.String("error", err.Error()))
		}
		if revoked {
			return nil, models.NewUnauthenticatedError("token has been revoked")
		}
	}

	user, err := g.users.GetByID(ctx, verified.UserID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthenticatedError("user no longer exists")
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, models.NewForbiddenError("account is " + string(user.Status))
	}

	return &Session{User: user, TokenID: verified.TokenID, ExpiresAt: verified.ExpiresAt}, nil
}

// AuthenticateOptional is Authenticate except that an absent header yields
// an anonymous (nil) session. A present but invalid header is still an error.
func (g *Gate) AuthenticateOptional(ctx context.Context, header string) (*Session, error) {
	if strings.TrimSpace(header) == "" {
		return nil, nil
	}
	return g.Authenticate(ctx, header)
}

// Revoke denylists the session's token until it expires.
func (g *Gate) Revoke(ctx context.Context, session *Session) error {
	if session == nil || session.TokenID == "" {
		return models.NewUnauthenticatedError("no session to revoke")
	}
	if g.revocations == nil {
		return models.NewInternalError(errNoRevocations)
	}
	if err := g.revocations.Revoke(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
