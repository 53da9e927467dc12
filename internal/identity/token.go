// Package identity turns bearer credentials into authenticated sessions.
package identity

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"linkboard/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType is reported to clients alongside the access token.
const TokenType = "bearer"

// IssuedToken is a freshly signed access token.
type IssuedToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenID     string    `json:"-"`
}

// VerifiedToken holds the claims of a token that passed signature and expiry checks.
type VerifiedToken struct {
	UserID    uint
	TokenID   string
	ExpiresAt time.Time
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for userID.
func (m *TokenManager) Issue(userID uint) (*IssuedToken, error) {
	if len(m.secret) == 0 {
		return nil, errors.New("JWT secret not configured")
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)
	jti := uuid.NewString()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        jti,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &IssuedToken{
		AccessToken: signed,
		TokenType:   TokenType,
		ExpiresAt:   claims.ExpiresAt.Time.UTC(),
		TokenID:     jti,
	}, nil
}

// Verify checks the signature, issuer and expiry of raw and extracts the
// subject. Every failure is Unauthenticated.
func (m *TokenManager) Verify(raw string) (*VerifiedToken, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.NewUnauthenticatedError("token has expired")
		}
		return nil, models.NewUnauthenticatedError("invalid token")
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return nil, models.NewUnauthenticatedError("invalid token subject")
	}

	return &VerifiedToken{
		UserID:    uint(userID),
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}
