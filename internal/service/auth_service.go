package service

import (
	"context"
	"strings"
	"time"

	"linkboard/internal/identity"
	"linkboard/internal/models"
	"linkboard/internal/repository"
	"linkboard/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the username is unknown so that both
// failure paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("linkboard-missing-user"), bcrypt.MinCost)

type AuthService struct {
	userRepo   repository.UserRepository
	tokens     *identity.TokenManager
	gate       *identity.Gate
	bcryptCost int
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

func NewAuthService(userRepo repository.UserRepository, tokens *identity.TokenManager, gate *identity.Gate) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokens:     tokens,
		gate:       gate,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func (s *AuthService) WithBcryptCost(cost int) *AuthService {
	s.bcryptCost = cost
	return s
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, invalidField("username", err)
	}
	email := validation.NormalizeEmail(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, invalidField("email", err)
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, invalidField("password", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Status:       models.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	invalid := models.NewUnauthenticatedError("invalid username or password")

	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(in.Password))
			return nil, invalid
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, invalid
	}
	if !user.IsActive() {
		return nil, models.NewForbiddenError("account is " + string(user.Status))
	}

	issued, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &LoginResult{
		AccessToken: issued.AccessToken,
		TokenType:   issued.TokenType,
		ExpiresAt:   issued.ExpiresAt,
		User:        user,
	}, nil
}

// Logout revokes the session's token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, session *identity.Session) error {
	return s.gate.Revoke(ctx, session)
}
