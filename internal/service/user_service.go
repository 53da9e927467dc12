package service

import (
	"context"
	"strconv"
	"strings"

	"linkboard/internal/models"
	"linkboard/internal/repository"
	"linkboard/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
}

type SetStatusInput struct {
	UserID uint
	Status string
	Reason string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Resolve looks a user up by numeric id or by username. Deleted accounts are
// reported as not found.
func (s *UserService) Resolve(ctx context.Context, ref string) (*models.User, error) {
	user, err := s.Lookup(ctx, ref)
	if err != nil {
		return nil, err
	}
	if user.Status == models.UserStatusDeleted {
		return nil, models.NewNotFoundError("User", strings.TrimSpace(ref))
	}
	return user, nil
}

// Lookup is Resolve for operators: it returns the account in any status.
func (s *UserService) Lookup(ctx context.Context, ref string) (*models.User, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, models.NewValidationError("user reference is required")
	}
	if validation.IsNumericRef(ref) {
		id, err := strconv.ParseUint(ref, 10, 64)
		if err != nil {
			return nil, models.NewNotFoundError("User", ref)
		}
		return s.userRepo.GetByID(ctx, uint(id))
	}
	return s.userRepo.GetByUsername(ctx, ref)
}

// SetStatus bans or deletes an active user. The reason is kept for bans only.
func (s *UserService) SetStatus(ctx context.Context, in SetStatusInput) (*models.User, error) {
	status := models.UserStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if status != models.UserStatusBanned && status != models.UserStatusDeleted {
		return nil, models.NewValidationError("status must be banned or deleted").
			WithDetails(map[string]any{"field": "status", "value": in.Status})
	}

	var reason *string
	if status == models.UserStatusBanned {
		cleaned := validation.StripHTML(in.Reason)
		if len(cleaned) > 500 {
			return nil, models.NewValidationError("reason must not exceed 500 characters").
				WithDetails(map[string]any{"field": "reason"})
		}
		if cleaned != "" {
			reason = &cleaned
		}
	}

	if err := s.userRepo.UpdateStatus(ctx, in.UserID, status, reason); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, in.UserID)
}
