package repository

import (
	"context"
	"fmt"

	"linkboard/internal/database"
	"linkboard/internal/models"
	"linkboard/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users. Users are read
// uncached so status changes take effect on the next request.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateStatus(ctx context.Context, id uint, status models.UserStatus, reason *string) error
}

type userRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, logger: observability.NewRepoLogger("users")}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	defer observability.TrackQuery("get", "users")()

	var user models.User
	if err := r.db.WithContext(ctx).Take(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer observability.TrackQuery("get_by_email", "users")()

	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		return nil, notFoundOr(err, "User", email)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	defer observability.TrackQuery("get_by_username", "users")()

	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error; err != nil {
		return nil, notFoundOr(err, "User", username)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("create", "users")()

	if user.StatusChangedAt.IsZero() {
		user.StatusChangedAt = utcNow()
	}
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return models.NewConflictError("username or email already taken")
		}
		r.logger.LogError(ctx, err, "create")
		return fmt.Errorf("create user: %w", err)
	}
	r.logger.LogCreate(ctx, map[string]interface{}{"user_id": user.ID, "username": user.Username})
	return nil
}

// UpdateStatus moves an active user to status. Users that already left the
// active state are not touched and the call is a CONFLICT.
func (r *userRepository) UpdateStatus(ctx context.Context, id uint, status models.UserStatus, reason *string) error {
	defer observability.TrackQuery("update_status", "users")()

	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND status = ?", id, models.UserStatusActive).
		Updates(map[string]any{
			"status":            status,
			"status_changed_at": utcNow(),
			"banned_reason":     reason,
		})
	if res.Error != nil {
		r.logger.LogError(ctx, res.Error, "update_status")
		return fmt.Errorf("update user status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return models.NewConflictError("user status is terminal")
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"user_id": id, "status": string(status)})
	return nil
}
