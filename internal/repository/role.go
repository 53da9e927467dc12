package repository

import (
	"context"
	"errors"
	"fmt"

	"linkboard/internal/models"
	"linkboard/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleRepository stores per-community role grants. It satisfies
// policy.RoleStore.
type RoleRepository interface {
	// GetRole returns the role row for (community, user), RoleNone when absent.
	GetRole(ctx context.Context, communityID, userID uint) (models.CommunityRole, error)
	// Upsert replaces the (community, user) grant.
	Upsert(ctx context.Context, assignment *models.CommunityRoleAssignment) error
	// InsertIfAbsent grants role only when the user has no row yet. It
	// reports whether a row was written.
	InsertIfAbsent(ctx context.Context, assignment *models.CommunityRoleAssignment) (bool, error)
	Delete(ctx context.Context, communityID, userID uint) (bool, error)
}

type roleRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewRoleRepository creates a new RoleRepository
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db, logger: observability.NewRepoLogger("community_roles")}
}

func (r *roleRepository) GetRole(ctx context.Context, communityID, userID uint) (models.CommunityRole, error) {
	if userID == 0 {
		return models.RoleNone, nil
	}
	defer observability.TrackQuery("get", "community_roles")()

	var row models.CommunityRoleAssignment
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RoleNone, nil
	}
	if err != nil {
		return models.RoleNone, fmt.Errorf("get role: %w", err)
	}
	return row.Role, nil
}

func (r *roleRepository) Upsert(ctx context.Context, assignment *models.CommunityRoleAssignment) error {
	defer observability.TrackQuery("upsert", "community_roles")()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "granted_by_user_id", "updated_at"}),
	}).Create(assignment).Error
	if err != nil {
		r.logger.LogError(ctx, err, "upsert")
		return fmt.Errorf("upsert role: %w", err)
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{
		"community_id": assignment.CommunityID, "user_id": assignment.UserID, "role": string(assignment.Role),
	})
	return nil
}

func (r *roleRepository) InsertIfAbsent(ctx context.Context, assignment *models.CommunityRoleAssignment) (bool, error) {
	defer observability.TrackQuery("insert", "community_roles")()

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(assignment)
	if res.Error != nil {
		r.logger.LogError(ctx, res.Error, "insert")
		return false, fmt.Errorf("insert role: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		r.logger.LogCreate(ctx, map[string]interface{}{
			"community_id": assignment.CommunityID, "user_id": assignment.UserID, "role": string(assignment.Role),
		})
	}
	return res.RowsAffected > 0, nil
}

func (r *roleRepository) Delete(ctx context.Context, communityID, userID uint) (bool, error) {
	defer observability.TrackQuery("delete", "community_roles")()

	res := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&models.CommunityRoleAssignment{})
	if res.Error != nil {
		r.logger.LogError(ctx, res.Error, "delete")
		return false, fmt.Errorf("delete role: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		r.logger.LogDelete(ctx, map[string]interface{}{"community_id": communityID, "user_id": userID})
	}
	return res.RowsAffected > 0, nil
}
