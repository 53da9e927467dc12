package repository

import (
	"context"
	"fmt"

	"linkboard/internal/cache"
	"linkboard/internal/database"
	"linkboard/internal/models"
	"linkboard/internal/observability"

	"gorm.io/gorm"
)

// CommunityRepository defines persistence operations for communities.
// Reads go through the cache; roles are never cached.
type CommunityRepository interface {
	// Create inserts community and the creator's owner role in one transaction.
	Create(ctx context.Context, community *models.Community) error
	GetByID(ctx context.Context, id uint) (*models.Community, error)
	GetByName(ctx context.Context, name string) (*models.Community, error)
	GetPersonal(ctx context.Context, userID uint) (*models.Community, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
}

type communityRepository struct {
	db     *gorm.DB
	cache  *cache.Store
	logger *observability.RepoLogger
}

// NewCommunityRepository creates a new CommunityRepository. store may wrap
// a nil Redis client.
func NewCommunityRepository(db *gorm.DB, store *cache.Store) CommunityRepository {
	if store == nil {
		store = cache.NewStore(nil)
	}
	return &communityRepository{db: db, cache: store, logger: observability.NewRepoLogger("communities")}
}

func (r *communityRepository) Create(ctx context.Context, community *models.Community) error {
	defer observability.TrackQuery("create", "communities")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(community).Error; err != nil {
			return err
		}
		granter := community.OwnerUserID
		return tx.Create(&models.CommunityRoleAssignment{
			CommunityID:     community.ID,
			UserID:          community.OwnerUserID,
			Role:            models.RoleOwner,
			GrantedByUserID: &granter,
		}).Error
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.NewConflictError("community already exists")
		}
		r.logger.LogError(ctx, err, "create")
		return fmt.Errorf("create community: %w", err)
	}

	r.logger.LogCreate(ctx, map[string]interface{}{
		"community_id": community.ID,
		"name":         community.Name,
		"owner_id":     community.OwnerUserID,
	})
	return nil
}

func (r *communityRepository) GetByID(ctx context.Context, id uint) (*models.Community, error) {
	var community models.Community
	err := r.cache.Aside(ctx, cache.CommunityKey(id), &community, cache.CommunityTTL, func(ctx context.Context) (any, error) {
		defer observability.TrackQuery("get", "communities")()
		var c models.Community
		if err := r.db.WithContext(ctx).Take(&c, id).Error; err != nil {
			return nil, notFoundOr(err, "Community", id)
		}
		return &c, nil
	})
	if err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) GetByName(ctx context.Context, name string) (*models.Community, error) {
	var community models.Community
	err := r.cache.Aside(ctx, cache.CommunityNameKey(name), &community, cache.CommunityTTL, func(ctx context.Context) (any, error) {
		defer observability.TrackQuery("get_by_name", "communities")()
		var c models.Community
		if err := r.db.WithContext(ctx).Where("name = ?", name).Take(&c).Error; err != nil {
			return nil, notFoundOr(err, "Community", name)
		}
		return &c, nil
	})
	if err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) GetPersonal(ctx context.Context, userID uint) (*models.Community, error) {
	defer observability.TrackQuery("get_personal", "communities")()

	var c models.Community
	if err := r.db.WithContext(ctx).Where("personal_user_id = ?", userID).Take(&c).Error; err != nil {
		return nil, notFoundOr(err, "Community", userID)
	}
	return &c, nil
}

func (r *communityRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	defer observability.TrackQuery("update", "communities")()

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&models.Community{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		r.logger.LogError(ctx, res.Error, "update")
		return fmt.Errorf("update community: %w", res.Error)
	}
	r.cache.Invalidate(ctx, cache.CommunityKey(id), cache.CommunityNameKey(current.Name))
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Community", id)
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"community_id": id, "fields": fieldNames(fields)})
	return nil
}
