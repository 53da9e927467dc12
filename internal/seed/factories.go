// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"linkboard/internal/models"
	"linkboard/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account. It satisfies the
// registration password rules so seeded users can log in through the API.
const DefaultPassword = "Seed!Passw0rd"

// Factory builds domain entities and persists them through the repositories.
type Factory struct {
	faker       *gofakeit.Faker
	users       repository.UserRepository
	communities repository.CommunityRepository
	roles       repository.RoleRepository
	posts       repository.PostRepository
	comments    repository.CommentRepository
	votes       repository.VoteRepository
	opts        Options
	hash        string
	seq         int
}

// NewFactory creates a Factory bound to db. Community caching is left off;
// the seeder writes straight to the store.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	opts = opts.withDefaults()
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	return &Factory{
		faker:       gofakeit.New(opts.RandomSeed),
		users:       repository.NewUserRepository(db),
		communities: repository.NewCommunityRepository(db, nil),
		roles:       repository.NewRoleRepository(db),
		posts:       repository.NewPostRepository(db),
		comments:    repository.NewCommentRepository(db),
		votes:       repository.NewVoteRepository(db),
		opts:        opts,
		hash:        string(hash),
	}, nil
}

// next returns a per-factory counter used to keep generated names unique.
func (f *Factory) next() int {
	f.seq++
	return f.seq
}

// backdate spreads created_at over the last MaxDays days.
func (f *Factory) backdate() time.Time {
	minutes := f.faker.Number(0, f.opts.MaxDays*24*60)
	return time.Now().UTC().Add(-time.Duration(minutes) * time.Minute)
}

// CreateUser persists an active user. Overrides may modify it before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	username := fmt.Sprintf("%s_%d", strings.ToLower(f.faker.FirstName()), f.next())
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: f.hash,
		Status:       models.UserStatusActive,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateCommunity persists a community owned by owner.
func (f *Factory) CreateCommunity(ctx context.Context, owner *models.User, kind models.CommunityType, overrides ...func(*models.Community)) (*models.Community, error) {
	description := f.faker.Sentence(8)
	community := &models.Community{
		Name:        fmt.Sprintf("%s-%d", strings.ToLower(f.faker.HipsterWord()), f.next()),
		Description: &description,
		Type:        kind,
		OwnerUserID: owner.ID,
	}
	for _, override := range overrides {
		override(community)
	}
	if err := f.communities.Create(ctx, community); err != nil {
		return nil, err
	}
	return community, nil
}

// Grant gives user role in community.
func (f *Factory) Grant(ctx context.Context, community *models.Community, user *models.User, role models.CommunityRole) error {
	return f.roles.Upsert(ctx, &models.CommunityRoleAssignment{
		CommunityID:     community.ID,
		UserID:          user.ID,
		Role:            role,
		GrantedByUserID: &community.OwnerUserID,
	})
}

// CreatePost persists a post in community. Roughly a third are link posts.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, community *models.Community, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		CommunityID:  community.ID,
		AuthorUserID: author.ID,
		Title:        strings.TrimSuffix(f.faker.Sentence(6), "."),
		CreatedAt:    f.backdate(),
	}
	if f.faker.Number(0, 2) == 0 {
		link := f.faker.URL()
		post.ImageURL = &link
	} else {
		body := f.faker.Paragraph(1, 3, 8, "\n\n")
		post.Body = &body
	}
	for _, override := range overrides {
		override(post)
	}
	if err := f.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment on post, optionally replying to parent.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:       post.ID,
		AuthorUserID: author.ID,
		Body:         f.faker.Sentence(12),
		CreatedAt:    post.CreatedAt.Add(time.Duration(f.faker.Number(1, 600)) * time.Minute),
	}
	if parent != nil {
		comment.ParentCommentID = &parent.ID
		comment.CreatedAt = parent.CreatedAt.Add(time.Duration(f.faker.Number(1, 120)) * time.Minute)
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Vote casts a vote that leans positive.
func (f *Factory) Vote(ctx context.Context, voter *models.User, kind models.SubjectKind, subjectID uint) error {
	value := 1
	if f.faker.Number(0, 3) == 0 {
		value = -1
	}
	return f.votes.Cast(ctx, kind, subjectID, voter.ID, value)
}
