package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"linkboard/internal/database"
	"linkboard/internal/middleware"
	"linkboard/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	NumCommunities  int
	PostsPerUser    int
	CommentsPerPost int
	VotesPerPost    int
	MaxDays         int
	ShouldClean     bool
	BcryptCost      int
	RandomSeed      int64
}

func (o Options) withDefaults() Options {
	if o.MaxDays <= 0 {
		o.MaxDays = 30
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
	if o.RandomSeed == 0 {
		o.RandomSeed = time.Now().UnixNano()
	}
	return o
}

// Summary counts what a run created.
type Summary struct {
	Users       int
	Communities int
	Posts       int
	Comments    int
	Votes       int
}

// Seeder populates a database through a Factory.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	opts = opts.withDefaults()
	factory, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, factory: factory, opts: opts}, nil
}

// communityTypes cycles so that every visibility level is represented.
var communityTypes = []models.CommunityType{
	models.CommunityTypePublic,
	models.CommunityTypePublic,
	models.CommunityTypeRestricted,
	models.CommunityTypePrivate,
}

// Run creates users, communities with memberships, posts, threaded comments
// and votes. Everyone is a member of each non-public community so that all
// seeded content is reachable by some account.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	if s.opts.NumUsers < 1 {
		return nil, fmt.Errorf("seed needs at least one user")
	}
	if s.opts.ShouldClean {
		if err := database.Truncate(ctx, s.db); err != nil {
			return nil, fmt.Errorf("clean: %w", err)
		}
	}

	f := s.factory
	sum := &Summary{}

	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	middleware.Logger.InfoContext(ctx, "seeded users", slog.Int("count", sum.Users))

	for i := 0; i < s.opts.NumCommunities; i++ {
		owner := users[i%len(users)]
		kind := communityTypes[i%len(communityTypes)]
		community, err := f.CreateCommunity(ctx, owner, kind)
		if err != nil {
			return nil, fmt.Errorf("create community: %w", err)
		}
		sum.Communities++

		for _, u := range users {
			if u.ID == owner.ID {
				continue
			}
			if err := f.Grant(ctx, community, u, models.RoleMember); err != nil {
				return nil, fmt.Errorf("grant membership: %w", err)
			}
		}

		if err := s.fill(ctx, community, users, sum); err != nil {
			return nil, err
		}
	}

	middleware.Logger.InfoContext(ctx, "seeding complete",
		slog.Int("users", sum.Users),
		slog.Int("communities", sum.Communities),
		slog.Int("posts", sum.Posts),
		slog.Int("comments", sum.Comments),
		slog.Int("votes", sum.Votes),
	)
	return sum, nil
}

func (s *Seeder) fill(ctx context.Context, community *models.Community, users []*models.User, sum *Summary) error {
	f := s.factory
	for i, author := range users {
		for j := 0; j < s.opts.PostsPerUser; j++ {
			post, err := f.CreatePost(ctx, author, community)
			if err != nil {
				return fmt.Errorf("create post: %w", err)
			}
			sum.Posts++

			var parent *models.Comment
			for k := 0; k < s.opts.CommentsPerPost; k++ {
				commenter := users[(i+k+1)%len(users)]
				// every other comment replies to the previous one
				if k%2 == 0 {
					parent = nil
				}
				c, err := f.CreateComment(ctx, commenter, post, parent)
				if err != nil {
					return fmt.Errorf("create comment: %w", err)
				}
				parent = c
				sum.Comments++
			}

			for k := 0; k < s.opts.VotesPerPost && k < len(users); k++ {
				voter := users[(i+k)%len(users)]
				if err := f.Vote(ctx, voter, models.SubjectPost, post.ID); err != nil {
					return fmt.Errorf("cast vote: %w", err)
				}
				sum.Votes++
			}
		}
	}
	return nil
}
