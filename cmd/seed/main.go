// Command main runs the database seeder for linkboard.
package main

import (
	"context"
	"log"

	"linkboard/internal/bootstrap"
	"linkboard/internal/config"
	"linkboard/internal/seed"

	"github.com/spf13/pflag"
)

func main() {
	numUsers := pflag.Int("users", 20, "Number of users to create")
	numCommunities := pflag.Int("communities", 8, "Number of communities to create")
	postsPerUser := pflag.Int("posts-per-user", 3, "Posts each user writes per community")
	commentsPerPost := pflag.Int("comments-per-post", 4, "Comments per post")
	votesPerPost := pflag.Int("votes-per-post", 10, "Votes per post")
	shouldClean := pflag.Bool("clean", true, "Clean database before seeding")
	if err := config.BindFlags(pflag.CommandLine); err != nil {
		log.Fatalf("Failed to bind flags: %v", err)
	}
	pflag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatalf("Refusing to seed a %s database", cfg.Env)
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{Migrate: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	s, err := seed.NewSeeder(db, seed.Options{
		NumUsers:        *numUsers,
		NumCommunities:  *numCommunities,
		PostsPerUser:    *postsPerUser,
		CommentsPerPost: *commentsPerPost,
		VotesPerPost:    *votesPerPost,
		ShouldClean:     *shouldClean,
	})
	if err != nil {
		log.Fatalf("Seeder setup failed: %v", err)
	}

	sum, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d communities, %d posts, %d comments, %d votes",
		sum.Users, sum.Communities, sum.Posts, sum.Comments, sum.Votes)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
