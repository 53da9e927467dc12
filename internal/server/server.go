// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"log/slog"
	"time"

	_ "linkboard/docs" // swagger docs
	"linkboard/internal/bootstrap"
	"linkboard/internal/cache"
	"linkboard/internal/config"
	"linkboard/internal/featureflags"
	"linkboard/internal/identity"
	"linkboard/internal/middleware"
	"linkboard/internal/policy"
	"linkboard/internal/repository"
	"linkboard/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	limiter        *middleware.RateLimiter
	gate           *identity.Gate
	flags          *featureflags.Manager

	authService      *service.AuthService
	userService      *service.UserService
	communityService *service.CommunityService
	postService      *service.PostService
	commentService   *service.CommentService
	voteService      *service.VoteService
}

// NewServer creates a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	// redisClient may be nil; caching, idempotency and rate limiting then degrade.
	db, redisClient, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	communityRepo := repository.NewCommunityRepository(db, cache.NewStore(redisClient))

	tokens := identity.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL())
	gate := identity.NewGate(tokens, userRepo, cache.NewRevocations(redisClient))
	p := policy.New(roleRepo)

	communities := service.NewCommunityService(communityRepo, roleRepo, userRepo, p)

	failPolicy, err := middleware.ParseFailPolicy(cfg.RateLimitFailMode)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:           cfg,
		db:               db,
		redis:            redisClient,
		promMiddleware:   middleware.InitMetrics("linkboard-api"),
		limiter:          middleware.NewRateLimiter(redisClient, cfg.Env, failPolicy),
		gate:             gate,
		flags:            featureflags.NewManager(cfg.FeatureFlags),
		authService:      service.NewAuthService(userRepo, tokens, gate),
		userService:      service.NewUserService(userRepo),
		communityService: communities,
		postService: service.NewPostService(postRepo, communities, p,
			cache.NewIdempotency(redisClient, cfg.IdempotencyTTL())),
		commentService: service.NewCommentService(commentRepo, postRepo, communities, p),
		voteService:    service.NewVoteService(voteRepo, postRepo, commentRepo, communities, p),
	}, nil
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "linkboard API",
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery; the error handler renders the envelope
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Tracing before context so the trace id is in the logger context
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
		MaxAge:       86400,
	}))

	app.Use(middleware.RequestDeadline(s.config.RequestTimeout()))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Swagger documentation
	if s.flags.Enabled(featureflags.Swagger, 0) {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	api := app.Group("/api/v1")
	required := s.AuthRequired()
	optional := s.OptionalAuth()
	writes := s.limiter.Limit("write", 30, time.Minute)
	votes := s.limiter.Limit("vote", 120, time.Minute)

	// Auth routes
	auth := api.Group("/auth")
	// Credential endpoints never run unthrottled, whatever the global fail mode.
	auth.Post("/register", s.limiter.LimitWithPolicy("register", 5, 10*time.Minute, middleware.FailClosed), s.Register)
	auth.Post("/login", s.limiter.LimitWithPolicy("login", 10, 5*time.Minute, middleware.FailClosed), s.Login)
	auth.Post("/logout", required, s.Logout)

	// User routes; /me before the generic /:ref
	users := api.Group("/users")
	users.Get("/me", required, s.GetMe)
	users.Get("/:ref", optional, s.GetUser)

	// Community routes
	communities := api.Group("/communities")
	communities.Post("/", required, writes, s.CreateCommunity)
	communities.Post("/:id/join", required, writes, s.JoinCommunity)
	communities.Put("/:id/roles/:user_id", required, writes, s.SetRole)
	communities.Delete("/:id/roles/:user_id", required, writes, s.RemoveRole)
	communities.Patch("/:id", required, writes, s.UpdateCommunity)
	communities.Get("/:ref", optional, s.GetCommunity)

	// Post routes; specific /:id/:resource routes BEFORE generic /:id
	posts := api.Group("/posts")
	posts.Get("/", optional, s.ListPosts)
	posts.Post("/", required, writes, s.CreatePost)
	posts.Post("/batch", optional, s.BatchPosts)
	posts.Get("/:id/score", optional, s.GetPostScore)
	posts.Put("/:id/vote", required, votes, s.CastPostVote)
	posts.Delete("/:id/vote", required, votes, s.ClearPostVote)
	posts.Get("/:id/comments", optional, s.ListComments)
	posts.Post("/:id/comments", required, writes, s.CreateComment)
	posts.Get("/:id", optional, s.GetPost)
	posts.Patch("/:id", required, writes, s.UpdatePost)
	posts.Delete("/:id", required, writes, s.DeletePost)

	// Comment routes
	comments := api.Group("/comments")
	comments.Put("/:id/vote", required, votes, s.CastCommentVote)
	comments.Delete("/:id/vote", required, votes, s.ClearCommentVote)
	comments.Patch("/:id", required, writes, s.UpdateComment)
	comments.Delete("/:id", required, writes, s.DeleteComment)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional: without it the API runs uncached.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
