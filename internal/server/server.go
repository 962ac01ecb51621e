// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"parley/internal/auth"
	"parley/internal/cache"
	"parley/internal/config"
	"parley/internal/database"
	"parley/internal/middleware"
	"parley/internal/notifications"
	"parley/internal/observability"
	"parley/internal/repository"
	"parley/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	postRepo     repository.PostRepository
	commentRepo  repository.CommentRepository
	reactionRepo repository.ReactionRepository
	keyRepo      repository.TempKeyRepository
	idemRepo     repository.IdempotencyRepository

	authenticator   *auth.Service
	notifier        *notifications.Notifier
	hub             *notifications.Hub
	postService     *service.PostService
	commentService  *service.CommentService
	reactionService *service.ReactionService
	keyVault        *service.KeyVaultService

	tracingShutdown func(context.Context) error
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Initialize Redis
	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	tracingShutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "parley-api",
		ServiceVersion: "1.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampler,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	srv := newServerWith(cfg, db, redisClient)
	srv.tracingShutdown = tracingShutdown
	srv.promMiddleware = fiberprometheus.New("parley-api")

	// Wire the event hub to Redis pub/sub and start the key sweeper.
	if err := srv.hub.StartWiring(srv.shutdownCtx, srv.notifier); err != nil {
		log.Printf("event hub wiring failed: %v", err)
	}
	go srv.sweepLoop()

	return srv, nil
}

// newServerWith assembles repositories and services around the given
// backends. Split out so tests can inject sqlite and miniredis.
func newServerWith(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	shutdownCtx, shutdownFn := context.WithCancel(context.Background())

	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	keyRepo := repository.NewTempKeyRepository(db)
	idemRepo := repository.NewIdempotencyRepository(db)

	srv := &Server{
		config:       cfg,
		db:           db,
		redis:        redisClient,
		shutdownCtx:  shutdownCtx,
		shutdownFn:   shutdownFn,
		postRepo:     postRepo,
		commentRepo:  commentRepo,
		reactionRepo: reactionRepo,
		keyRepo:      keyRepo,
		idemRepo:     idemRepo,
	}

	srv.authenticator = auth.NewService(cfg.AuthSecret, cfg.AuthSkew(), redisClient)
	srv.notifier = notifications.NewNotifier(redisClient)
	srv.hub = notifications.NewHub()
	srv.postService = service.NewPostService(postRepo)
	srv.commentService = service.NewCommentService(commentRepo, idemRepo, srv.postService, redisClient, cfg.CommentInterval())
	srv.reactionService = service.NewReactionService(reactionRepo, commentRepo, postRepo, idemRepo)
	srv.keyVault = service.NewKeyVaultService(keyRepo, redisClient, cfg.TempKeyTTL(), cfg.WsKeyTTL())

	return srv
}

// SetupMiddleware attaches the middleware chain to the app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.RequestLogger())

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
		app.Use(s.promMiddleware.Middleware)
	}
}

// SetupRoutes registers all API routes.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health", s.Health)

	api := app.Group("/api")

	// Reads are unsigned; listing stays open even on locked posts.
	api.Get("/posts/:id/status", s.GetPostStatus)
	api.Get("/posts/:id/comments", s.GetComments)

	// Every mutating call carries the four auth fields.
	signed := api.Group("", middleware.SignedRequest())
	signed.Post("/comments", s.CreateComment)
	signed.Delete("/comments/:id", s.DeleteComment)
	signed.Delete("/posts/:id", s.DeletePost)
	signed.Post("/reactions", s.AddReaction)
	signed.Post("/keys/temp/generate", s.GenerateTempKey)
	signed.Post("/keys/temp/validate", s.ValidateTempKey)
	signed.Post("/keys/ws/generate", s.GenerateWsKey)

	s.registerEventStream(app)
}

// Health reports liveness.
func (s *Server) Health(c *fiber.Ctx) error {
	return respondOK(c, fiber.Map{"status": "ok"})
}

// sweepLoop periodically removes expired temp keys.
func (s *Server) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdownCtx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(s.shutdownCtx, 30*time.Second)
			if removed, err := s.keyVault.SweepExpired(ctx); err != nil {
				log.Printf("temp key sweep failed: %v", err)
			} else if removed > 0 {
				log.Printf("temp key sweep removed %d expired keys", removed)
			}
			cancel()
		}
	}
}

// Shutdown releases server resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownFn()

	if err := s.hub.Shutdown(ctx); err != nil {
		log.Printf("hub shutdown error: %v", err)
	}
	if s.tracingShutdown != nil {
		if err := s.tracingShutdown(ctx); err != nil {
			log.Printf("tracing shutdown error: %v", err)
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			return err
		}
	}
	return nil
}
