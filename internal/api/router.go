package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/api/handler"
	customMiddleware "github.com/sfd-mhrana/notion-clone-sub001/internal/api/middleware"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/config"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/repository/postgres"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/repository/redis"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/security"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize security components
	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	workspaceRepo := postgres.NewWorkspaceRepository(db)
	pageRepo := postgres.NewPageRepository(db)
	blockRepo := postgres.NewBlockRepository(db)
	propertyRepo := postgres.NewPropertyRepository(db)
	rowValueRepo := postgres.NewRowValueRepository(db)

	// Initialize rate limiter, tree cache and event publisher
	rateLimiter := redis.NewRateLimiter(
		redisClient,
		cfg.Limits.RateLimit.RequestsPerMinute,
		cfg.Limits.RateLimit.Burst,
	)
	treeCache := redis.NewTreeCache(redisClient)
	eventPublisher := redis.NewEventPublisher(redisClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager)
	workspaceService := service.NewWorkspaceService(workspaceRepo)
	hierarchyService := service.NewHierarchyService(
		pageRepo,
		blockRepo,
		propertyRepo,
		rowValueRepo,
		workspaceRepo,
		eventPublisher,
		treeCache,
		cfg.Limits.MaxDepth,
	)
	blockService := service.NewBlockService(blockRepo, pageRepo, workspaceRepo, eventPublisher)
	schemaService := service.NewSchemaService(propertyRepo, rowValueRepo, pageRepo, workspaceRepo, eventPublisher)
	projectionService := service.NewProjectionService(pageRepo, blockRepo, workspaceRepo, treeCache)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	workspaceHandler := handler.NewWorkspaceHandler(workspaceService, projectionService)
	pageHandler := handler.NewPageHandler(hierarchyService, projectionService)
	blockHandler := handler.NewBlockHandler(blockService)
	databaseHandler := handler.NewDatabaseHandler(schemaService)

	// Auth middleware
	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(rateLimiter)

	// Public routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(rateLimitMiddleware.Limit)

			r.Get("/me", authHandler.Me)

			// Workspace routes
			r.Route("/workspaces", func(r chi.Router) {
				r.Get("/", workspaceHandler.List)
				r.Post("/", workspaceHandler.Create)

				r.Route("/{workspaceID}", func(r chi.Router) {
					r.Use(customMiddleware.WorkspaceContext)

					r.Get("/", workspaceHandler.Get)
					r.Patch("/", workspaceHandler.Update)
					r.Delete("/", workspaceHandler.Delete)

					r.Get("/tree", workspaceHandler.Tree)
					r.Get("/trash", workspaceHandler.Trash)

					r.Post("/members", workspaceHandler.AddMember)
					r.Delete("/members/{memberID}", workspaceHandler.RemoveMember)

					r.Post("/pages", pageHandler.Create)
				})
			})

			// Page routes
			r.Route("/pages/{pageID}", func(r chi.Router) {
				r.Get("/", pageHandler.Get)
				r.Patch("/", pageHandler.Update)
				r.Delete("/", pageHandler.Delete)
				r.Post("/move", pageHandler.Move)
				r.Post("/restore", pageHandler.Restore)
				r.Delete("/permanent", pageHandler.Reap)
				r.Post("/duplicate", pageHandler.Duplicate)
				r.Get("/children", pageHandler.Children)
				r.Post("/blocks", blockHandler.Create)
			})

			// Block routes
			r.Route("/blocks/{blockID}", func(r chi.Router) {
				r.Get("/", blockHandler.Get)
				r.Patch("/", blockHandler.Update)
				r.Delete("/", blockHandler.Delete)
				r.Post("/move", blockHandler.Move)
			})

			// Database routes
			r.Route("/databases/{databaseID}", func(r chi.Router) {
				r.Get("/", databaseHandler.Get)
				r.Get("/properties", databaseHandler.ListProperties)
				r.Post("/properties", databaseHandler.DefineProperty)
			})
			r.Route("/properties/{propertyID}", func(r chi.Router) {
				r.Patch("/", databaseHandler.UpdateProperty)
				r.Delete("/", databaseHandler.DeleteProperty)
			})
			r.Put("/rows/{rowID}/values", databaseHandler.SetRowValue)
		})
	})

	return r
}
