package app

import (
	"context"
	"time"

	"trustline-backend/internal/auth"
	"trustline-backend/internal/brokers"
	"trustline-backend/internal/commission"
	"trustline-backend/internal/config"
	"trustline-backend/internal/constants"
	"trustline-backend/internal/database"
	"trustline-backend/internal/documents"
	"trustline-backend/internal/escrows"
	"trustline-backend/internal/esign"
	"trustline-backend/internal/health"
	"trustline-backend/internal/kyc"
	"trustline-backend/internal/middleware"
	"trustline-backend/internal/parties"
	"trustline-backend/internal/storage"
	"trustline-backend/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the backing services the HTTP layer is wired onto. Tests build
// their own set around an in-memory database.
type Deps struct {
	DB      *gorm.DB
	Rdb     *redis.Client
	Storage storage.Storage
	Sender  esign.EnvelopeSender
	// AML screening latency; production keeps the default, tests shrink it.
	ScreenDelay time.Duration
	TokenTTL    time.Duration
}

// BuildDeps opens the database, Redis and object storage from config.
func BuildDeps(cfg *config.Config) (*Deps, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	store, err := storage.New(cfg)
	if err != nil {
		return nil, err
	}
	if ms, ok := store.(*storage.MinioStorage); ok {
		if err := ms.EnsureBucket(context.Background()); err != nil {
			return nil, err
		}
	}

	return &Deps{
		DB:          db,
		Rdb:         rdb,
		Storage:     store,
		Sender:      esign.SimulatedSender{},
		ScreenDelay: 500 * time.Millisecond,
		TokenTTL:    time.Duration(cfg.TokenTTLHours) * time.Hour,
	}, nil
}

// CreateApp builds the Fiber app with global middleware and every route group.
func CreateApp(cfg *config.Config, deps *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{AllowedSuffix: cfg.CORSAllowedSuffix}))
	app.Use(middleware.RequestID())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.Authenticate(deps.Rdb))

	healthHandlers := health.NewHandlers(deps.DB, deps.Rdb)
	app.Get("/", healthHandlers.Live)
	app.Get("/health/json", healthHandlers.JSON)

	tokens := &auth.TokenStore{Rdb: deps.Rdb, TTL: deps.TokenTTL}
	authHandlers := &auth.Handlers{Finder: &auth.GormUserFinder{DB: deps.DB}, Tokens: tokens}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", authHandlers.Login)
	authGroup.Get("/me", authHandlers.Me)
	authGroup.Delete("/logout", authHandlers.Logout)

	userHandlers := users.NewHandlers(users.NewService(deps.DB))
	userGroup := app.Group("/api/v1/users", middleware.RequireAuth())
	userGroup.Post("/", middleware.AuthorizePermission(constants.ManageUsers), userHandlers.Create)
	userGroup.Get("/", middleware.AuthorizePermission(constants.ManageUsers), userHandlers.List)
	userGroup.Get("/:id", middleware.AuthorizePermission(constants.ManageUsers), userHandlers.Get)
	userGroup.Patch("/:id/role", middleware.AuthorizePermission(constants.AssignRole), userHandlers.UpdateRole)

	escrowHandlers := escrows.NewHandlers(escrows.NewService(deps.DB))
	escrowGroup := app.Group("/api/v1/escrows", middleware.RequireAuth())
	escrowGroup.Post("/", escrowHandlers.Create)
	escrowGroup.Get("/", escrowHandlers.List)
	escrowGroup.Get("/:id", escrowHandlers.Get)
	escrowGroup.Patch("/:id", escrowHandlers.Update)
	escrowGroup.Delete("/:id", escrowHandlers.Delete)

	partyHandlers := parties.NewHandlers(parties.NewService(deps.DB))
	escrowGroup.Get("/:id/parties", partyHandlers.List)
	escrowGroup.Post("/:id/parties", partyHandlers.Create)
	escrowGroup.Get("/:id/parties/:partyId", partyHandlers.Get)
	escrowGroup.Patch("/:id/parties/:partyId", partyHandlers.Update)
	escrowGroup.Delete("/:id/parties/:partyId", partyHandlers.Delete)

	brokerHandlers := brokers.NewHandlers(brokers.NewService(deps.DB))
	escrowGroup.Get("/:id/brokers", brokerHandlers.List)
	escrowGroup.Post("/:id/brokers", brokerHandlers.Invite)
	escrowGroup.Get("/:id/brokers/:brokerId", brokerHandlers.Get)
	escrowGroup.Patch("/:id/brokers/:brokerId/respond", brokerHandlers.Respond)
	escrowGroup.Delete("/:id/brokers/:brokerId", brokerHandlers.Delete)

	commissionHandlers := commission.NewHandlers(commission.NewService(deps.DB))
	escrowGroup.Get("/:id/commission-pool", commissionHandlers.Get)
	escrowGroup.Patch("/:id/commission-pool", commissionHandlers.Update)
	escrowGroup.Post("/:id/commission-pool/lock", commissionHandlers.Lock)

	runner := kyc.NewRunner(deps.DB, kyc.SimulatedScreener{Delay: deps.ScreenDelay})
	kycHandlers := kyc.NewHandlers(kyc.NewService(deps.DB, runner))
	escrowGroup.Get("/:id/kyc", kycHandlers.ListRecords)
	escrowGroup.Post("/:id/kyc", middleware.AuthorizePermission(constants.ReviewKYC), kycHandlers.CreateRecord)
	escrowGroup.Get("/:id/kyc/:recordId", kycHandlers.GetRecord)
	escrowGroup.Patch("/:id/kyc/:recordId", middleware.AuthorizePermission(constants.ReviewKYC), kycHandlers.UpdateRecord)
	escrowGroup.Delete("/:id/kyc/:recordId", middleware.AuthorizePermission(constants.ReviewKYC), kycHandlers.DeleteRecord)
	escrowGroup.Get("/:id/kyc/:recordId/aml-checks", kycHandlers.ListChecks)
	escrowGroup.Post("/:id/kyc/:recordId/aml-checks", middleware.AuthorizePermission(constants.CreateAMLCheck), kycHandlers.CreateCheck)
	escrowGroup.Post("/:id/kyc/:recordId/run-aml", middleware.AuthorizePermission(constants.CreateAMLCheck), kycHandlers.RunAML)

	docHandlers := documents.NewHandlers(documents.NewService(deps.DB, deps.Storage, deps.Sender))
	escrowGroup.Get("/:id/documents", docHandlers.List)
	escrowGroup.Post("/:id/documents", docHandlers.Create)
	escrowGroup.Get("/:id/documents/:documentId", docHandlers.Get)
	escrowGroup.Post("/:id/documents/:documentId/presign", docHandlers.Presign)
	escrowGroup.Post("/:id/documents/:documentId/mark-uploaded", docHandlers.MarkUploaded)
	escrowGroup.Post("/:id/documents/:documentId/trigger-envelope", docHandlers.TriggerEnvelope)
	escrowGroup.Delete("/:id/documents/:documentId", docHandlers.Delete)

	// Officer review route, outside the escrow scope on purpose.
	app.Patch("/api/v1/documents/:id",
		middleware.RequireAuth(),
		middleware.AuthorizePermission(constants.ReviewDocuments),
		docHandlers.Review)

	return app
}
