package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/basit/forumfiles-backend/internal/config"
	"github.com/basit/forumfiles-backend/internal/email"
	"github.com/basit/forumfiles-backend/internal/handlers"
	"github.com/basit/forumfiles-backend/internal/jobs"
	"github.com/basit/forumfiles-backend/internal/logger"
	"github.com/basit/forumfiles-backend/internal/middleware"
	"github.com/basit/forumfiles-backend/internal/models"
	"github.com/basit/forumfiles-backend/internal/oauth"
	"github.com/basit/forumfiles-backend/internal/repositories"
	"github.com/basit/forumfiles-backend/internal/services"
	"github.com/basit/forumfiles-backend/internal/storage"
	"github.com/basit/forumfiles-backend/internal/upload"
)

// App owns the HTTP engine, the database handle and the background
// reconciler.
type App struct {
	cfg        *config.Config
	db         *gorm.DB
	engine     *gin.Engine
	reconciler *jobs.Reconciler
}

func New(cfg *config.Config) (*App, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	store, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	var mailer email.Provider
	if cfg.Email.SMTPHost != "" {
		mailer = email.NewSMTPProvider(cfg)
	} else {
		mailer = &email.LogProvider{Log: logger.Warn}
	}

	users := repositories.NewUserRepository(db)
	files := repositories.NewFileRepository(db)
	links := repositories.NewLinkRepository(db)
	codes := repositories.NewVerificationCodeRepository(db)
	shares := repositories.NewFileShareRepository(db)

	validator := upload.NewValidator(cfg.Upload.MaxSize, cfg.Upload.AllowedTypes)

	authSvc := services.NewAuthService(users, codes, mailer, cfg)
	fileSvc := services.NewFileService(files, store, validator)
	linkSvc := services.NewLinkService(links, files, store)
	adminSvc := services.NewAdminService(users, files, shares, store, mailer, cfg)

	a := &App{
		cfg:        cfg,
		db:         db,
		reconciler: jobs.NewReconciler(links, files, codes, store),
	}
	a.engine = buildRouter(cfg, authSvc, fileSvc, linkSvc, adminSvc)
	return a, nil
}

// Run blocks serving HTTP until the server fails; the reconciler is stopped
// when ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.reconciler.Start(ctx)
	logger.Info("server listening", "port", a.cfg.Server.Port, "env", a.cfg.Server.Env)
	return a.engine.Run(":" + a.cfg.Server.Port)
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("DB_URL is not set")
	}

	// TranslateError lets repositories match gorm.ErrDuplicatedKey instead
	// of driver-specific error codes.
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.File{},
		&models.PublicLink{},
		&models.VerificationCode{},
		&models.FileShare{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func buildRouter(
	cfg *config.Config,
	authSvc services.AuthService,
	fileSvc services.FileService,
	linkSvc services.LinkService,
	adminSvc services.AdminService,
) *gin.Engine {
	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.NewRateLimiter(cfg.RateLimit.GeneralPerMinute).Middleware())

	authLimiter := middleware.NewRateLimiter(cfg.RateLimit.AuthPerMinute)
	redeemLimiter := middleware.NewRateLimiter(cfg.RateLimit.RedeemPerMinute)
	authRequired := middleware.AuthMiddleware(cfg.JWT.Secret)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	authPublic := api.Group("/auth", authLimiter.Middleware())
	authProtected := api.Group("/auth", authRequired)
	handlers.NewAuthHandler(authSvc).RegisterRoutes(authPublic, authProtected)

	oauth.NewHandler(authSvc, cfg).RegisterRoutes(api.Group("/auth"))

	filesPublic := api.Group("/files")
	filesProtected := api.Group("/files", authRequired)
	handlers.NewFileHandler(fileSvc, cfg.Upload.MaxSize).
		RegisterRoutes(filesPublic, filesProtected)

	admin := api.Group("/admin", authRequired, middleware.AdminMiddleware())
	handlers.NewAdminHandler(adminSvc, fileSvc, linkSvc, cfg.FrontendURL, cfg.Upload.MaxSize).
		RegisterRoutes(admin)

	public := api.Group("/public", redeemLimiter.Middleware())
	handlers.NewPublicHandler(linkSvc, cfg.FrontendURL).RegisterRoutes(public)

	return router
}
