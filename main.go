package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"novabyte-blog/config"
	"novabyte-blog/handlers"
	"novabyte-blog/helper"
	"novabyte-blog/logger"
	"novabyte-blog/repositories"
	"novabyte-blog/services"
	"novabyte-blog/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stderrLog := zerolog.New(os.Stderr)
		stderrLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.LogLevel, cfg.Env)
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := config.InitDB(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	if cfg.Database.AutoMigrate {
		if err := config.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get database pool")
	}
	defer sqlDB.Close()
	prometheus.MustRegister(collectors.NewDBStatsCollector(sqlDB, cfg.Database.Driver))

	redisClient, err := config.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, visit counts and rate limiting disabled")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	store, err := storage.New(storage.Config{
		Driver:    cfg.Storage.Driver,
		UploadDir: cfg.Storage.UploadDir,
		URLPrefix: cfg.Storage.URLPrefix,
		S3: storage.S3Config{
			Endpoint:        cfg.Storage.S3Endpoint,
			Region:          cfg.Storage.S3Region,
			AccessKeyID:     cfg.Storage.S3AccessKeyID,
			SecretAccessKey: cfg.Storage.S3SecretKey,
			Bucket:          cfg.Storage.S3Bucket,
			PublicURL:       cfg.Storage.S3PublicURL,
			ForcePathStyle:  cfg.Storage.S3ForcePathStyle,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Initialize repositories
	clock := repositories.SystemClock
	uow := repositories.NewUnitOfWork(db)
	metaRepo := repositories.NewMetaRepository(db, clock)
	postRepo := repositories.NewPostRepository(db, uow, metaRepo)
	draftRepo := repositories.NewDraftRepository(db, clock)
	personRepo := repositories.NewPersonRepository(db, uow, metaRepo)
	tokenRepo := repositories.NewTokenRepository(db, uow, metaRepo)
	visitRepo := repositories.NewVisitRepository(redisClient)

	// Initialize services
	postService := services.NewPostService(uow, postRepo, draftRepo, visitRepo)
	authService := services.NewAuthService(services.AuthConfig{
		Secret:      cfg.JWT.SecretBytes(),
		AccessTTL:   cfg.JWT.Expiration,
		RefreshTTL:  cfg.JWT.RefreshExpiration,
		SystemActor: cfg.SystemActor,
		AdminEmails: cfg.AdminEmails,
	}, uow, personRepo, tokenRepo, clock)
	imageService := services.NewImageService(store)

	// Initialize handlers
	h := helper.NewHTTPHelper()
	router := &handlers.Router{
		Config: handlers.RouterConfig{
			JWTSecret:          cfg.JWT.SecretBytes(),
			CORSOrigins:        cfg.CORSOrigins,
			RateLimitPerMinute: cfg.RateLimitPerMinute,
		},
		Logger:  log,
		DB:      db,
		Redis:   redisClient,
		Storage: store,
		Helper:  h,
		Posts:   handlers.NewPostHandler(postService, h),
		Auth:    handlers.NewAuthHandler(authService, h),
		Images:  handlers.NewImageHandler(imageService, h),
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}
