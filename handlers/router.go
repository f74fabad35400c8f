package handlers

import (
	"net/http"
	"strings"

	"novabyte-blog/helper"
	"novabyte-blog/middleware"
	"novabyte-blog/storage"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type RouterConfig struct {
	JWTSecret          []byte
	CORSOrigins        []string
	RateLimitPerMinute int
}

type Router struct {
	Config  RouterConfig
	Logger  zerolog.Logger
	DB      *gorm.DB
	Redis   *redis.Client
	Storage storage.Storage
	Helper  *helper.HTTPHelper

	Posts  *PostHandler
	Auth   *AuthHandler
	Images *ImageHandler
}

// Handler builds the gin engine and wraps it with CORS and gzip.
func (rt *Router) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(rt.Logger))
	router.Use(middleware.Metrics())

	// Health check
	router.GET("/health", rt.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if local, ok := rt.Storage.(*storage.LocalStorage); ok && strings.HasPrefix(local.URLPrefix(), "/") {
		router.Static(local.URLPrefix(), local.Dir())
	}

	authenticated := middleware.AuthMiddleware(rt.Helper, rt.Config.JWTSecret)
	optional := middleware.OptionalAuth(rt.Helper, rt.Config.JWTSecret)
	adminOnly := middleware.RequireAdmin(rt.Helper)
	limited := middleware.RateLimit(rt.Helper, rt.Redis, rt.Config.RateLimitPerMinute)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", limited, rt.Auth.SignUp)
			auth.POST("/login", limited, rt.Auth.LogIn)
			auth.POST("/refresh", limited, rt.Auth.Refresh)
			auth.POST("/logout", authenticated, rt.Auth.LogOut)
		}

		persons := v1.Group("/persons", authenticated)
		{
			persons.GET("/me", rt.Auth.GetProfile)
			persons.GET("", adminOnly, rt.Auth.GetPersons)
			persons.GET("/:id", adminOnly, rt.Auth.GetPerson)
		}

		posts := v1.Group("/posts")
		{
			// Public reads
			posts.GET("", rt.Posts.GetPosts)
			posts.GET("/published", rt.Posts.GetPublishedPosts)
			posts.GET("/random", rt.Posts.GetRandomPost)
			posts.GET("/drafts/:id", optional, rt.Posts.GetDraft)
			posts.GET("/:id/published", rt.Posts.GetPublishedDraft)

			// Authoring
			posts.POST("/drafts", authenticated, rt.Posts.CreateDraft)
			posts.GET("/drafts", authenticated, rt.Posts.GetCurrentDrafts)
			posts.GET("/:id/drafts", authenticated, rt.Posts.GetPostDrafts)
			posts.GET("/:id/current", authenticated, rt.Posts.GetCurrentDraft)
			posts.POST("/drafts/:id/publish", authenticated, rt.Posts.PublishDraft)
			posts.DELETE("/drafts/:id/publish", authenticated, rt.Posts.UnpublishDraft)
		}

		v1.POST("/images", authenticated, rt.Images.Upload)
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   rt.Config.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	return gzhttp.GzipHandler(corsHandler.Handler(router))
}

func (rt *Router) health(c *gin.Context) {
	status := gin.H{"status": "healthy", "database": "up"}
	code := http.StatusOK

	if sqlDB, err := rt.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status["status"] = "degraded"
		status["database"] = "down"
		code = http.StatusServiceUnavailable
	}
	if rt.Redis != nil {
		status["redis"] = "up"
		if err := rt.Redis.Ping(c.Request.Context()).Err(); err != nil {
			status["redis"] = "down"
		}
	}

	c.JSON(code, status)
}
