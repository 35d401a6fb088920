package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/blog-api/api/swagger"
	"github.com/noah-isme/blog-api/internal/handler"
	"github.com/noah-isme/blog-api/internal/middleware"
	"github.com/noah-isme/blog-api/internal/models"
	"github.com/noah-isme/blog-api/internal/repository"
	"github.com/noah-isme/blog-api/internal/service"
	"github.com/noah-isme/blog-api/pkg/cache"
	"github.com/noah-isme/blog-api/pkg/config"
	"github.com/noah-isme/blog-api/pkg/database"
	"github.com/noah-isme/blog-api/pkg/jobs"
	"github.com/noah-isme/blog-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/blog-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/blog-api/pkg/middleware/requestid"
	"github.com/noah-isme/blog-api/pkg/storage"
)

// @title Blog API
// @version 1.0.0
// @description REST backend for the blogging platform
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init uploads storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	cleanup := service.NewBannerCleanup(store, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})
	cleanup.Start(context.Background())
	defer cleanup.Stop()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(redisClient, cfg.JWT.RefreshExpiry)
	blogRepo := repository.NewBlogRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	tokenSvc := service.NewTokenService(cfg.JWT)
	authSvc := service.NewAuthService(userRepo, tokenRepo, tokenSvc, validate, logr, cfg.Admin.WhitelistEmails)
	userSvc := service.NewUserService(userRepo, blogRepo, cleanup, validate, logr)
	blogSvc := service.NewBlogService(blogRepo, store, signer, cleanup, validate, logr, cfg.Uploads, cfg.APIPrefix+"/banners")
	commentSvc := service.NewCommentService(commentRepo, blogRepo, validate, logr)
	likeSvc := service.NewLikeService(likeRepo, blogRepo, logr)
	exportSvc := service.NewExportService(blogRepo, logr)
	metricsSvc := service.NewMetricsService()

	authHandler := handler.NewAuthHandler(authSvc, cfg)
	userHandler := handler.NewUserHandler(userSvc, cfg.Listing)
	blogHandler := handler.NewBlogHandler(blogSvc, exportSvc, cfg.Listing)
	commentHandler := handler.NewCommentHandler(commentSvc)
	likeHandler := handler.NewLikeHandler(likeSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authed := middleware.Authenticate(tokenSvc)
	anyRole := middleware.RequireRole(userRepo, models.RoleUser, models.RoleAdmin)
	adminOnly := middleware.RequireRole(userRepo, models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh-token", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
		}

		users := api.Group("/users", authed)
		{
			users.GET("/current", anyRole, userHandler.GetCurrent)
			users.PUT("/current", anyRole, userHandler.UpdateCurrent)
			users.DELETE("/current", anyRole, userHandler.DeleteCurrent)
			users.GET("", adminOnly, userHandler.List)
			users.GET("/:userId", adminOnly, userHandler.Get)
			users.DELETE("/:userId", adminOnly, userHandler.Delete)
		}

		blogs := api.Group("/blogs", authed)
		{
			blogs.POST("", adminOnly, blogHandler.Create)
			blogs.GET("", adminOnly, blogHandler.List)
			blogs.GET("/user/:userId", adminOnly, blogHandler.ListByUser)
			blogs.GET("/export", adminOnly, blogHandler.Export)
			blogs.GET("/:slug", anyRole, blogHandler.GetBySlug)
			blogs.PUT("/:blogId", adminOnly, blogHandler.Update)
			blogs.DELETE("/:blogId", adminOnly, blogHandler.Delete)
		}

		comments := api.Group("/comments", authed)
		{
			comments.POST("/blog/:blogId", anyRole, commentHandler.Create)
			comments.GET("/blog/:blogId", anyRole, commentHandler.ListByBlog)
			comments.DELETE("/:commentId", anyRole, commentHandler.Delete)
		}

		likes := api.Group("/likes", authed)
		{
			likes.POST("/blog/:blogId", anyRole, likeHandler.Like)
			likes.DELETE("/blog/:blogId", anyRole, likeHandler.Unlike)
		}

		// Banner links carry their own HMAC signature, no session required.
		api.GET("/banners/:token", blogHandler.DownloadBanner)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
