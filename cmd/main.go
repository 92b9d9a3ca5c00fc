package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"matbook-backend/config"
	"matbook-backend/internal/api/comment"
	"matbook-backend/internal/api/notification"
	"matbook-backend/internal/api/post"
	"matbook-backend/internal/api/user"
	"matbook-backend/internal/cache"
	apperrors "matbook-backend/internal/errors"
	"matbook-backend/internal/middleware"
	"matbook-backend/internal/repository/mysql"
	"matbook-backend/internal/service"
	"matbook-backend/internal/storage"
	"matbook-backend/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			util.Logger.Error("程序发生严重错误", zap.Any("error", r))
		}
	}()

	// 初始化配置
	config.Init()

	// 初始化日志
	util.InitLogger(config.AppConfig.LogLevel)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动")

	// 设置数据库连接字符串
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		config.AppConfig.DBUser,
		config.AppConfig.DBPassword,
		config.AppConfig.DBHost,
		config.AppConfig.DBPort,
		config.AppConfig.DBName)

	// 连接数据库
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		util.Logger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer db.Close()

	// 测试数据库连接
	err = db.Ping()
	if err != nil {
		util.Logger.Fatal("数据库连接测试失败", zap.Error(err))
	}
	util.Logger.Info("数据库连接成功")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	util.Logger.Info("数据库连接池配置完成")

	// 注册自定义验证器
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("not_blank", util.ValidateNotBlank)
		v.RegisterValidation("max_content", util.ValidateContentLength)
	}

	// 初始化计数缓存，未配置 Redis 时直接走数据库
	var countCache *cache.CountCache
	if config.AppConfig.RedisAddr != "" {
		countCache, err = cache.NewCountCache(
			config.AppConfig.RedisAddr,
			config.AppConfig.RedisPassword,
			config.AppConfig.RedisDB,
			time.Duration(config.AppConfig.CountCacheTTL)*time.Second,
		)
		if err != nil {
			util.Logger.Error("连接 Redis 失败，计数缓存已禁用", zap.Error(err))
			countCache = nil
		} else {
			util.Logger.Info("计数缓存已启用", zap.String("addr", config.AppConfig.RedisAddr))
		}
	}

	// 按配置选择存储后端
	uploader := initStorage()

	// 初始化存储库、服务和处理器
	userRepo := mysql.NewUserRepository(db)
	feedRepo := mysql.NewFeedRepository(db)
	notifRepo := mysql.NewNotificationRepository(db)

	userService := service.NewUserService(userRepo)
	interactionService := service.NewInteractionService(userRepo, feedRepo, notifRepo, countCache)
	feedService := service.NewFeedService(feedRepo, userRepo, notifRepo, interactionService)
	notificationService := service.NewNotificationService(notifRepo)

	postHandler := post.NewPostHandler(feedService, interactionService, uploader)
	commentHandler := comment.NewCommentHandler(feedService)
	userHandler := user.NewUserHandler(userService, feedService, interactionService, uploader)
	notificationHandler := notification.NewNotificationHandler(notificationService, interactionService)

	// 初始化错误监控
	analytics := apperrors.NewErrorAnalytics()
	errorMonitor := middleware.NewErrorMonitor(analytics)

	// 设置 Gin 路由
	r := gin.Default()

	// 添加中间件
	r.Use(middleware.RecoveryMiddleware(analytics))
	r.Use(middleware.ErrorMonitorMiddleware(errorMonitor))

	// 配置 CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{config.AppConfig.FrontendURL}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length",
		"Content-Type",
		"Access-Control-Allow-Origin",
	}

	r.Use(cors.New(corsConfig))

	// 本地存储时需要静态文件服务及其 CORS 头
	if config.AppConfig.StorageBackend == "local" {
		r.Use(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/uploads/") {
				c.Header("Access-Control-Allow-Origin", config.AppConfig.FrontendURL)
				c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Origin, Content-Type")

				if c.Request.Method == "OPTIONS" {
					c.AbortWithStatus(200)
					return
				}
			}
			c.Next()
		})
		r.Static("/uploads", config.AppConfig.LocalStoragePath)
	}

	// 定义 API 路由
	api := r.Group("/api")
	{
		// 帖子相关路由（读接口允许匿名访问，观察者视角为空）
		api.GET("/posts", middleware.OptionalAuthMiddleware(), postHandler.ListPosts)
		api.GET("/posts/:id", middleware.OptionalAuthMiddleware(), postHandler.GetPost)
		api.POST("/posts", middleware.AuthMiddleware(), postHandler.CreatePost)
		api.DELETE("/posts/:id", middleware.AuthMiddleware(), postHandler.DeletePost)
		api.GET("/posts/following", middleware.AuthMiddleware(), postHandler.ListFollowingPosts)
		api.GET("/posts/bookmarked", middleware.AuthMiddleware(), postHandler.ListBookmarkedPosts)
		api.GET("/users/:id/posts", middleware.OptionalAuthMiddleware(), postHandler.ListUserPosts)

		// 点赞与收藏
		api.POST("/posts/:id/likes", middleware.AuthMiddleware(), postHandler.LikePost)
		api.DELETE("/posts/:id/likes", middleware.AuthMiddleware(), postHandler.UnlikePost)
		api.GET("/posts/:id/likes", middleware.OptionalAuthMiddleware(), postHandler.GetLikeInfo)
		api.POST("/posts/:id/bookmark", middleware.AuthMiddleware(), postHandler.BookmarkPost)
		api.DELETE("/posts/:id/bookmark", middleware.AuthMiddleware(), postHandler.UnbookmarkPost)

		// 评论与回复
		api.GET("/posts/:id/comments", middleware.OptionalAuthMiddleware(), commentHandler.ListComments)
		api.POST("/posts/:id/comments", middleware.AuthMiddleware(), commentHandler.CreateComment)
		api.DELETE("/comments/:id", middleware.AuthMiddleware(), commentHandler.DeleteComment)
		api.GET("/comments/:id/replies", middleware.OptionalAuthMiddleware(), commentHandler.ListReplies)
		api.POST("/comments/:id/reply", middleware.AuthMiddleware(), commentHandler.CreateReply)
		api.DELETE("/replies/:id", middleware.AuthMiddleware(), commentHandler.DeleteReply)
		api.POST("/comments/:id/likes", middleware.AuthMiddleware(), commentHandler.LikeComment)
		api.DELETE("/comments/:id/likes", middleware.AuthMiddleware(), commentHandler.UnlikeComment)

		// 用户与关注
		api.GET("/users/username/:username", middleware.OptionalAuthMiddleware(), userHandler.GetUser)
		api.POST("/users/:id/follow", middleware.AuthMiddleware(), userHandler.FollowUser)
		api.DELETE("/users/:id/follow", middleware.AuthMiddleware(), userHandler.UnfollowUser)
		api.GET("/users/:id/followers", middleware.OptionalAuthMiddleware(), userHandler.GetFollowerInfo)
		api.GET("/users/:id/follow/status", middleware.AuthMiddleware(), userHandler.GetFollowStatus)
		api.PUT("/profile", middleware.AuthMiddleware(), userHandler.UpdateProfile)
		api.POST("/profile/avatar", middleware.AuthMiddleware(), userHandler.UploadAvatar)

		// 通知
		api.GET("/notifications", middleware.AuthMiddleware(), notificationHandler.List)
		api.GET("/notifications/unread-count", middleware.AuthMiddleware(), notificationHandler.GetUnreadCount)
		api.PATCH("/notifications/mark-as-read", middleware.AuthMiddleware(), notificationHandler.MarkAllRead)
	}

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	// 在一个新的 goroutine 中启动服务器
	go func() {
		util.Logger.Info("服务器正在启动，监听端口 :8080")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Logger.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	util.Logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		util.Logger.Fatal("服务器强制关闭", zap.Error(err))
	}

	util.Logger.Info("服务器已优雅关闭")
}

// initStorage 按配置选择存储后端
func initStorage() storage.Uploader {
	switch config.AppConfig.StorageBackend {
	case "s3":
		client, err := storage.NewS3Client(config.AppConfig.S3Region, config.AppConfig.S3Bucket)
		if err != nil {
			util.Logger.Fatal("初始化 S3 存储失败", zap.Error(err))
		}
		util.Logger.Info("使用 S3 存储", zap.String("bucket", config.AppConfig.S3Bucket))
		return client
	case "gcs":
		client, err := storage.NewGCSClient(config.AppConfig.GCSBucketName, config.AppConfig.GCSCredentialsFile)
		if err != nil {
			util.Logger.Fatal("初始化 GCS 存储失败", zap.Error(err))
		}
		util.Logger.Info("使用 GCS 存储", zap.String("bucket", config.AppConfig.GCSBucketName))
		return client
	default:
		if err := os.MkdirAll(config.AppConfig.LocalStoragePath, 0755); err != nil {
			util.Logger.Fatal("创建上传文件夹失败", zap.Error(err))
		}
		local, err := storage.NewLocalStorage(config.AppConfig.LocalStoragePath)
		if err != nil {
			util.Logger.Fatal("初始化本地存储失败", zap.Error(err))
		}
		util.Logger.Info("使用本地存储", zap.String("path", config.AppConfig.LocalStoragePath))
		return local
	}
}
