package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/board/config"
	"github.com/cppla/board/controllers"
	"github.com/cppla/board/docs"
	"github.com/cppla/board/middleware"
	"github.com/cppla/board/services"
	"github.com/cppla/board/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	// Access log and panics go to their own rolling file
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		utils.Sugar.Warnw("gin logger unavailable, falling back to default recovery", "path", cfg.GinPath, "err", err)
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, "ok", gin.H{"status": "ok"})
	})
	r.GET("/docs/openapi.yaml", func(ctx *gin.Context) {
		ctx.Data(http.StatusOK, "application/yaml; charset=utf-8", docs.OpenAPI)
	})

	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	postService := services.NewPostService(db)
	commentService := services.NewCommentService(db)
	reactionService := services.NewReactionService(db)
	authService := services.NewAuthService(db, utils.NewSMTPMailer(cfg), time.Duration(cfg.JWTExpireMinutes)*time.Minute)

	authController := controllers.NewAuthController(authService)
	userController := controllers.NewUserController(userService, postService)
	categoryController := controllers.NewCategoryController(categoryService)
	postController := controllers.NewPostController(postService)
	commentController := controllers.NewCommentController(commentService)
	likeController := controllers.NewLikeController(reactionService)

	// One bucket set shared by every credential-facing endpoint
	limited := middleware.RateLimitMiddleware(cfg.RateLimitPerMinute)
	authRequired := middleware.AuthRequired()

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.POST("/login", limited, authController.Login)
	authGroup.POST("/find-id", limited, authController.FindID)
	authGroup.POST("/find-password", limited, authController.FindPassword)
	authGroup.GET("/me", authRequired, authController.Me)
	authGroup.POST("/logout", authRequired, authController.Logout)

	usersGroup := api.Group("/users")
	usersGroup.POST("", limited, userController.SignUp)
	usersGroup.GET("/check-email", userController.CheckEmail)
	usersGroup.GET("/me", authRequired, userController.Me)
	usersGroup.PATCH("", authRequired, userController.Update)
	usersGroup.DELETE("", authRequired, userController.Delete)
	usersGroup.GET("/:id/posts", userController.ListPosts)

	categoriesGroup := api.Group("/categories")
	categoriesGroup.GET("", categoryController.List)
	categoriesGroup.GET("/:id", categoryController.Get)
	categoriesGroup.GET("/:id/posts", categoryController.Posts)
	adminOnly := []gin.HandlerFunc{authRequired, middleware.AdminRequired(db)}
	categoriesGroup.POST("", append(adminOnly, categoryController.Create)...)
	categoriesGroup.PATCH("/:id", append(adminOnly, categoryController.Update)...)
	categoriesGroup.DELETE("/:id", append(adminOnly, categoryController.Delete)...)

	postsGroup := api.Group("/posts")
	postsGroup.GET("", postController.ListPosts)
	postsGroup.GET("/:id", middleware.PostViewRecorder(postService), postController.GetPost)
	postsGroup.POST("", authRequired, postController.CreatePost)
	postsGroup.PATCH("/:id", authRequired, postController.UpdatePost)
	postsGroup.DELETE("/:id", authRequired, postController.DeletePost)

	commentsGroup := api.Group("/comments")
	commentsGroup.GET("", commentController.List)
	commentsGroup.GET("/:id", middleware.OptionalAuth(), commentController.Get)
	commentsGroup.POST("", authRequired, commentController.Create)
	commentsGroup.PATCH("/:id", authRequired, commentController.Update)
	commentsGroup.DELETE("/:id", authRequired, commentController.Delete)

	likeGroup := api.Group("/like", authRequired)
	likeGroup.POST("/post/:postId", likeController.LikePost)
	likeGroup.POST("/comment/:commentId", likeController.LikeComment)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
	})

	return r
}
