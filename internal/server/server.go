package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"driftline.app/backend/internal/config"
	"driftline.app/backend/internal/middleware"
	"driftline.app/backend/pkg/storage"

	feedHttp "driftline.app/backend/internal/modules/feed/delivery/http"
	feedService "driftline.app/backend/internal/modules/feed/service"

	mediaHttp "driftline.app/backend/internal/modules/media/delivery/http"
	mediaRepo "driftline.app/backend/internal/modules/media/repository"
	mediaService "driftline.app/backend/internal/modules/media/service"

	notifHttp "driftline.app/backend/internal/modules/notification/delivery/http"
	notifRepo "driftline.app/backend/internal/modules/notification/repository"
	notifService "driftline.app/backend/internal/modules/notification/service"

	pollRepo "driftline.app/backend/internal/modules/poll/repository"
	pollService "driftline.app/backend/internal/modules/poll/service"

	postHttp "driftline.app/backend/internal/modules/post/delivery/http"
	postRepo "driftline.app/backend/internal/modules/post/repository"
	postService "driftline.app/backend/internal/modules/post/service"

	reactionHttp "driftline.app/backend/internal/modules/reaction/delivery/http"
	reactionRepo "driftline.app/backend/internal/modules/reaction/repository"
	reactionService "driftline.app/backend/internal/modules/reaction/service"

	searchHttp "driftline.app/backend/internal/modules/search/delivery/http"
	searchService "driftline.app/backend/internal/modules/search/service"

	threadHttp "driftline.app/backend/internal/modules/thread/delivery/http"
	threadRepo "driftline.app/backend/internal/modules/thread/repository"
	threadService "driftline.app/backend/internal/modules/thread/service"

	profileHttp "driftline.app/backend/internal/modules/profile/delivery/http"
	profileService "driftline.app/backend/internal/modules/profile/service"

	userHttp "driftline.app/backend/internal/modules/user/delivery/http"
	userRepo "driftline.app/backend/internal/modules/user/repository"
	userService "driftline.app/backend/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	mediaStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Fatalf("failed to initialize cloudinary storage: %v", err)
	}

	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	searchSvc := searchService.NewSearchService(meiliClient)
	searchHandler := searchHttp.NewSearchHandler(searchSvc)

	userRepository := userRepo.NewUserRepository(db)
	authSvc := userService.NewAuthService(userRepository, searchSvc, cfg.JWTSecret, time.Duration(cfg.JWTTTLMinutes)*time.Minute)
	authHandler := userHttp.NewAuthHandler(authSvc)

	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)

	profileSvc := profileService.NewProfileService(userRepository, mediaStorage, searchSvc, notificationSvc)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	mediaRepository := mediaRepo.NewMediaRepository(db)
	mediaSvc := mediaService.NewMediaService(mediaRepository, mediaStorage)
	mediaHandler := mediaHttp.NewMediaHandler(mediaSvc)

	postRepository := postRepo.NewPostRepository(db)
	threadRepository := threadRepo.NewThreadRepository(db)
	pollRepository := pollRepo.NewPollRepository(db)

	reactionRepository := reactionRepo.NewReactionRepository(db)
	reactionSvc := reactionService.NewReactionService(reactionRepository, postRepository, redisClient, notificationSvc)
	reactionHandler := reactionHttp.NewReactionHandler(reactionSvc)

	pollSvc := pollService.NewPollService(pollRepository, redisClient, cfg.RateLimitVote)

	assembler := feedService.NewAssembler(reactionSvc, threadRepository, pollRepository)
	threadSvc := threadService.NewThreadService(threadRepository, assembler)
	threadHandler := threadHttp.NewThreadHandler(threadSvc)

	postSvc := postService.NewPostService(
		postRepository, threadRepository, assembler, pollSvc, mediaSvc,
		searchSvc, notificationSvc, redisClient, cfg.RateLimitPost,
	)
	postHandler := postHttp.NewPostHandler(postSvc)

	feedSvc := feedService.NewFeedService(postRepository, assembler)
	sessions := feedService.NewSessionManager(feedSvc, reactionSvc, postSvc, pollSvc)
	feedHandler := feedHttp.NewFeedHandler(feedSvc, sessions)

	allowedOrigins := splitOrigins(cfg.AllowedOrigins)
	notificationHandler := notifHttp.NewNotificationHandler(notificationSvc, redisClient, originChecker(allowedOrigins))

	// Orphan media cleanup, every 12 hours.
	go func() {
		ticker := time.NewTicker(12 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := mediaSvc.CleanupOrphans(context.Background()); err != nil {
				log.Printf("orphan media cleanup failed: %v", err)
			}
		}
	}()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	setupCORS(router, allowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Read surface: anonymous allowed, viewer state attached when a
	// token is present.
	public := api.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("/feed", feedHandler.GetFeed)
		public.GET("/posts/:id", postHandler.GetPostDetail)
		public.GET("/posts/:id/reactions", reactionHandler.GetCounts)
		public.GET("/threads/:id", threadHandler.GetStack)
		public.GET("/search/posts", searchHandler.SearchPosts)
		public.GET("/profiles/:username", profileHandler.GetProfile)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/posts", postHandler.CreatePosts)
		protected.PUT("/posts/:id", postHandler.UpdatePost)
		protected.DELETE("/posts/:id", postHandler.DeletePost)

		protected.POST("/feed/posts/:id/like", feedHandler.ToggleLike)
		protected.POST("/feed/posts/:id/dislike", feedHandler.ToggleDislike)
		protected.DELETE("/feed/posts/:id", feedHandler.DeletePost)
		protected.POST("/polls/:id/vote", feedHandler.CastVote)

		protected.POST("/media", mediaHandler.Upload)

		protected.GET("/profile/me", profileHandler.GetMyProfile)
		protected.PUT("/profile", profileHandler.UpdateProfile)
		protected.POST("/profile/avatar", profileHandler.UploadAvatar)
		protected.POST("/profile/cover", profileHandler.UploadCover)
		protected.POST("/profiles/:username/follow", profileHandler.Follow)
		protected.DELETE("/profiles/:username/follow", profileHandler.Unfollow)

		protected.GET("/search/token", searchHandler.GetSearchToken)

		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func splitOrigins(allowedOrigins string) []string {
	if allowedOrigins == "" {
		return []string{"http://localhost:3000"}
	}
	return strings.Split(allowedOrigins, ",")
}

func setupCORS(router *gin.Engine, origins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}

func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range origins {
			if strings.EqualFold(strings.TrimSpace(allowed), origin) {
				return true
			}
		}
		return false
	}
}
