package server

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"lintas.id/aidesk/internal/config"
	"lintas.id/aidesk/internal/middleware"
	"lintas.id/aidesk/internal/realtime"
	"lintas.id/aidesk/pkg/ratelimiter"
	"lintas.id/aidesk/pkg/storage"

	adminHttp "lintas.id/aidesk/internal/modules/admin/delivery/http"
	adminService "lintas.id/aidesk/internal/modules/admin/service"

	botHttp "lintas.id/aidesk/internal/modules/bot/delivery/http"
	botRepo "lintas.id/aidesk/internal/modules/bot/repository"
	botService "lintas.id/aidesk/internal/modules/bot/service"

	chatHttp "lintas.id/aidesk/internal/modules/chat/delivery/http"
	"lintas.id/aidesk/internal/modules/chat/provider"
	chatRepo "lintas.id/aidesk/internal/modules/chat/repository"
	chatService "lintas.id/aidesk/internal/modules/chat/service"

	knowledgeHttp "lintas.id/aidesk/internal/modules/knowledge/delivery/http"
	knowledgeRepo "lintas.id/aidesk/internal/modules/knowledge/repository"
	knowledgeService "lintas.id/aidesk/internal/modules/knowledge/service"

	"lintas.id/aidesk/internal/modules/notification/mailer"
	"lintas.id/aidesk/internal/modules/notification/scheduler"
	notifService "lintas.id/aidesk/internal/modules/notification/service"

	searchHttp "lintas.id/aidesk/internal/modules/search/delivery/http"
	searchService "lintas.id/aidesk/internal/modules/search/service"

	ticketHttp "lintas.id/aidesk/internal/modules/ticket/delivery/http"
	ticketRepo "lintas.id/aidesk/internal/modules/ticket/repository"
	ticketService "lintas.id/aidesk/internal/modules/ticket/service"

	userHttp "lintas.id/aidesk/internal/modules/user/delivery/http"
	userRepo "lintas.id/aidesk/internal/modules/user/repository"
	userService "lintas.id/aidesk/internal/modules/user/service"

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
	digest      *scheduler.Scheduler
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	users := userRepo.NewUserRepository(db)

	imageStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Fatalf("failed to initialize cloudinary storage: %v", err)
	}

	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	searchSvc := searchService.NewSearchService(meiliClient)
	searchHandler := searchHttp.NewSearchHandler(searchSvc, users)

	authSvc := userService.NewAuthService(users, imageStorage)
	authHandler := userHttp.NewAuthHandler(authSvc)

	tickets := ticketRepo.NewTicketRepository(db)

	mail := mailer.NewResendMailer(cfg.MailFrom, "")
	notifier := notifService.NewNotifier(mail, tickets, cfg.AdminEmail)
	digest := scheduler.NewScheduler(notifier, cfg.DigestCronSpec)

	publisher := realtime.NewRedisPublisher(redisClient)
	wsHandler := realtime.NewHandler(redisClient, users)

	ticketLimiter := ratelimiter.New(redisClient, cfg.TicketRateLimit, cfg.RateLimitWindow)
	ticketSvc := ticketService.NewTicketService(tickets, users, notifier, publisher, ticketLimiter, searchSvc)
	ticketHandler := ticketHttp.NewTicketHandler(ticketSvc)

	botConfigs := botRepo.NewBotConfigRepository(db)
	botSvc := botService.NewBotService(botConfigs)
	botHandler := botHttp.NewBotConfigHandler(botSvc)

	providers := buildProviders()
	chatLimiter := ratelimiter.New(redisClient, cfg.ChatRateLimit, cfg.RateLimitWindow)
	conversations := chatRepo.NewConversationRepository(db)
	chatSvc := chatService.NewChatService(conversations, botConfigs, providers, chatLimiter, cfg.ChatTimeout)
	chatHandler := chatHttp.NewChatHandler(chatSvc)

	articles := knowledgeRepo.NewArticleRepository(db)
	knowledgeSvc := knowledgeService.NewKnowledgeService(articles, searchSvc)
	knowledgeHandler := knowledgeHttp.NewKnowledgeHandler(knowledgeSvc)

	adminSvc := adminService.NewAdminService(users, tickets)
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	router := gin.New()

	setupCORS(router, cfg)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(users)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/google/login", authHandler.GoogleLogin)
		auth.GET("/google/callback", authHandler.GoogleCallback)
	}

	api.GET("/knowledge", knowledgeHandler.ListPublished)
	api.GET("/knowledge/:slug", knowledgeHandler.GetBySlug)

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.GET("/support", ticketHandler.ListInbox)
			adminGroup.GET("/stats", adminHandler.Stats)

			adminGroup.GET("/knowledge", knowledgeHandler.ListAll)
			adminGroup.POST("/knowledge", knowledgeHandler.Create)
			adminGroup.PUT("/knowledge/:id", knowledgeHandler.Update)
			adminGroup.DELETE("/knowledge/:id", knowledgeHandler.Delete)
			adminGroup.POST("/knowledge/import", knowledgeHandler.Import)

			adminGroup.GET("/bot-config", botHandler.GetConfig)
			adminGroup.PUT("/bot-config", botHandler.UpdateConfig)

			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.PUT("/users/:id/role", adminHandler.UpdateUserRole)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
		}

		protected.GET("/profile/me", authHandler.GetCurrentProfile)
		protected.PUT("/profile", authHandler.UpdateProfile)

		// Support ticket routes
		protected.POST("/support", ticketHandler.CreateTicket)
		protected.GET("/support", ticketHandler.ListMyTickets)
		protected.GET("/support/:id", ticketHandler.GetTicket)
		protected.POST("/support/:id", ticketHandler.AddReply)
		protected.PATCH("/support/:id/status", ticketHandler.UpdateStatus)
		protected.POST("/support/:id/rating", ticketHandler.RateTicket)
		protected.POST("/support/:id/notify", ticketHandler.ResendNotification)
		protected.DELETE("/support/:id", ticketHandler.DeleteTicket)

		// AI chat routes
		protected.POST("/chat", chatHandler.Chat)
		protected.GET("/chat/:id", chatHandler.GetConversation)
		protected.GET("/chats", chatHandler.ListConversations)

		protected.GET("/search/token", searchHandler.GetSearchToken)

		protected.GET("/realtime/ws", wsHandler.HandleWebSocket)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		digest:      digest,
	}
}

// buildProviders wires up every completion provider whose credentials are
// present. A missing key skips the provider instead of failing boot; the
// chat service rejects requests for providers that are not configured.
func buildProviders() map[string]provider.CompletionProvider {
	providers := map[string]provider.CompletionProvider{}

	if os.Getenv("OPENAI_API_KEY") != "" {
		p, err := provider.NewOpenAIProvider()
		if err != nil {
			log.Printf("Failed to initialize openai provider: %v", err)
		} else {
			providers["openai"] = p
		}
	} else {
		log.Println("OPENAI_API_KEY not set, openai provider disabled")
	}

	if os.Getenv("GEMINI_API_KEY") != "" {
		p, err := provider.NewGeminiProvider(context.Background())
		if err != nil {
			log.Printf("Failed to initialize gemini provider: %v", err)
		} else {
			providers["gemini"] = p
		}
	} else {
		log.Println("GEMINI_API_KEY not set, gemini provider disabled")
	}

	return providers
}

func (s *Server) Run(addr string) error {
	s.digest.Start()
	defer s.digest.Stop()

	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, cfg *config.Config) {
	origins := strings.Split(cfg.AllowedOrigins, ",")

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
