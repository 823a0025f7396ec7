package main

import (
	"log"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"lintas.id/aidesk/internal/config"
	"lintas.id/aidesk/internal/entity"
	"lintas.id/aidesk/internal/server"
	"lintas.id/aidesk/pkg/database"
)

func main() {
	cfg := config.Load()

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if err := seedRoles(db); err != nil {
		log.Fatalf("failed to seed roles: %v", err)
	}

	if cfg.AppEnv == "development" {
		if err := seedSuperAdmin(db); err != nil {
			log.Fatalf("failed to seed super admin: %v", err)
		}
	}

	redisClient := connectRedis(cfg.RedisURL)

	srv := server.NewServer(cfg, db, redisClient)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

// connectRedis returns nil when no Redis is configured; rate limiting and
// realtime push degrade gracefully without it.
func connectRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		log.Println("REDIS_URL not set, rate limiting and realtime push disabled")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}

	return redis.NewClient(opts)
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.Ticket{},
		&entity.TicketReply{},
		&entity.Conversation{},
		&entity.ChatMessage{},
		&entity.KnowledgeArticle{},
		&entity.BotConfig{},
	)
}

func seedRoles(db *gorm.DB) error {
	defaultRoles := []entity.Role{
		{Name: entity.RoleSuperAdmin, Description: "Super administrator"},
		{Name: entity.RoleAdmin, Description: "Support agent"},
		{Name: entity.RoleUser, Description: "Regular user"},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&entity.Role{}).
			Where("name = ?", role.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

func seedSuperAdmin(db *gorm.DB) error {
	var superAdminRole entity.Role
	if err := db.Where("name = ?", entity.RoleSuperAdmin).First(&superAdminRole).Error; err != nil {
		return err
	}

	var count int64
	if err := db.Model(&entity.User{}).
		Where("email = ?", "admin@aidesk.local").
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Super admin already exists, skipping seed")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := entity.User{
		FullName:     "Administrator",
		Email:        "admin@aidesk.local",
		PasswordHash: string(hashed),
		RoleID:       &superAdminRole.ID,
	}

	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Println("Super admin seeded (admin@aidesk.local / admin123)")
	return nil
}
