package main

import (
	"log"
	"net/http"
	"os"

	_ "tourista/docs" // swagger docs

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"tourista/internal/auth"
	"tourista/internal/cache"
	"tourista/internal/config"
	"tourista/internal/db"
	"tourista/internal/email"
	"tourista/internal/handler"
	"tourista/internal/model"
	"tourista/internal/repository"
	"tourista/internal/router"
	"tourista/internal/service"
	"tourista/internal/view"
)

// @title Tourista API
// @version 1.0
// @description Tour booking API with JWT authentication, tours, reviews, and rendered pages.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(echomw.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping all tables...")
		tables := []interface{}{
			&model.Review{},
			"tour_guides",
			&model.Tour{},
			&model.User{},
		}
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				log.Printf("Warning: Failed to drop table (may not exist): %v", err)
			}
		}
		log.Println("Tables dropped")
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Tour{},
		&model.Review{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	renderer, err := view.NewRenderer()
	if err != nil {
		log.Fatalf("templates: %v", err)
	}
	e.Renderer = renderer

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	tourRepo := repository.NewTourRepository(gormDB)
	reviewRepo := repository.NewReviewRepository(gormDB)

	// Initialize auth and email components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiresIn)

	var sender email.Sender
	if cfg.SMTPHost != "" {
		sender = email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	} else {
		log.Println("SMTP_HOST not set, outgoing email is captured in memory")
		sender = email.NewMemorySender()
	}
	mailer, err := email.NewService(sender, cfg.EmailFrom)
	if err != nil {
		log.Fatalf("email templates: %v", err)
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, mailer, cfg.BaseURL)
	userService := service.NewUserService(userRepo, cacheClient)
	tourService := service.NewTourService(tourRepo, cacheClient)
	reviewService := service.NewReviewService(reviewRepo, tourRepo, cacheClient)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, cfg.JWTCookieExpiry, cfg.CookieSecure)
	userHandler := handler.NewUserHandler(userService)
	tourHandler := handler.NewTourHandler(tourService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	viewHandler := handler.NewViewHandler(tourService, userService)

	// Register routes
	router.Register(
		e,
		jwtService,
		userRepo,
		authHandler,
		userHandler,
		tourHandler,
		reviewHandler,
		viewHandler,
	)

	if cfg.SwaggerHost != "" {
		log.Printf("Swagger documentation available at: http://%s/swagger/index.html", cfg.SwaggerHost)
	} else {
		log.Printf("Swagger documentation available at: http://localhost:%s/swagger/index.html", cfg.ServerPort)
	}

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
