// Entry point: loads configuration, opens the database, wires the
// services and serves the API.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/menupress/menupress/internal/account"
	"github.com/menupress/menupress/internal/config"
	"github.com/menupress/menupress/internal/database"
	"github.com/menupress/menupress/internal/guard"
	"github.com/menupress/menupress/internal/handler"
	"github.com/menupress/menupress/internal/menu"
	"github.com/menupress/menupress/internal/notifier"
	"github.com/menupress/menupress/internal/otp"
	"github.com/menupress/menupress/internal/queue"
	"github.com/menupress/menupress/internal/repository"
	"github.com/menupress/menupress/internal/router"
	queue_publisher "github.com/menupress/menupress/internal/service"
	"github.com/menupress/menupress/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open failed: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema setup failed: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient() // nil when Redis is unreachable

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	attempts := repository.NewLoginAttemptRepo(db)
	otps := repository.NewOTPRepo(db)
	menus := repository.NewMenuRepo(db)
	menuLogs := repository.NewMenuLogRepo(db)
	analytics := repository.NewAnalyticsRepo(db)
	contacts := repository.NewContactRepo(db)

	sessionManager := session.NewManager(sessions, users, rdb, cfg.SessionTTL)
	loginGuard := guard.New(attempts, cfg.LoginBlockWindow, cfg.LoginMaxFailed)
	otpStore := otp.New(otps, cfg.OTPRegisterTTL, cfg.OTPDeleteTTL)
	accounts := account.NewService(users, loginGuard, sessionManager, otpStore, queue_publisher.PublishNotification, cfg.BcryptCost)
	menuEngine := menu.NewEngine(menus, menuLogs)

	go func() {
		if err := queue.StartNotificationConsumer(notifier.NewFromEnv()); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Handlers{
		Auth:      handler.NewAuthHandler(accounts, sessionManager),
		User:      handler.NewUserHandler(accounts, attempts),
		Menu:      handler.NewMenuHandler(menuEngine),
		Analytics: handler.NewAnalyticsHandler(analytics),
		Contact:   handler.NewContactHandler(contacts),
	}, sessionManager, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
