package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"squash-tracker/handlers"
	"squash-tracker/models"
	"squash-tracker/services"
	"squash-tracker/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		AppName: "squash-tracker",
	})

	// Load allowed origins from environment variable
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	originList := strings.Split(allowedOrigins, ",")
	for i, origin := range originList {
		originList[i] = strings.TrimSpace(origin)
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(originList, ","),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	db, dbPath, err := utils.OpenDatabase()
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}

	if err := db.AutoMigrate(
		&models.Player{},
		&models.Session{},
		&models.Match{},
	); err != nil {
		log.Fatal("failed to migrate database: ", err)
	}

	if err := services.SeedDefaultPlayers(db); err != nil {
		log.Printf("Error seeding default players: %v", err)
	}

	// Off-site backup uploads are optional; a broken config must not take
	// the tracker down.
	if err := utils.InitBackupStorage(); err != nil {
		log.Printf("Backup storage disabled: %v", err)
	}

	backupDir := os.Getenv("BACKUP_DIR")
	if backupDir == "" {
		backupDir = "/tmp/squash_data/backups"
	}
	backupService := services.NewBackupService(db, dbPath, backupDir)
	scheduler := services.NewBackupScheduler(backupService)
	scheduler.Start()

	if _, err := backupService.CreateBackup(""); err != nil {
		log.Printf("Failed to create startup backup: %v", err)
	} else {
		log.Println("Startup backup created")
	}

	playerService := services.NewPlayerService(db)
	sessionService := services.NewSessionService(db)
	matchService := services.NewMatchService(db)
	matchService.Scheduler = scheduler
	statsService := services.NewStatsService(db)

	handlers.SetupSquashRoutes(app, playerService, sessionService, matchService, statsService, backupService)
	handlers.SetupAdminRoutes(app, backupService)

	app.Static("/", "./static")

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()
	log.Printf("Server running on http://localhost:%s", port)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
