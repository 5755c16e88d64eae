package handlers

import (
	"squash-tracker/middleware"
	"squash-tracker/services"

	"github.com/gofiber/fiber/v2"
)

func SetupSquashRoutes(
	app *fiber.App,
	playerService *services.PlayerService,
	sessionService *services.SessionService,
	matchService *services.MatchService,
	statsService *services.StatsService,
	backupService *services.BackupService,
) {
	api := app.Group("/api")
	requireJSON := middleware.RequireJSON()

	api.Get("/health", backupService.Health)

	// Players
	api.Get("/players", playerService.GetPlayers)
	api.Post("/players", requireJSON, playerService.CreatePlayer)
	api.Delete("/players/:id", playerService.DeletePlayer)

	// Sessions
	api.Get("/sessions", sessionService.GetSessions)
	api.Post("/sessions", requireJSON, sessionService.CreateSession)
	api.Delete("/sessions/:id", sessionService.DeleteSession)

	// Matches
	api.Post("/matches", requireJSON, matchService.CreateMatch)
	api.Put("/matches/:id", requireJSON, matchService.UpdateMatch)
	api.Delete("/matches/:id", matchService.DeleteMatch)

	// Derived views
	api.Get("/leaderboard", statsService.GetLeaderboard)
	api.Get("/highlights", statsService.GetHighlights)
}
