package handlers

import (
	"squash-tracker/middleware"
	"squash-tracker/services"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes wires the backup and store administration endpoints.
func SetupAdminRoutes(app *fiber.App, backupService *services.BackupService) {
	admin := app.Group("/api/admin")

	admin.Get("/database/status", backupService.DatabaseStatus)
	admin.Post("/backup/create", backupService.CreateBackupHandler)
	admin.Get("/backups", backupService.ListBackupsHandler)
	admin.Post("/backup/restore", middleware.RequireJSON(), backupService.RestoreBackupHandler)
	admin.Post("/external/sync", backupService.SyncExternal)
}
