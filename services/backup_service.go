package services

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"squash-tracker/models"
	"squash-tracker/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// BackupService copies the database file and writes a parallel JSON dump of
// every table. It is best-effort plumbing: callers on the request path log
// failures and move on, they never propagate them.
type BackupService struct {
	DB        *gorm.DB
	DBPath    string // sqlite file path; empty for server-backed stores
	BackupDir string
}

func NewBackupService(db *gorm.DB, dbPath, backupDir string) *BackupService {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		log.Printf("Failed to create backup directory %s: %v", backupDir, err)
	}
	return &BackupService{DB: db, DBPath: dbPath, BackupDir: backupDir}
}

type BackupInfo struct {
	Filename string    `json:"filename"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// CreateBackup copies the database file (when the store is file-backed) and
// writes the JSON dump next to it. An empty name gets a timestamped one.
func (s *BackupService) CreateBackup(name string) (*BackupInfo, error) {
	if name == "" {
		name = fmt.Sprintf("squash_backup_%s.db", time.Now().Format("20060102_150405"))
	}
	backupPath := filepath.Join(s.BackupDir, filepath.Base(name))

	if s.DBPath != "" {
		if _, err := os.Stat(s.DBPath); err != nil {
			return nil, fmt.Errorf("database file does not exist: %w", err)
		}
		if err := copyFile(s.DBPath, backupPath); err != nil {
			return nil, fmt.Errorf("failed to copy database file: %w", err)
		}
	}

	jsonPath := strings.TrimSuffix(backupPath, ".db") + ".json"
	if err := s.WriteJSONExport(jsonPath); err != nil {
		return nil, err
	}

	infoPath := backupPath
	if s.DBPath == "" {
		infoPath = jsonPath // server-backed stores only get the JSON dump
	}
	stat, err := os.Stat(infoPath)
	if err != nil {
		return nil, err
	}
	info := &BackupInfo{
		Filename: filepath.Base(infoPath),
		Path:     infoPath,
		Size:     stat.Size(),
		Created:  time.Now(),
		Modified: stat.ModTime(),
	}
	log.Printf("Backup created: %s", info.Path)
	return info, nil
}

// ExportTables reads every table into table-name -> ordered row list, the
// disaster-recovery format the JSON dumps use.
func (s *BackupService) ExportTables() (map[string]any, error) {
	var players []models.Player
	if err := s.DB.Order("created_at").Find(&players).Error; err != nil {
		return nil, fmt.Errorf("failed to export players: %w", err)
	}
	var sessions []models.Session
	if err := s.DB.Order("created_at").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to export sessions: %w", err)
	}
	var matches []models.Match
	if err := s.DB.Order("created_at").Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("failed to export matches: %w", err)
	}
	return map[string]any{
		"players":  players,
		"sessions": sessions,
		"matches":  matches,
	}, nil
}

// WriteJSONExport dumps all tables to path.
func (s *BackupService) WriteJSONExport(path string) error {
	data, err := s.ExportTables()
	if err != nil {
		return err
	}
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON export: %w", err)
	}
	return nil
}

type jsonExport struct {
	Players  []models.Player  `json:"players"`
	Sessions []models.Session `json:"sessions"`
	Matches  []models.Match   `json:"matches"`
}

// ImportJSONFile replaces the entire database contents with the rows from a
// JSON dump, as one transaction.
func (s *BackupService) ImportJSONFile(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON export: %w", err)
	}
	var data jsonExport
	if err := json.Unmarshal(payload, &data); err != nil {
		return fmt.Errorf("failed to parse JSON export: %w", err)
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"matches", "sessions", "players"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return err
			}
		}
		if len(data.Players) > 0 {
			if err := tx.Create(&data.Players).Error; err != nil {
				return err
			}
		}
		if len(data.Sessions) > 0 {
			if err := tx.Create(&data.Sessions).Error; err != nil {
				return err
			}
		}
		if len(data.Matches) > 0 {
			if err := tx.Create(&data.Matches).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListBackups returns the backups on disk, newest first.
func (s *BackupService) ListBackups() []BackupInfo {
	entries, err := os.ReadDir(s.BackupDir)
	if err != nil {
		log.Printf("Error reading backup directory: %v", err)
		return nil
	}

	var backups []BackupInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.Contains(name, "backup") {
			continue
		}
		if !strings.HasSuffix(name, ".db") && !strings.HasSuffix(name, ".json") {
			continue
		}
		if s.DBPath != "" && strings.HasSuffix(name, ".json") {
			continue // JSON files ride along with their .db twin
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Filename: name,
			Path:     filepath.Join(s.BackupDir, name),
			Size:     info.Size(),
			Created:  info.ModTime(),
			Modified: info.ModTime(),
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Created.After(backups[j].Created)
	})
	return backups
}

// CleanupOldBackups removes timestamped squash_backup_* files beyond the
// newest maxBackups, together with their JSON twins.
func (s *BackupService) CleanupOldBackups(maxBackups int) {
	var candidates []BackupInfo
	for _, b := range s.ListBackups() {
		if strings.HasPrefix(b.Filename, "squash_backup_") {
			candidates = append(candidates, b)
		}
	}
	for _, b := range candidates[min(maxBackups, len(candidates)):] {
		s.removeBackupPair(b.Path)
	}
}

// CleanupWeeklyBackups ages out weekly_backup_* files older than maxWeeks.
func (s *BackupService) CleanupWeeklyBackups(maxWeeks int) {
	cutoff := time.Now().Add(-time.Duration(maxWeeks) * 7 * 24 * time.Hour)
	for _, b := range s.ListBackups() {
		if !strings.HasPrefix(b.Filename, "weekly_backup_") {
			continue
		}
		if b.Modified.Before(cutoff) {
			s.removeBackupPair(b.Path)
		}
	}
}

func (s *BackupService) removeBackupPair(path string) {
	if err := os.Remove(path); err != nil {
		log.Printf("Failed to remove old backup %s: %v", path, err)
		return
	}
	jsonPath := strings.TrimSuffix(path, ".db") + ".json"
	if jsonPath != path {
		if err := os.Remove(jsonPath); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to remove old backup %s: %v", jsonPath, err)
		}
	}
	log.Printf("Removed old backup: %s", path)
}

// RestoreFromBackup restores the store from a named backup file in the
// backup directory: .db files are copied back over the data file (after a
// pre-restore backup), .json files are imported row by row.
func (s *BackupService) RestoreFromBackup(filename string) error {
	backupPath := filepath.Join(s.BackupDir, filepath.Base(filename))
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup file does not exist: %w", err)
	}

	if strings.HasSuffix(backupPath, ".json") {
		return s.ImportJSONFile(backupPath)
	}
	if s.DBPath == "" {
		return fmt.Errorf("file restore requires a file-backed store")
	}
	if _, err := s.CreateBackup("pre_restore_backup.db"); err != nil {
		log.Printf("Failed to create pre-restore backup: %v", err)
	}
	if err := copyFile(backupPath, s.DBPath); err != nil {
		return fmt.Errorf("failed to restore from backup: %w", err)
	}
	log.Printf("Database restored from: %s", backupPath)
	return nil
}

// Health answers the liveness endpoint with a store reachability probe.
func (s *BackupService) Health(c *fiber.Ctx) error {
	if err := s.DB.Exec("SELECT 1").Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     err.Error(),
			"timestamp": time.Now().UTC(),
		})
	}
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC(),
	})
}

// DatabaseStatus reports store and backup state for the admin UI.
func (s *BackupService) DatabaseStatus(c *fiber.Ctx) error {
	connectionOK := s.DB.Exec("SELECT 1").Error == nil

	var dbExists bool
	var dbSize int64
	if s.DBPath != "" {
		if stat, err := os.Stat(s.DBPath); err == nil {
			dbExists = true
			dbSize = stat.Size()
		}
	} else {
		dbExists = connectionOK
	}

	backups := s.ListBackups()
	var totalSize int64
	for _, b := range backups {
		totalSize += b.Size
	}
	var latest *BackupInfo
	if len(backups) > 0 {
		latest = &backups[0]
	}

	return c.JSON(fiber.Map{
		"success": true,
		"database": fiber.Map{
			"path":          s.DBPath,
			"exists":        dbExists,
			"size":          dbSize,
			"connection_ok": connectionOK,
		},
		"backups": fiber.Map{
			"count":      len(backups),
			"latest":     latest,
			"total_size": totalSize,
		},
	})
}

// CreateBackupHandler creates a manual backup on demand.
func (s *BackupService) CreateBackupHandler(c *fiber.Ctx) error {
	info, err := s.CreateBackup("")
	if err != nil {
		log.Printf("Manual backup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "failed to create backup"})
	}
	return c.JSON(fiber.Map{"success": true, "backup": info, "message": "backup created successfully"})
}

// ListBackupsHandler lists all backups on disk.
func (s *BackupService) ListBackupsHandler(c *fiber.Ctx) error {
	backups := s.ListBackups()
	return c.JSON(fiber.Map{"success": true, "backups": backups, "count": len(backups)})
}

type restoreRequest struct {
	Filename string `json:"filename"`
}

// RestoreBackupHandler restores the store from a named backup.
func (s *BackupService) RestoreBackupHandler(c *fiber.Ctx) error {
	var req restoreRequest
	if err := c.BodyParser(&req); err != nil || req.Filename == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "filename is required"})
	}
	if err := s.RestoreFromBackup(req.Filename); err != nil {
		log.Printf("Restore failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "failed to restore backup"})
	}
	return c.JSON(fiber.Map{"success": true, "message": "database restored successfully"})
}

// SyncExternal pushes a fresh JSON export to the configured object storage
// bucket. With no bucket configured it reports that sync is disabled.
func (s *BackupService) SyncExternal(c *fiber.Ctx) error {
	if !utils.BackupStorageEnabled() {
		return c.JSON(fiber.Map{"success": false, "message": "external storage not configured"})
	}

	exportPath := filepath.Join(s.BackupDir, fmt.Sprintf("squash_export_%s.json", time.Now().Format("20060102_150405")))
	if err := s.WriteJSONExport(exportPath); err != nil {
		log.Printf("External sync export failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "external storage sync failed"})
	}
	defer os.Remove(exportPath)

	key := "exports/" + filepath.Base(exportPath)
	url, err := utils.UploadBackupFile(exportPath, key)
	if err != nil {
		log.Printf("External sync upload failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "external storage sync failed"})
	}
	return c.JSON(fiber.Map{"success": true, "message": "external storage sync completed", "url": url})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
