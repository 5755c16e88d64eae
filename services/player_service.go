package services

import (
	"errors"
	"log"
	"strings"

	"squash-tracker/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// DefaultPlayers are seeded once, the first time the service starts against
// an empty database.
var DefaultPlayers = []string{"Miklas", "Morten", "Patrick", "Jens"}

type PlayerService struct {
	DB *gorm.DB
}

func NewPlayerService(db *gorm.DB) *PlayerService {
	return &PlayerService{DB: db}
}

// SeedDefaultPlayers creates the bootstrap player set if missing. Idempotent.
func SeedDefaultPlayers(db *gorm.DB) error {
	for _, name := range DefaultPlayers {
		var existing models.Player
		err := db.Where("name = ?", name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		player := models.Player{
			ID:     uuid.NewString(),
			Name:   name,
			Slug:   slug.Make(name),
			Rating: InitialRating,
			Active: true,
		}
		if err := db.Create(&player).Error; err != nil {
			return err
		}
		log.Printf("Seeded default player: %s", name)
	}
	return nil
}

// GetPlayers lists all active players.
func (s *PlayerService) GetPlayers(c *fiber.Ctx) error {
	var players []models.Player
	if err := s.DB.Where("active = ?", true).Order("created_at").Find(&players).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}
	return c.JSON(players)
}

type createPlayerRequest struct {
	Name string `json:"name"`
}

// CreatePlayer adds a player with the initial rating. Names are unique.
func (s *PlayerService) CreatePlayer(c *fiber.Ctx) error {
	var req createPlayerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "player name is required"})
	}

	var existing models.Player
	err := s.DB.Where("name = ?", name).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "player with this name already exists"})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}

	player := models.Player{
		ID:     uuid.NewString(),
		Name:   name,
		Slug:   slug.Make(name),
		Rating: InitialRating,
		Active: true,
	}
	if err := s.DB.Create(&player).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}
	return c.Status(fiber.StatusCreated).JSON(player)
}

// DeletePlayer soft-deletes: the player is marked inactive and keeps their
// rating and match history.
func (s *PlayerService) DeletePlayer(c *fiber.Ctx) error {
	var player models.Player
	if err := s.DB.First(&player, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "player not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}
	if err := s.DB.Model(&player).Update("active", false).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}
	return c.JSON(fiber.Map{"message": "player deleted successfully"})
}
