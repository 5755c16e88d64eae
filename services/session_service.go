package services

import (
	"errors"
	"time"

	"squash-tracker/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionService struct {
	DB *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{DB: db}
}

func (s *SessionService) sessionToResponse(session *models.Session) (fiber.Map, error) {
	matches, err := matchesForSession(s.DB, session.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(matches)*2)
	for _, m := range matches {
		ids = append(ids, m.Player1ID, m.Player2ID)
	}
	players := map[string]models.Player{}
	if len(ids) > 0 {
		players, err = playersByID(s.DB, ids...)
		if err != nil {
			return nil, err
		}
	}

	matchList := make([]fiber.Map, 0, len(matches))
	for i := range matches {
		matchList = append(matchList, matchToResponse(&matches[i], players))
	}
	return fiber.Map{
		"id":         session.ID,
		"date":       session.Date.Format("2006-01-02"),
		"notes":      session.Notes,
		"created_at": session.CreatedAt,
		"matches":    matchList,
	}, nil
}

// GetSessions lists all sessions, newest first, with their matches nested.
func (s *SessionService) GetSessions(c *fiber.Ctx) error {
	var sessions []models.Session
	if err := s.DB.Order("created_at DESC").Find(&sessions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}
	out := make([]fiber.Map, 0, len(sessions))
	for i := range sessions {
		resp, err := s.sessionToResponse(&sessions[i])
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
		}
		out = append(out, resp)
	}
	return c.JSON(out)
}

type createSessionRequest struct {
	PlayerIDs []string `json:"player_ids"`
	Notes     *string  `json:"notes"`
}

// CreateSession creates a session and one unscored match for every unordered
// pair among the given players, all inside a single transaction. N players
// yield N*(N-1)/2 matches; fewer than two distinct players is rejected since
// a session without matches is invalid.
func (s *SessionService) CreateSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	if len(req.PlayerIDs) < 2 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "at least 2 players are required"})
	}
	seen := make(map[string]bool, len(req.PlayerIDs))
	for _, id := range req.PlayerIDs {
		if seen[id] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "player_ids must be distinct"})
		}
		seen[id] = true
	}

	players, err := playersByID(s.DB, req.PlayerIDs...)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}
	if len(players) != len(req.PlayerIDs) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "one or more players not found"})
	}

	session := models.Session{
		ID:    uuid.NewString(),
		Date:  time.Now().UTC().Truncate(24 * time.Hour),
		Notes: trimNotes(req.Notes),
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		for i := 0; i < len(req.PlayerIDs); i++ {
			for j := i + 1; j < len(req.PlayerIDs); j++ {
				match := models.Match{
					ID:        uuid.NewString(),
					SessionID: session.ID,
					Player1ID: req.PlayerIDs[i],
					Player2ID: req.PlayerIDs[j],
				}
				if err := tx.Create(&match).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}

	resp, err := s.sessionToResponse(&session)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// DeleteSession removes a session and all its matches, reversing the rating
// deltas of every completed match first. One transaction: either the whole
// cascade commits or none of it does.
func (s *SessionService) DeleteSession(c *fiber.Ctx) error {
	var session models.Session
	if err := s.DB.First(&session, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		matches, err := matchesForSession(tx, session.ID)
		if err != nil {
			return err
		}
		for i := range matches {
			if err := reverseScores(tx, &matches[i]); err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.Match{}, "session_id = ?", session.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Session{}, "id = ?", session.ID).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}
	return c.JSON(fiber.Map{"message": "session and all matches deleted successfully"})
}
