package services

import (
	"errors"
	"strings"
	"time"

	"squash-tracker/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MatchService struct {
	DB *gorm.DB

	// Scheduler, when set, is poked after every successful scoring so it can
	// decide whether a milestone backup is due. Never blocks the request.
	Scheduler *BackupScheduler
}

func NewMatchService(db *gorm.DB) *MatchService {
	return &MatchService{DB: db}
}

// matchesForSession returns a session's matches in creation order.
func matchesForSession(db *gorm.DB, sessionID string) ([]models.Match, error) {
	var matches []models.Match
	err := db.Where("session_id = ?", sessionID).Order("created_at").Find(&matches).Error
	return matches, err
}

// matchesForPlayer returns every match that references the player on either side.
func matchesForPlayer(db *gorm.DB, playerID string) ([]models.Match, error) {
	var matches []models.Match
	err := db.Where("player1_id = ? OR player2_id = ?", playerID, playerID).
		Order("created_at").Find(&matches).Error
	return matches, err
}

// playersByID loads the named players into a map keyed by ID.
func playersByID(db *gorm.DB, ids ...string) (map[string]models.Player, error) {
	var players []models.Player
	if err := db.Where("id IN ?", ids).Find(&players).Error; err != nil {
		return nil, err
	}
	out := make(map[string]models.Player, len(players))
	for _, p := range players {
		out[p.ID] = p
	}
	return out, nil
}

// applyScores runs the UNSCORED -> SCORED transition on the match inside tx:
// snapshot both live ratings, compute the deltas, stamp completion, pick the
// winner and move the two ratings. The caller persists the match row in the
// same transaction so the whole sequence commits or rolls back as one unit.
func applyScores(tx *gorm.DB, match *models.Match, score1, score2 int) error {
	var p1, p2 models.Player
	if err := tx.First(&p1, "id = ?", match.Player1ID).Error; err != nil {
		return err
	}
	if err := tx.First(&p2, "id = ?", match.Player2ID).Error; err != nil {
		return err
	}

	before1, before2 := p1.Rating, p2.Rating
	delta1, delta2 := ComputeRatingDeltas(before1, before2, score1, score2)
	now := time.Now().UTC()

	match.Player1Score = &score1
	match.Player2Score = &score2
	match.Player1RatingBefore = &before1
	match.Player2RatingBefore = &before2
	match.Player1RatingChange = &delta1
	match.Player2RatingChange = &delta2
	match.CompletedAt = &now

	switch {
	case score1 > score2:
		match.WinnerID = &match.Player1ID
	case score2 > score1:
		match.WinnerID = &match.Player2ID
	default:
		match.WinnerID = nil // tie
	}

	if err := tx.Model(&models.Player{}).Where("id = ?", p1.ID).
		Update("rating", before1+delta1).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Player{}).Where("id = ?", p2.ID).
		Update("rating", before2+delta2).Error; err != nil {
		return err
	}
	return nil
}

// reverseScores subtracts a previously applied delta from both live ratings.
// A match that was never scored is left untouched, so reversal is always
// safe to call before a re-score or delete.
func reverseScores(tx *gorm.DB, match *models.Match) error {
	if !match.IsCompleted() || match.Player1RatingChange == nil || match.Player2RatingChange == nil {
		return nil
	}
	if err := tx.Model(&models.Player{}).Where("id = ?", match.Player1ID).
		Update("rating", gorm.Expr("rating - ?", *match.Player1RatingChange)).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Player{}).Where("id = ?", match.Player2ID).
		Update("rating", gorm.Expr("rating - ?", *match.Player2RatingChange)).Error; err != nil {
		return err
	}
	return nil
}

// matchToResponse is the wire shape for a match, with the player names the
// frontend shows denormalized in.
func matchToResponse(m *models.Match, players map[string]models.Player) fiber.Map {
	resp := fiber.Map{
		"id":                    m.ID,
		"session_id":            m.SessionID,
		"player1_id":            m.Player1ID,
		"player2_id":            m.Player2ID,
		"player1_score":         m.Player1Score,
		"player2_score":         m.Player2Score,
		"winner_id":             m.WinnerID,
		"player1_rating_before": m.Player1RatingBefore,
		"player2_rating_before": m.Player2RatingBefore,
		"player1_rating_change": m.Player1RatingChange,
		"player2_rating_change": m.Player2RatingChange,
		"completed_at":          m.CompletedAt,
		"notes":                 m.Notes,
		"created_at":            m.CreatedAt,
		"is_completed":          m.IsCompleted(),
		"player1_name":          nil,
		"player2_name":          nil,
		"winner_name":           nil,
	}
	if p, ok := players[m.Player1ID]; ok {
		resp["player1_name"] = p.Name
	}
	if p, ok := players[m.Player2ID]; ok {
		resp["player2_name"] = p.Name
	}
	if m.WinnerID != nil {
		if p, ok := players[*m.WinnerID]; ok {
			resp["winner_name"] = p.Name
		}
	}
	return resp
}

// ratingChanges is the per-player before/change/after block attached to
// responses for completed matches. The "after" values are the live ratings.
func ratingChanges(m *models.Match, players map[string]models.Player) fiber.Map {
	return fiber.Map{
		"player1": fiber.Map{
			"name":          players[m.Player1ID].Name,
			"rating_before": m.Player1RatingBefore,
			"rating_change": m.Player1RatingChange,
			"rating_after":  players[m.Player1ID].Rating,
		},
		"player2": fiber.Map{
			"name":          players[m.Player2ID].Name,
			"rating_before": m.Player2RatingBefore,
			"rating_change": m.Player2RatingChange,
			"rating_after":  players[m.Player2ID].Rating,
		},
	}
}

type createMatchRequest struct {
	SessionID    string  `json:"session_id"`
	Player1ID    string  `json:"player1_id"`
	Player2ID    string  `json:"player2_id"`
	Player1Score *int    `json:"player1_score"`
	Player2Score *int    `json:"player2_score"`
	Notes        *string `json:"notes"`
}

type updateMatchRequest struct {
	Player1Score *int    `json:"player1_score"`
	Player2Score *int    `json:"player2_score"`
	Notes        *string `json:"notes"`
}

// CreateMatch adds a match to an existing session, optionally scoring it
// immediately when both scores are supplied.
func (s *MatchService) CreateMatch(c *fiber.Ctx) error {
	var req createMatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	if req.SessionID == "" || req.Player1ID == "" || req.Player2ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id, player1_id, and player2_id are required"})
	}
	if req.Player1ID == req.Player2ID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "players must be different"})
	}
	if (req.Player1Score == nil) != (req.Player2Score == nil) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "both scores are required together"})
	}
	if req.Player1Score != nil && (*req.Player1Score < 0 || *req.Player2Score < 0) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scores cannot be negative"})
	}

	players, err := playersByID(s.DB, req.Player1ID, req.Player2ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}
	if len(players) != 2 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "one or both players not found"})
	}
	var session models.Session
	if err := s.DB.First(&session, "id = ?", req.SessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}

	match := models.Match{
		ID:        uuid.NewString(),
		SessionID: req.SessionID,
		Player1ID: req.Player1ID,
		Player2ID: req.Player2ID,
		Notes:     trimNotes(req.Notes),
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&match).Error; err != nil {
			return err
		}
		if req.Player1Score != nil && req.Player2Score != nil {
			if err := applyScores(tx, &match, *req.Player1Score, *req.Player2Score); err != nil {
				return err
			}
			return tx.Save(&match).Error
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}

	if match.IsCompleted() {
		s.notifyMatchCompleted()
	}

	// Re-read the players so the response carries post-match ratings.
	players, err = playersByID(s.DB, match.Player1ID, match.Player2ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}
	resp := matchToResponse(&match, players)
	if match.Player1RatingChange != nil && match.Player2RatingChange != nil {
		resp["rating_changes"] = ratingChanges(&match, players)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// UpdateMatch updates scores and/or notes. Supplying both scores triggers the
// scoring transition; on an already-scored match the previous deltas are
// reversed first, and the new before-snapshots are the ratings after that
// reversal, so a match only ever counts once no matter how often it is edited.
func (s *MatchService) UpdateMatch(c *fiber.Ctx) error {
	var match models.Match
	if err := s.DB.First(&match, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}

	var req updateMatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scores must be integers"})
	}
	if (req.Player1Score == nil) != (req.Player2Score == nil) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "both scores are required together"})
	}
	if req.Player1Score != nil && (*req.Player1Score < 0 || *req.Player2Score < 0) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scores cannot be negative"})
	}

	scored := req.Player1Score != nil && req.Player2Score != nil
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if scored {
			if err := reverseScores(tx, &match); err != nil {
				return err
			}
			if err := applyScores(tx, &match, *req.Player1Score, *req.Player2Score); err != nil {
				return err
			}
		}
		if req.Notes != nil {
			match.Notes = trimNotes(req.Notes)
		}
		return tx.Save(&match).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}

	if scored {
		s.notifyMatchCompleted()
	}

	players, err := playersByID(s.DB, match.Player1ID, match.Player2ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}
	resp := matchToResponse(&match, players)
	if match.Player1RatingChange != nil && match.Player2RatingChange != nil {
		resp["rating_changes"] = ratingChanges(&match, players)
	}
	return c.JSON(resp)
}

// DeleteMatch removes a match, reversing its rating deltas first when it had
// been scored.
func (s *MatchService) DeleteMatch(c *fiber.Ctx) error {
	var match models.Match
	if err := s.DB.First(&match, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := reverseScores(tx, &match); err != nil {
			return err
		}
		return tx.Delete(&models.Match{}, "id = ?", match.ID).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}
	return c.JSON(fiber.Map{"message": "match deleted successfully"})
}

func (s *MatchService) notifyMatchCompleted() {
	if s.Scheduler != nil {
		s.Scheduler.TriggerMatchBackup()
	}
}

func trimNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
