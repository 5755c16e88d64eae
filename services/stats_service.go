package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"squash-tracker/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type StatsService struct {
	DB *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db}
}

// leaderboardRow is one player's line on the leaderboard. Points are a
// display-only tiebreaker: 3 per win, 1 per loss, 0 for ties.
type leaderboardRow struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Rating         int     `json:"rating"`
	MatchesPlayed  int     `json:"matches_played"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRate        float64 `json:"win_rate"`
	TotalPoints    int     `json:"total_points"`
	PointsPerMatch float64 `json:"points_per_match"`
}

// GetLeaderboard ranks active players with at least one completed match by
// live rating, then points per match. Players who have not finished a match
// are left off entirely.
func (s *StatsService) GetLeaderboard(c *fiber.Ctx) error {
	var players []models.Player
	if err := s.DB.Where("active = ?", true).Find(&players).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}

	rows := make([]leaderboardRow, 0, len(players))
	for _, player := range players {
		matches, err := matchesForPlayer(s.DB, player.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
		}

		played, wins := 0, 0
		for i := range matches {
			if !matches[i].IsCompleted() {
				continue
			}
			played++
			if matches[i].WinnerID != nil && *matches[i].WinnerID == player.ID {
				wins++
			}
		}
		if played == 0 {
			continue
		}

		losses := played - wins
		winRate := float64(wins) / float64(played)
		totalPoints := wins*3 + losses
		ppm := float64(totalPoints) / float64(played)

		rows = append(rows, leaderboardRow{
			ID:             player.ID,
			Name:           player.Name,
			Rating:         player.Rating,
			MatchesPlayed:  played,
			Wins:           wins,
			Losses:         losses,
			WinRate:        math.Round(winRate*1000) / 10, // percentage, one decimal
			TotalPoints:    totalPoints,
			PointsPerMatch: math.Round(ppm*100) / 100,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Rating != rows[j].Rating {
			return rows[i].Rating > rows[j].Rating
		}
		return rows[i].PointsPerMatch > rows[j].PointsPerMatch
	})

	return c.JSON(rows)
}

// GetHighlights reports the 10 most recently completed matches with their
// rating movements, today's completed-match count, and the single biggest
// gain and loss among those matches. Comparisons are strict, so ties keep
// the first match encountered.
func (s *StatsService) GetHighlights(c *fiber.Ctx) error {
	var recent []models.Match
	err := s.DB.Where("player1_score IS NOT NULL AND player2_score IS NOT NULL AND completed_at IS NOT NULL").
		Order("completed_at DESC").Limit(10).Find(&recent).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}

	ids := make([]string, 0, len(recent)*2)
	for i := range recent {
		ids = append(ids, recent[i].Player1ID, recent[i].Player2ID)
	}
	players := map[string]models.Player{}
	if len(ids) > 0 {
		players, err = playersByID(s.DB, ids...)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
		}
	}

	highlights := make([]fiber.Map, 0, len(recent))
	for i := range recent {
		m := &recent[i]
		winnerName := "Tie"
		if m.WinnerID != nil {
			winnerName = players[*m.WinnerID].Name
		}
		highlights = append(highlights, fiber.Map{
			"match_id":              m.ID,
			"session_id":            m.SessionID,
			"date":                  m.CompletedAt.Format("2006-01-02"),
			"player1_name":          players[m.Player1ID].Name,
			"player2_name":          players[m.Player2ID].Name,
			"player1_score":         m.Player1Score,
			"player2_score":         m.Player2Score,
			"winner_name":           winnerName,
			"player1_rating_before": m.Player1RatingBefore,
			"player2_rating_before": m.Player2RatingBefore,
			"player1_rating_change": m.Player1RatingChange,
			"player2_rating_change": m.Player2RatingChange,
			"player1_rating_after":  intOrZero(m.Player1RatingBefore) + intOrZero(m.Player1RatingChange),
			"player2_rating_after":  intOrZero(m.Player2RatingBefore) + intOrZero(m.Player2RatingChange),
		})
	}

	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)
	var matchesToday int64
	err = s.DB.Model(&models.Match{}).
		Where("completed_at >= ? AND player1_score IS NOT NULL AND player2_score IS NOT NULL", startOfDay).
		Count(&matchesToday).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error occurred"})
	}

	var biggestGain, biggestLoss fiber.Map
	var bestDelta, worstDelta int
	for i := range recent {
		m := &recent[i]
		if m.Player1RatingChange == nil || m.Player2RatingChange == nil {
			continue
		}
		sides := []struct {
			delta    int
			player   string
			opponent string
			score    string
		}{
			{*m.Player1RatingChange, players[m.Player1ID].Name, players[m.Player2ID].Name,
				fmt.Sprintf("%d-%d", *m.Player1Score, *m.Player2Score)},
			{*m.Player2RatingChange, players[m.Player2ID].Name, players[m.Player1ID].Name,
				fmt.Sprintf("%d-%d", *m.Player2Score, *m.Player1Score)},
		}
		for _, side := range sides {
			if biggestGain == nil || side.delta > bestDelta {
				bestDelta = side.delta
				biggestGain = fiber.Map{
					"player_name":   side.player,
					"rating_change": side.delta,
					"opponent":      side.opponent,
					"score":         side.score,
				}
			}
			if biggestLoss == nil || side.delta < worstDelta {
				worstDelta = side.delta
				biggestLoss = fiber.Map{
					"player_name":   side.player,
					"rating_change": side.delta,
					"opponent":      side.opponent,
					"score":         side.score,
				}
			}
		}
	}

	return c.JSON(fiber.Map{
		"recent_matches": highlights,
		"stats": fiber.Map{
			"matches_today":       matchesToday,
			"biggest_rating_gain": biggestGain,
			"biggest_rating_loss": biggestLoss,
		},
	})
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
