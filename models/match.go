package models

import "time"

// Match records a single game between two players inside a session.
// Scores stay nil until the match has been played; the rating bookkeeping
// columns (before snapshots and signed changes) are filled in the moment
// both scores arrive and are either all present or all absent.
type Match struct {
	ID        string `json:"id" gorm:"primaryKey;type:uuid"`
	SessionID string `json:"session_id" gorm:"not null;index:idx_match_session_players,priority:1"`
	Player1ID string `json:"player1_id" gorm:"not null;index:idx_match_session_players,priority:2;check:different_players,player1_id <> player2_id"`
	Player2ID string `json:"player2_id" gorm:"not null;index:idx_match_session_players,priority:3"`

	Player1Score *int    `json:"player1_score"`
	Player2Score *int    `json:"player2_score"`
	WinnerID     *string `json:"winner_id"` // nil until scored, and on a tie

	Player1RatingBefore *int `json:"player1_rating_before"`
	Player2RatingBefore *int `json:"player2_rating_before"`
	Player1RatingChange *int `json:"player1_rating_change"`
	Player2RatingChange *int `json:"player2_rating_change"`

	CompletedAt *time.Time `json:"completed_at" gorm:"index:idx_match_completed"`
	Notes       *string    `json:"notes"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// IsCompleted reports whether the match has been played: both scores present.
func (m *Match) IsCompleted() bool {
	return m.Player1Score != nil && m.Player2Score != nil
}
