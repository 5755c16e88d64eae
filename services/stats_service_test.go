package services

import (
	"encoding/json"
	"net/http"
	"testing"

	"squash-tracker/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardExcludesPlayersWithoutCompletedMatches(t *testing.T) {
	app, db := newTestApp(t)
	p1 := createTestPlayer(t, db, "Alice")
	p2 := createTestPlayer(t, db, "Bob")
	idle := createTestPlayer(t, db, "Carol")
	session := createTestSession(t, db)

	match := createTestMatch(t, db, session.ID, p1.ID, p2.ID)
	scoreMatch(t, db, &match, 11, 5)

	// Carol has a match, but it was never scored.
	createTestMatch(t, db, session.ID, p1.ID, idle.ID)

	status, raw := doJSON(t, app, http.MethodGet, "/api/leaderboard", nil)
	require.Equal(t, http.StatusOK, status)

	var rows []leaderboardRow
	require.NoError(t, json.Unmarshal(raw, &rows))
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.NotEqual(t, idle.ID, row.ID, "players without completed matches must be excluded")
	}
}

func TestLeaderboardStats(t *testing.T) {
	app, db := newTestApp(t)
	p1 := createTestPlayer(t, db, "Alice")
	p2 := createTestPlayer(t, db, "Bob")
	session := createTestSession(t, db)

	m1 := createTestMatch(t, db, session.ID, p1.ID, p2.ID)
	scoreMatch(t, db, &m1, 11, 0)
	m2 := createTestMatch(t, db, session.ID, p1.ID, p2.ID)
	scoreMatch(t, db, &m2, 11, 0)
	m3 := createTestMatch(t, db, session.ID, p2.ID, p1.ID)
	scoreMatch(t, db, &m3, 11, 0)

	status, raw := doJSON(t, app, http.MethodGet, "/api/leaderboard", nil)
	require.Equal(t, http.StatusOK, status)

	var rows []leaderboardRow
	require.NoError(t, json.Unmarshal(raw, &rows))
	require.Len(t, rows, 2)

	// Alice: 2 wins 1 loss, 7 points over 3 matches. Her rating is ahead of
	// Bob's, so she leads the board.
	alice := rows[0]
	require.Equal(t, "Alice", alice.Name)
	assert.Equal(t, 3, alice.MatchesPlayed)
	assert.Equal(t, 2, alice.Wins)
	assert.Equal(t, 1, alice.Losses)
	assert.InDelta(t, 66.7, alice.WinRate, 0.01)
	assert.Equal(t, 7, alice.TotalPoints)
	assert.InDelta(t, 2.33, alice.PointsPerMatch, 0.01)

	bob := rows[1]
	assert.Equal(t, "Bob", bob.Name)
	assert.Greater(t, alice.Rating, bob.Rating)
}

func TestHighlights(t *testing.T) {
	app, db := newTestApp(t)
	p1 := createTestPlayer(t, db, "Alice")
	p2 := createTestPlayer(t, db, "Bob")
	p3 := createTestPlayer(t, db, "Carol")
	session := createTestSession(t, db)

	// A shutout (the biggest swing) and a close match.
	m1 := createTestMatch(t, db, session.ID, p1.ID, p2.ID)
	scoreMatch(t, db, &m1, 11, 0)
	m2 := createTestMatch(t, db, session.ID, p2.ID, p3.ID)
	scoreMatch(t, db, &m2, 11, 9)

	status, raw := doJSON(t, app, http.MethodGet, "/api/highlights", nil)
	require.Equal(t, http.StatusOK, status)

	var resp struct {
		RecentMatches []struct {
			MatchID             string `json:"match_id"`
			WinnerName          string `json:"winner_name"`
			Player1RatingChange *int   `json:"player1_rating_change"`
			Player1RatingAfter  int    `json:"player1_rating_after"`
		} `json:"recent_matches"`
		Stats struct {
			MatchesToday      int64 `json:"matches_today"`
			BiggestRatingGain *struct {
				PlayerName   string `json:"player_name"`
				RatingChange int    `json:"rating_change"`
			} `json:"biggest_rating_gain"`
			BiggestRatingLoss *struct {
				PlayerName   string `json:"player_name"`
				RatingChange int    `json:"rating_change"`
			} `json:"biggest_rating_loss"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))

	require.Len(t, resp.RecentMatches, 2)
	// Newest first.
	assert.Equal(t, m2.ID, resp.RecentMatches[0].MatchID)
	assert.Equal(t, m1.ID, resp.RecentMatches[1].MatchID)

	assert.Equal(t, int64(2), resp.Stats.MatchesToday)

	require.NotNil(t, resp.Stats.BiggestRatingGain)
	assert.Equal(t, "Alice", resp.Stats.BiggestRatingGain.PlayerName)
	assert.Equal(t, 24, resp.Stats.BiggestRatingGain.RatingChange)

	require.NotNil(t, resp.Stats.BiggestRatingLoss)
	assert.Equal(t, "Bob", resp.Stats.BiggestRatingLoss.PlayerName)
	assert.Equal(t, -24, resp.Stats.BiggestRatingLoss.RatingChange)
}

func TestHighlightsLimitsToTenMatches(t *testing.T) {
	app, db := newTestApp(t)
	p1 := createTestPlayer(t, db, "Alice")
	p2 := createTestPlayer(t, db, "Bob")
	session := createTestSession(t, db)

	for i := 0; i < 12; i++ {
		m := createTestMatch(t, db, session.ID, p1.ID, p2.ID)
		scoreMatch(t, db, &m, 11, 7)
	}

	status, raw := doJSON(t, app, http.MethodGet, "/api/highlights", nil)
	require.Equal(t, http.StatusOK, status)

	var resp struct {
		RecentMatches []json.RawMessage `json:"recent_matches"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Len(t, resp.RecentMatches, 10)
}

func TestHighlightsEmptyDatabase(t *testing.T) {
	app, _ := newTestApp(t)

	status, raw := doJSON(t, app, http.MethodGet, "/api/highlights", nil)
	require.Equal(t, http.StatusOK, status)

	var resp struct {
		RecentMatches []json.RawMessage `json:"recent_matches"`
		Stats         struct {
			MatchesToday      int64           `json:"matches_today"`
			BiggestRatingGain json.RawMessage `json:"biggest_rating_gain"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Empty(t, resp.RecentMatches)
	assert.Zero(t, resp.Stats.MatchesToday)
	assert.Equal(t, "null", string(resp.Stats.BiggestRatingGain))
}

func TestLeaderboardTiesCountInPlayedOnly(t *testing.T) {
	app, db := newTestApp(t)
	p1 := createTestPlayer(t, db, "Alice")
	p2 := createTestPlayer(t, db, "Bob")
	session := createTestSession(t, db)

	m1 := createTestMatch(t, db, session.ID, p1.ID, p2.ID)
	scoreMatch(t, db, &m1, 9, 9)
	m2 := createTestMatch(t, db, session.ID, p1.ID, p2.ID)
	scoreMatch(t, db, &m2, 11, 3)

	status, raw := doJSON(t, app, http.MethodGet, "/api/leaderboard", nil)
	require.Equal(t, http.StatusOK, status)

	var rows []leaderboardRow
	require.NoError(t, json.Unmarshal(raw, &rows))
	require.Len(t, rows, 2)

	var alice models.Player
	require.NoError(t, db.First(&alice, "name = ?", "Alice").Error)
	for _, row := range rows {
		if row.ID != alice.ID {
			continue
		}
		assert.Equal(t, 2, row.MatchesPlayed, "tie still counts as played")
		assert.Equal(t, 1, row.Wins, "tie is not a win")
	}
}
