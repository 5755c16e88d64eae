package models

import "time"

// Session groups the matches played on one visit to the courts. Matches are
// created alongside the session, one per unordered pair of participants, and
// are looked up through their session_id foreign key rather than a preloaded
// object graph.
type Session struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	Date      time.Time `json:"date" gorm:"not null"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
