package models

import "time"

// Player is one of the people on the ladder. Rating is only ever moved by
// match completion, re-scoring or reversal — never written directly from a
// request payload.
type Player struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Slug      string    `json:"slug" gorm:"index"`
	Rating    int       `json:"rating" gorm:"not null;default:1000"`
	Active    bool      `json:"active" gorm:"not null;default:true"` // soft delete flag
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
