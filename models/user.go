package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the per-wallet ledger: point balance, streak counters and sign-in
// bookkeeping. One row per lowercase wallet address; never deleted.
type User struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	Address string `gorm:"uniqueIndex;not null" json:"address"` // lowercase 0x wallet address

	Points int64 `json:"points" gorm:"default:0"`
	Streak int   `json:"streak" gorm:"default:0"`

	// StreakLastUpdate is normalized to start-of-day UTC; nil = no active streak.
	StreakLastUpdate *time.Time `json:"streak_last_update,omitempty"`
	LastSignIn       *time.Time `json:"last_sign_in,omitempty"`

	// DiscordUsername is set once by Discord verification.
	DiscordUsername *string `json:"discord_username,omitempty"`

	Timestamps
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
