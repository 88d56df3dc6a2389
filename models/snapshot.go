package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WeeklySnapshot is an immutable archived leaderboard for one ISO week.
// The (year, week_number) unique index is what makes archival idempotent
// even when two triggers race.
type WeeklySnapshot struct {
	ID string `gorm:"primaryKey;type:uuid" json:"id"`

	WeekStart  time.Time `gorm:"not null" json:"week_start"` // Monday 00:00:00.000 UTC
	WeekEnd    time.Time `gorm:"not null" json:"week_end"`   // Sunday 23:59:59.999 UTC
	Year       int       `gorm:"uniqueIndex:idx_snapshots_year_week,priority:1;not null" json:"year"` // ISO week-year
	WeekNumber int       `gorm:"uniqueIndex:idx_snapshots_year_week,priority:2;not null" json:"week_number"`

	TotalWeeklyPoints int64 `json:"total_weekly_points"`
	TotalParticipants int   `json:"total_participants"`

	Entries       []SnapshotEntry `gorm:"foreignKey:SnapshotID" json:"leaderboard"`
	RaffleWinners []RaffleWinner  `gorm:"foreignKey:SnapshotID" json:"raffle_winners"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (s *WeeklySnapshot) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// SnapshotEntry is one ranked row of an archived leaderboard.
type SnapshotEntry struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"-"`
	SnapshotID string `gorm:"index;not null" json:"-"`

	Rank                int    `gorm:"not null" json:"rank"`
	Address             string `gorm:"index;not null" json:"address"`
	WeeklyPoints        int64  `json:"weekly_points"`
	WeeklyActivities    int    `json:"weekly_activities"`
	TotalReferred       int    `json:"total_referred"`
	TotalReferralPoints int64  `json:"total_referral_points"`

	// WinningChances = weeklyPoints / totalWeeklyPoints * 100, 2 decimals.
	WinningChances decimal.Decimal `gorm:"type:numeric(5,2)" json:"winning_chances"`
}

func (e *SnapshotEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// RaffleWinner records one weighted-raffle draw with its fixed prize.
type RaffleWinner struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"-"`
	SnapshotID string `gorm:"index;not null" json:"-"`

	Rank           int             `json:"rank"` // rank on the leaderboard, not draw order
	Address        string          `gorm:"index;not null" json:"address"`
	WeeklyPoints   int64           `json:"weekly_points"`
	WinningChances decimal.Decimal `gorm:"type:numeric(5,2)" json:"winning_chances"`
	PrizeAmount    int64           `gorm:"not null" json:"prize_amount"`
}

func (w *RaffleWinner) BeforeCreate(*gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
