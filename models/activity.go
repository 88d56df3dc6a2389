package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Canonical activity names. Name is free-form on the wire but everything the
// backend writes uses one of these.
const (
	ActivityTrade              = "Trade"
	ActivityAccountConnected   = "Account Connected"
	ActivityStreakExtended     = "Streak Extended"
	ActivityQuestCompleted     = "Quest Completed"
	ActivityReferralBonus      = "Referral Bonus"
	ActivityReferralTradeBonus = "Referral Trade Bonus"
	ActivitySignalRefused      = "Signal Refused"
	ActivityDiscordVerified    = "Discord Verified"
)

// Activity is one append-only audit-trail entry. Rows are never updated or
// deleted; Date (not CreatedAt) is the authoritative time for streak and
// weekly windowing.
type Activity struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	Address string `gorm:"index:idx_activities_address_date,priority:1;not null" json:"address"`
	Name    string `gorm:"not null" json:"name"`
	Points  int64  `json:"points" gorm:"default:0"`
	Date    time.Time `gorm:"index:idx_activities_address_date,priority:2;index;not null" json:"date"`

	// Correlation fields for trade-triggered awards. TxHash is unique so a
	// retried trade confirmation cannot double-award.
	TxHash     *string `gorm:"uniqueIndex" json:"tx_hash,omitempty"`
	IntentID   *string `gorm:"index" json:"intent_id,omitempty"`
	SignalID   *string `json:"signal_id,omitempty"`
	ReferralID *string `json:"referral_id,omitempty"`

	USDValue decimal.Decimal `gorm:"type:numeric(18,2);default:0" json:"usd_value"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (a *Activity) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
