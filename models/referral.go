package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Referral links a referred wallet to its referrer. A wallet can be referred
// at most once (uniqueIndex on ReferredAddress); BonusAwarded makes the
// join-bonus processing idempotent.
type Referral struct {
	ID              string `gorm:"primaryKey;type:uuid" json:"id"`
	ReferrerAddress string `gorm:"index;not null" json:"referrer_address"`
	ReferredAddress string `gorm:"uniqueIndex;not null" json:"referred_address"`

	ReferralCodeUsed string     `gorm:"not null" json:"referral_code_used"`
	PointsAwarded    int64      `json:"points_awarded" gorm:"default:0"`
	BonusAwarded     bool       `json:"bonus_awarded" gorm:"default:false"`
	AwardedAt        *time.Time `json:"awarded_at,omitempty"`

	Timestamps
}

func (r *Referral) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
