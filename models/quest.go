package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type QuestType string

const (
	QuestTypeTradeCount  QuestType = "trade_count"  // Nth trade of the day
	QuestTypeTradeVolume QuestType = "trade_volume" // cumulative USD volume of the day
	QuestTypeDiscord     QuestType = "discord"      // one-time Discord verification
)

// Quest is a static quest definition. Quests of the same type are ordered by
// Tier and consume the daily metric in tiers: quest i only starts filling
// once the requirements of tiers below it are spent.
type Quest struct {
	ID           string          `gorm:"primaryKey" json:"id"` // slug of the title
	Title        string          `gorm:"not null" json:"title"`
	Description  string          `json:"description"`
	Type         QuestType       `gorm:"index;not null" json:"type"`
	Tier         int             `gorm:"not null;default:0" json:"tier"`
	Requirement  decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"requirement"`
	RewardPoints int64           `gorm:"not null" json:"reward_points"`
	Daily        bool            `gorm:"default:true" json:"daily"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// QuestClaim marks a quest reward as granted. The composite unique index is
// the idempotency guard: daily quests key on (address, quest, day), one-time
// quests store the zero day.
type QuestClaim struct {
	ID      string    `gorm:"primaryKey;type:uuid" json:"id"`
	Address string    `gorm:"uniqueIndex:idx_claims_addr_quest_day,priority:1;not null" json:"address"`
	QuestID string    `gorm:"uniqueIndex:idx_claims_addr_quest_day,priority:2;not null" json:"quest_id"`
	Day     time.Time `gorm:"uniqueIndex:idx_claims_addr_quest_day,priority:3" json:"day"`

	PointsAwarded int64     `json:"points_awarded"`
	ClaimedAt     time.Time `json:"claimed_at" gorm:"autoCreateTime"`
}

func (c *QuestClaim) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func questID(title string) string { return slug.Make(title) }

// DefaultQuests seeds the quest catalog on startup (FirstOrCreate, so edits
// in the DB survive restarts).
var DefaultQuests = []Quest{
	{
		ID:           questID("First Trade of the Day"),
		Title:        "First Trade of the Day",
		Description:  "Complete 1 trade today",
		Type:         QuestTypeTradeCount,
		Tier:         0,
		Requirement:  decimal.NewFromInt(1),
		RewardPoints: 10,
	},
	{
		ID:           questID("Triple Trader"),
		Title:        "Triple Trader",
		Description:  "Complete 3 more trades today",
		Type:         QuestTypeTradeCount,
		Tier:         1,
		Requirement:  decimal.NewFromInt(3),
		RewardPoints: 30,
	},
	{
		ID:           questID("Volume Starter"),
		Title:        "Volume Starter",
		Description:  "Trade $100 in volume today",
		Type:         QuestTypeTradeVolume,
		Tier:         0,
		Requirement:  decimal.NewFromInt(100),
		RewardPoints: 25,
	},
	{
		ID:           questID("Volume Whale"),
		Title:        "Volume Whale",
		Description:  "Trade another $900 in volume today",
		Type:         QuestTypeTradeVolume,
		Tier:         1,
		Requirement:  decimal.NewFromInt(900),
		RewardPoints: 100,
	},
	{
		ID:           questID("Join the Discord"),
		Title:        "Join the Discord",
		Description:  "Verify your Discord account",
		Type:         QuestTypeDiscord,
		Tier:         0,
		Requirement:  decimal.NewFromInt(1),
		RewardPoints: 50,
		Daily:        false,
	},
}
