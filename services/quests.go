package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"gorillionaire/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuestStatus is one quest with the caller's live progress.
type QuestStatus struct {
	Quest     models.Quest    `json:"quest"`
	Progress  decimal.Decimal `json:"progress"` // clamped to the quest's own requirement
	Completed bool            `json:"completed"`
	Claimed   bool            `json:"claimed"`
}

// QuestService derives quest progress from the activity history and grants
// rewards through the ledger. It stores claims, never progress: progress is
// always recomputed from the same-day activities.
type QuestService struct {
	DB     *gorm.DB
	Log    *zap.Logger
	Ledger *LedgerService
}

func NewQuestService(db *gorm.DB, log *zap.Logger, ledger *LedgerService) *QuestService {
	return &QuestService{DB: db, Log: log, Ledger: ledger}
}

// SeedQuests inserts the default quest catalog, keeping any rows an operator
// already edited.
func (s *QuestService) SeedQuests(ctx context.Context) error {
	for _, q := range models.DefaultQuests {
		quest := q
		if err := s.DB.WithContext(ctx).FirstOrCreate(&quest, models.Quest{ID: quest.ID}).Error; err != nil {
			return wrapDBError(err, "seed quest "+quest.ID)
		}
	}
	return nil
}

// TierProgress computes how much of the shared metric falls to the quest at
// index i of a tier-ordered list: lower tiers consume the metric first, and
// the result is clamped to the quest's own requirement.
func TierProgress(metric decimal.Decimal, quests []models.Quest, i int) decimal.Decimal {
	consumed := decimal.Zero
	for j := 0; j < i; j++ {
		consumed = consumed.Add(quests[j].Requirement)
	}
	progress := metric.Sub(consumed)
	if progress.IsNegative() {
		return decimal.Zero
	}
	if progress.GreaterThan(quests[i].Requirement) {
		return quests[i].Requirement
	}
	return progress
}

// GetUserQuests returns every quest with the user's progress and claim state
// for "now". Must-exist: unknown wallets get ErrNotFound.
func (s *QuestService) GetUserQuests(ctx context.Context, address string, now time.Time) ([]QuestStatus, error) {
	address = NormalizeAddress(address)
	if _, err := s.Ledger.GetUser(ctx, address); err != nil {
		return nil, err
	}

	var quests []models.Quest
	if err := s.DB.WithContext(ctx).Order("type ASC, tier ASC").Find(&quests).Error; err != nil {
		return nil, wrapDBError(err, "list quests")
	}

	metrics, err := s.dailyMetrics(ctx, address, now)
	if err != nil {
		return nil, err
	}
	claimed, err := s.claimedSet(ctx, address, now)
	if err != nil {
		return nil, err
	}

	byType := make(map[models.QuestType][]models.Quest)
	for _, q := range quests {
		byType[q.Type] = append(byType[q.Type], q)
	}

	statuses := make([]QuestStatus, 0, len(quests))
	for _, group := range byType {
		metric := metrics[group[0].Type]
		for i, q := range group {
			progress := TierProgress(metric, group, i)
			statuses = append(statuses, QuestStatus{
				Quest:     q,
				Progress:  progress,
				Completed: progress.GreaterThanOrEqual(q.Requirement),
				Claimed:   claimed[q.ID],
			})
		}
	}
	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].Quest.Type != statuses[j].Quest.Type {
			return statuses[i].Quest.Type < statuses[j].Quest.Type
		}
		return statuses[i].Quest.Tier < statuses[j].Quest.Tier
	})
	return statuses, nil
}

// ClaimQuest grants a completed quest's reward exactly once. The claim row
// and the point award commit in the same transaction; re-claiming hits the
// (address, quest, day) unique index and fails with ErrConflict.
func (s *QuestService) ClaimQuest(ctx context.Context, address, questID string) (*RecordResult, error) {
	address = NormalizeAddress(address)
	questID = strings.TrimSpace(questID)
	if address == "" || questID == "" {
		return nil, validationf("address and quest id must not be empty")
	}
	now := s.Ledger.now()

	var res RecordResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quest models.Quest
		if err := tx.Where("id = ?", questID).First(&quest).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return notFoundf("quest %s", questID)
			}
			return err
		}

		day := time.Time{}
		if quest.Daily {
			day = StartOfDayUTC(now)
		}

		var existing int64
		if err := tx.Model(&models.QuestClaim{}).
			Where("address = ? AND quest_id = ? AND day = ?", address, questID, day).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return conflictf("quest %s already claimed", questID)
		}

		completed, err := s.questCompleted(tx, address, quest, now)
		if err != nil {
			return err
		}
		if !completed {
			return validationf("quest %s is not completed", questID)
		}

		claim := models.QuestClaim{
			Address:       address,
			QuestID:       questID,
			Day:           day,
			PointsAwarded: quest.RewardPoints,
		}
		if err := tx.Create(&claim).Error; err != nil {
			return err
		}

		r, err := s.Ledger.applyRecord(tx, address, models.ActivityQuestCompleted, quest.RewardPoints, ActivityMeta{}, true, now)
		if err != nil {
			return err
		}
		res = *r
		return nil
	})
	if err != nil {
		return nil, wrapDBError(err, "claim quest")
	}

	s.Ledger.notifyResult(models.ActivityQuestCompleted, &res)
	s.Log.Info("quest claimed",
		zap.String("address", address),
		zap.String("quest", questID),
		zap.Int64("points", res.PointsAwarded),
	)
	return &res, nil
}

// VerifyDiscord records the one-time Discord verification, stores the
// verified username on the ledger row, then claims the Discord quest. The
// verification activity and the username update commit together.
func (s *QuestService) VerifyDiscord(ctx context.Context, address, discordUsername string) (*RecordResult, error) {
	address = NormalizeAddress(address)
	discordUsername = strings.TrimSpace(discordUsername)
	if address == "" || discordUsername == "" {
		return nil, validationf("address and discord username must not be empty")
	}
	now := s.Ledger.now()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Activity{}).
			Where("address = ? AND name = ?", address, models.ActivityDiscordVerified).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflictf("discord already verified for %s", address)
		}

		if _, err := s.Ledger.applyRecord(tx, address, models.ActivityDiscordVerified, 0, ActivityMeta{}, true, now); err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("address = ?", address).
			Update("discord_username", discordUsername).Error
	})
	if err != nil {
		return nil, wrapDBError(err, "verify discord")
	}

	var quest models.Quest
	if err := s.DB.WithContext(ctx).Where("type = ?", models.QuestTypeDiscord).Order("tier ASC").First(&quest).Error; err != nil {
		return nil, wrapDBError(err, "discord quest")
	}
	return s.ClaimQuest(ctx, address, quest.ID)
}

// questCompleted recomputes a single quest's progress inside the claim
// transaction so the decision and the claim see the same history.
func (s *QuestService) questCompleted(tx *gorm.DB, address string, quest models.Quest, now time.Time) (bool, error) {
	var group []models.Quest
	if err := tx.Where("type = ?", quest.Type).Order("tier ASC").Find(&group).Error; err != nil {
		return false, err
	}
	idx := -1
	for i, q := range group {
		if q.ID == quest.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, notFoundf("quest %s", quest.ID)
	}

	metric, err := dailyMetric(tx, address, quest.Type, now)
	if err != nil {
		return false, err
	}
	return TierProgress(metric, group, idx).GreaterThanOrEqual(quest.Requirement), nil
}

func (s *QuestService) dailyMetrics(ctx context.Context, address string, now time.Time) (map[models.QuestType]decimal.Decimal, error) {
	metrics := make(map[models.QuestType]decimal.Decimal, 3)
	for _, qt := range []models.QuestType{models.QuestTypeTradeCount, models.QuestTypeTradeVolume, models.QuestTypeDiscord} {
		m, err := dailyMetric(s.DB.WithContext(ctx), address, qt, now)
		if err != nil {
			return nil, err
		}
		metrics[qt] = m
	}
	return metrics, nil
}

// dailyMetric is the raw quest metric for one day: trade count, summed trade
// USD volume, or (lifetime) Discord verification.
func dailyMetric(db *gorm.DB, address string, qt models.QuestType, now time.Time) (decimal.Decimal, error) {
	dayStart := StartOfDayUTC(now)
	dayEnd := dayStart.AddDate(0, 0, 1)

	switch qt {
	case models.QuestTypeTradeCount:
		var count int64
		err := db.Model(&models.Activity{}).
			Where("address = ? AND name = ? AND date >= ? AND date < ?", address, models.ActivityTrade, dayStart, dayEnd).
			Count(&count).Error
		if err != nil {
			return decimal.Zero, wrapDBError(err, "daily trade count")
		}
		return decimal.NewFromInt(count), nil

	case models.QuestTypeTradeVolume:
		var volume decimal.NullDecimal
		err := db.Model(&models.Activity{}).
			Select("SUM(usd_value)").
			Where("address = ? AND name = ? AND date >= ? AND date < ?", address, models.ActivityTrade, dayStart, dayEnd).
			Scan(&volume).Error
		if err != nil {
			return decimal.Zero, wrapDBError(err, "daily trade volume")
		}
		if !volume.Valid {
			return decimal.Zero, nil
		}
		return volume.Decimal, nil

	case models.QuestTypeDiscord:
		var count int64
		err := db.Model(&models.Activity{}).
			Where("address = ? AND name = ?", address, models.ActivityDiscordVerified).
			Count(&count).Error
		if err != nil {
			return decimal.Zero, wrapDBError(err, "discord verification")
		}
		return decimal.NewFromInt(count), nil
	}
	return decimal.Zero, nil
}

func (s *QuestService) claimedSet(ctx context.Context, address string, now time.Time) (map[string]bool, error) {
	day := StartOfDayUTC(now)
	var claims []models.QuestClaim
	err := s.DB.WithContext(ctx).
		Where("address = ? AND (day = ? OR day = ?)", address, day, time.Time{}).
		Find(&claims).Error
	if err != nil {
		return nil, wrapDBError(err, "list claims")
	}
	set := make(map[string]bool, len(claims))
	for _, c := range claims {
		set[c.QuestID] = true
	}
	return set, nil
}
