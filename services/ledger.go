package services

import (
	"context"
	"strings"
	"time"

	"gorillionaire/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Points for activities the ledger itself originates.
const (
	AccountConnectedXP = 10
)

// ActivityMeta carries the optional correlation fields of an activity.
type ActivityMeta struct {
	TxHash     *string
	IntentID   *string
	SignalID   *string
	ReferralID *string
	USDValue   decimal.Decimal
}

// RecordResult is what one recordActivity call changed.
type RecordResult struct {
	User               models.User
	PointsAwarded      int64
	StreakBonusAwarded int64
	NewStreak          int
	StreakChanged      bool
}

// LedgerService owns all mutations of the per-wallet ledger. Every write is a
// single transaction with the user row locked FOR UPDATE, so concurrent calls
// for the same address serialize while different addresses proceed in
// parallel on their own rows.
type LedgerService struct {
	DB       *gorm.DB
	Log      *zap.Logger
	Notifier Notifier
	Now      func() time.Time // overridable clock
}

func NewLedgerService(db *gorm.DB, log *zap.Logger, notifier Notifier) *LedgerService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &LedgerService{DB: db, Log: log, Notifier: notifier, Now: time.Now}
}

func (s *LedgerService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// NormalizeAddress lowercases and trims a wallet address.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func validateActivityInput(address, name string, points int64) error {
	if NormalizeAddress(address) == "" {
		return validationf("address must not be empty")
	}
	if strings.TrimSpace(name) == "" {
		return validationf("activity name must not be empty")
	}
	if points < 0 {
		return validationf("points must be >= 0, got %d", points)
	}
	return nil
}

// RecordActivity appends an activity, adjusts the balance and advances the
// streak, creating the ledger row if the address is new. Used by the
// create-if-absent flows (sign-in, trades, generic awards).
func (s *LedgerService) RecordActivity(ctx context.Context, address, name string, points int64, meta ActivityMeta) (*RecordResult, error) {
	return s.record(ctx, address, name, points, meta, false)
}

// RecordActivityForExisting is the must-exist variant (quest claims, referral
// processing, signal refusals): it fails with ErrNotFound instead of creating
// a ledger row.
func (s *LedgerService) RecordActivityForExisting(ctx context.Context, address, name string, points int64, meta ActivityMeta) (*RecordResult, error) {
	return s.record(ctx, address, name, points, meta, true)
}

func (s *LedgerService) record(ctx context.Context, address, name string, points int64, meta ActivityMeta, mustExist bool) (*RecordResult, error) {
	if err := validateActivityInput(address, name, points); err != nil {
		return nil, err
	}
	address = NormalizeAddress(address)
	now := s.now()

	var res RecordResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.applyRecord(tx, address, name, points, meta, mustExist, now)
		if err != nil {
			return err
		}
		res = *r
		return nil
	})
	if err != nil {
		return nil, wrapDBError(err, "record activity")
	}

	s.notifyResult(name, &res)
	s.Log.Info("activity recorded",
		zap.String("address", res.User.Address),
		zap.String("activity", name),
		zap.Int64("points", res.PointsAwarded),
		zap.Int64("streak_bonus", res.StreakBonusAwarded),
		zap.Int("streak", res.NewStreak),
	)
	return &res, nil
}

// applyRecord is the transaction body of a recordActivity call: lock (or
// create) the user row, append the base activity, advance the streak and
// append its bonus record, save the balance. Quest claims and referral
// processing reuse it inside their own transactions so the claim flag and
// the award commit or abort together.
func (s *LedgerService) applyRecord(tx *gorm.DB, address, name string, points int64, meta ActivityMeta, mustExist bool, now time.Time) (*RecordResult, error) {
	var res RecordResult

	user, err := lockUser(tx, address, mustExist)
	if err != nil {
		return nil, err
	}

	// Trade de-dup: a retried confirmation with the same tx hash is a
	// conflict, not a second award.
	if meta.TxHash != nil {
		var count int64
		if err := tx.Model(&models.Activity{}).Where("tx_hash = ?", *meta.TxHash).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, conflictf("activity for tx %s already recorded", *meta.TxHash)
		}
	}

	activity := models.Activity{
		Address:    user.Address,
		Name:       name,
		Points:     points,
		Date:       now,
		TxHash:     meta.TxHash,
		IntentID:   meta.IntentID,
		SignalID:   meta.SignalID,
		ReferralID: meta.ReferralID,
		USDValue:   meta.USDValue,
	}
	if err := tx.Create(&activity).Error; err != nil {
		return nil, err
	}
	user.Points += points

	streak := AdvanceStreak(user.Streak, user.StreakLastUpdate, now)
	if streak.Transition != StreakSameDay {
		user.Streak = streak.Streak
		last := streak.LastUpdate
		user.StreakLastUpdate = &last
		res.StreakChanged = true
	}
	if streak.BonusXP > 0 {
		bonus := models.Activity{
			Address: user.Address,
			Name:    models.ActivityStreakExtended,
			Points:  streak.BonusXP,
			Date:    now,
		}
		if err := tx.Create(&bonus).Error; err != nil {
			return nil, err
		}
		user.Points += streak.BonusXP
	}

	if err := tx.Save(user).Error; err != nil {
		return nil, err
	}

	res.User = *user
	res.PointsAwarded = points
	res.StreakBonusAwarded = streak.BonusXP
	res.NewStreak = user.Streak
	return &res, nil
}

// SignIn creates the ledger on first connect (with the one-time connect
// award) and touches LastSignIn + streak on every call. The "Account
// Connected" record never scores toward weekly totals.
func (s *LedgerService) SignIn(ctx context.Context, address string) (*RecordResult, error) {
	if NormalizeAddress(address) == "" {
		return nil, validationf("address must not be empty")
	}
	address = NormalizeAddress(address)

	now := s.now()
	var res RecordResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Where("address = ?", address).Count(&existing).Error; err != nil {
			return err
		}
		points := int64(0)
		if existing == 0 {
			points = AccountConnectedXP
		}

		r, err := s.applyRecord(tx, address, models.ActivityAccountConnected, points, ActivityMeta{}, false, now)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("address = ?", address).Update("last_sign_in", now).Error; err != nil {
			return err
		}
		r.User.LastSignIn = &now
		res = *r
		return nil
	})
	if err != nil {
		return nil, wrapDBError(err, "sign in")
	}

	s.notifyResult(models.ActivityAccountConnected, &res)
	return &res, nil
}

// RefuseSignal records that a registered user declined a trade signal. Zero
// points, must-exist: refusing for an unknown wallet is a 404.
func (s *LedgerService) RefuseSignal(ctx context.Context, address, signalID string) (*RecordResult, error) {
	if strings.TrimSpace(signalID) == "" {
		return nil, validationf("signal id must not be empty")
	}
	return s.record(ctx, address, models.ActivitySignalRefused, 0, ActivityMeta{SignalID: &signalID}, true)
}

// GetUser returns the ledger row for an address.
func (s *LedgerService) GetUser(ctx context.Context, address string) (*models.User, error) {
	address = NormalizeAddress(address)
	var user models.User
	if err := s.DB.WithContext(ctx).Where("address = ?", address).First(&user).Error; err != nil {
		return nil, wrapDBError(err, "user "+address)
	}
	return &user, nil
}

// ListActivities returns a page of a user's activities, newest first. The
// sort is explicit here, not a storage-layer side effect.
func (s *LedgerService) ListActivities(ctx context.Context, address string, page, size int) ([]models.Activity, int64, error) {
	address = NormalizeAddress(address)
	page, size = normalizePage(page, size)

	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Activity{}).Where("address = ?", address).Count(&total).Error; err != nil {
		return nil, 0, wrapDBError(err, "count activities")
	}
	var activities []models.Activity
	err := s.DB.WithContext(ctx).
		Where("address = ?", address).
		Order("date DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&activities).Error
	if err != nil {
		return nil, 0, wrapDBError(err, "list activities")
	}
	return activities, total, nil
}

func (s *LedgerService) notifyResult(activity string, res *RecordResult) {
	total := res.PointsAwarded + res.StreakBonusAwarded
	if total > 0 {
		s.Notifier.Notify(Notification{
			Event:    EventXPGained,
			Address:  res.User.Address,
			Activity: activity,
			Points:   total,
			At:       s.now(),
		})
	}
	if res.StreakChanged {
		s.Notifier.Notify(Notification{
			Event:   EventStreakUpdate,
			Address: res.User.Address,
			Streak:  res.NewStreak,
			At:      s.now(),
		})
	}
}

// lockUser fetches the ledger row FOR UPDATE, creating it when allowed. Two
// first-activity calls can race past the select; the insert goes through
// ON CONFLICT DO NOTHING so the loser's transaction stays alive, and the
// locked re-read returns whichever row won.
func lockUser(tx *gorm.DB, address string, mustExist bool) (*models.User, error) {
	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("address = ?", address).
		First(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if mustExist {
		return nil, notFoundf("no ledger for address %s", address)
	}

	fresh := models.User{Address: address}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoNothing: true,
	}).Create(&fresh).Error
	if err != nil {
		return nil, err
	}
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("address = ?", address).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return page, size
}
