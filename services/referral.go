package services

import (
	"context"
	"errors"
	"strings"

	"gorillionaire/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ReferralBonusXP           = 50 // referrer award once the referred wallet joins
	ReferralTradeBonusPercent = 10 // referrer's cut of a referred user's trade points
)

// ReferralService registers referrals and feeds referral awards back through
// the ledger.
type ReferralService struct {
	DB     *gorm.DB
	Log    *zap.Logger
	Ledger *LedgerService
}

func NewReferralService(db *gorm.DB, log *zap.Logger, ledger *LedgerService) *ReferralService {
	return &ReferralService{DB: db, Log: log, Ledger: ledger}
}

// RegisterReferral links a referred wallet to its referrer. The referrer must
// already have a ledger; a wallet can only be referred once.
func (s *ReferralService) RegisterReferral(ctx context.Context, referrerAddress, referredAddress, code string) (*models.Referral, error) {
	referrerAddress = NormalizeAddress(referrerAddress)
	referredAddress = NormalizeAddress(referredAddress)
	if referrerAddress == "" || referredAddress == "" {
		return nil, validationf("referrer and referred addresses must not be empty")
	}
	if referrerAddress == referredAddress {
		return nil, validationf("cannot refer yourself")
	}

	if _, err := s.Ledger.GetUser(ctx, referrerAddress); err != nil {
		return nil, err
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Referral{}).Where("referred_address = ?", referredAddress).Count(&count).Error; err != nil {
		return nil, wrapDBError(err, "check referral")
	}
	if count > 0 {
		return nil, conflictf("%s was already referred", referredAddress)
	}

	referral := models.Referral{
		ReferrerAddress:  referrerAddress,
		ReferredAddress:  referredAddress,
		ReferralCodeUsed: strings.TrimSpace(code),
	}
	if err := s.DB.WithContext(ctx).Create(&referral).Error; err != nil {
		return nil, wrapDBError(err, "create referral")
	}
	s.Log.Info("referral registered",
		zap.String("referrer", referrerAddress),
		zap.String("referred", referredAddress),
	)
	return &referral, nil
}

// ProcessReferralBonus awards the referrer once the referred wallet has
// joined. Idempotent: already-awarded referrals are a no-op, and the
// BonusAwarded flag flips in the same transaction as the award.
func (s *ReferralService) ProcessReferralBonus(ctx context.Context, referredAddress string) (*RecordResult, error) {
	referredAddress = NormalizeAddress(referredAddress)
	if referredAddress == "" {
		return nil, validationf("referred address must not be empty")
	}

	var res RecordResult
	awarded := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var referral models.Referral
		if err := tx.Where("referred_address = ?", referredAddress).First(&referral).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return notFoundf("no referral for %s", referredAddress)
			}
			return err
		}
		if referral.BonusAwarded {
			return nil
		}

		now := s.Ledger.now()
		r, err := s.Ledger.applyRecord(tx, referral.ReferrerAddress, models.ActivityReferralBonus, ReferralBonusXP, ActivityMeta{ReferralID: &referral.ID}, true, now)
		if err != nil {
			return err
		}

		referral.BonusAwarded = true
		referral.PointsAwarded = ReferralBonusXP
		referral.AwardedAt = &now
		if err := tx.Save(&referral).Error; err != nil {
			return err
		}

		res = *r
		awarded = true
		return nil
	})
	if err != nil {
		return nil, wrapDBError(err, "process referral bonus")
	}
	if !awarded {
		return nil, nil
	}

	s.Ledger.notifyResult(models.ActivityReferralBonus, &res)
	return &res, nil
}

// AwardTradeBonus gives the referrer a percentage cut of a referred user's
// trade points. Silent no-op when the trader was not referred or the cut
// rounds to zero; the bonus record is excluded from weekly totals so the
// trade is not double-counted.
func (s *ReferralService) AwardTradeBonus(ctx context.Context, traderAddress string, tradePoints int64) (*RecordResult, error) {
	traderAddress = NormalizeAddress(traderAddress)

	var referral models.Referral
	err := s.DB.WithContext(ctx).Where("referred_address = ?", traderAddress).First(&referral).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, wrapDBError(err, "lookup referral")
	}

	bonus := tradePoints * ReferralTradeBonusPercent / 100
	if bonus <= 0 {
		return nil, nil
	}
	return s.Ledger.RecordActivityForExisting(ctx, referral.ReferrerAddress, models.ActivityReferralTradeBonus, bonus, ActivityMeta{ReferralID: &referral.ID})
}
