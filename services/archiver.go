package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"gorillionaire/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Activities that never score toward weekly totals: the connect award is
// passive, the streak record already compensates daily activity, and the
// referral trade bonus would double-count the referred user's trade.
var ExcludedWeeklyActivities = []string{
	models.ActivityAccountConnected,
	models.ActivityStreakExtended,
	models.ActivityReferralTradeBonus,
}

// IsWeeklyScoring reports whether an activity name counts toward weekly
// leaderboard totals.
func IsWeeklyScoring(name string) bool {
	for _, excluded := range ExcludedWeeklyActivities {
		if name == excluded {
			return false
		}
	}
	return true
}

// SnapshotExporter persists an immutable off-DB copy of an archived week
// (R2/S3). Export failures are logged, never propagated.
type SnapshotExporter interface {
	Export(ctx context.Context, key string, data []byte) error
}

// LeaderboardRow is one participant's aggregate for a week, before ranking.
type LeaderboardRow struct {
	Address             string
	WeeklyPoints        int64
	WeeklyActivities    int
	CreatedAt           time.Time // ledger creation, the tie-breaker
	TotalReferred       int
	TotalReferralPoints int64
}

// ArchiverService turns a finished week of ledger activity into one immutable
// WeeklySnapshot, with raffle winners drawn from the ranked list.
type ArchiverService struct {
	DB          *gorm.DB
	Log         *zap.Logger
	Rand        *rand.Rand
	Exporter    SnapshotExporter // optional
	WinnerCount int

	// randMu serializes draws: the cron job, the startup backfill goroutine
	// and the manual archive endpoint share Rand, which is not safe for
	// concurrent use.
	randMu sync.Mutex
}

func NewArchiverService(db *gorm.DB, log *zap.Logger) *ArchiverService {
	return &ArchiverService{
		DB:          db,
		Log:         log,
		Rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
		WinnerCount: DefaultRaffleWinners,
	}
}

// ArchiveWeek archives the week containing referenceDate. Idempotent: if the
// (year, week) snapshot already exists it is returned unchanged; if nobody
// scored that week it returns (nil, nil) and persists nothing.
func (s *ArchiverService) ArchiveWeek(ctx context.Context, referenceDate time.Time) (*models.WeeklySnapshot, error) {
	start, end := WeekBoundaries(referenceDate)
	year, week := WeekInfo(start)

	if existing, err := s.findSnapshot(ctx, year, week); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	rows, err := aggregateWeekRows(s.DB.WithContext(ctx), start, end)
	if err != nil {
		return nil, err
	}
	entries, totalPoints := BuildLeaderboard(rows)
	if len(entries) == 0 {
		return nil, nil
	}

	snapshot := &models.WeeklySnapshot{
		WeekStart:         start,
		WeekEnd:           end,
		Year:              year,
		WeekNumber:        week,
		TotalWeeklyPoints: totalPoints,
		TotalParticipants: len(entries),
		Entries:           entries,
		RaffleWinners:     s.drawWinners(entries),
	}

	if err := s.DB.WithContext(ctx).Create(snapshot).Error; err != nil {
		// Lost the race to a concurrent archival: the unique (year, week)
		// index fired, so the other trigger's snapshot is authoritative.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.findSnapshot(ctx, year, week)
		}
		return nil, wrapDBError(err, "create snapshot")
	}

	s.Log.Info("week archived",
		zap.Int("year", year),
		zap.Int("week", week),
		zap.Int("participants", snapshot.TotalParticipants),
		zap.Int64("total_points", snapshot.TotalWeeklyPoints),
		zap.Int("raffle_winners", len(snapshot.RaffleWinners)),
	)
	s.export(snapshot)
	return snapshot, nil
}

// ArchivePastWeeks backfills up to 52 finished weeks that have no snapshot
// yet. A failure for one week is logged and does not stop the walk.
func (s *ArchiverService) ArchivePastWeeks(ctx context.Context) {
	now := time.Now().UTC()
	for i := 1; i <= 52; i++ {
		ref := now.AddDate(0, 0, -7*i)
		if !IsWeekOver(ref, now) {
			continue
		}
		if _, err := s.ArchiveWeek(ctx, ref); err != nil {
			year, week := WeekInfo(ref)
			s.Log.Warn("backfill failed for week",
				zap.Int("year", year),
				zap.Int("week", week),
				zap.Error(err),
			)
		}
	}
}

// BuildLeaderboard ranks weekly aggregates: participants with non-positive
// points are dropped, ordering is points descending with ties broken by
// earlier ledger creation, and winning chances are each participant's share
// of the total in percent (2 decimals).
func BuildLeaderboard(rows []LeaderboardRow) ([]models.SnapshotEntry, int64) {
	ranked := make([]LeaderboardRow, 0, len(rows))
	var totalPoints int64
	for _, r := range rows {
		if r.WeeklyPoints <= 0 {
			continue
		}
		ranked = append(ranked, r)
		totalPoints += r.WeeklyPoints
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].WeeklyPoints != ranked[j].WeeklyPoints {
			return ranked[i].WeeklyPoints > ranked[j].WeeklyPoints
		}
		return ranked[i].CreatedAt.Before(ranked[j].CreatedAt)
	})

	total := decimal.NewFromInt(totalPoints)
	entries := make([]models.SnapshotEntry, 0, len(ranked))
	for i, r := range ranked {
		chances := decimal.Zero
		if totalPoints > 0 {
			chances = decimal.NewFromInt(r.WeeklyPoints).Div(total).Mul(decimal.NewFromInt(100)).Round(2)
		}
		entries = append(entries, models.SnapshotEntry{
			Rank:                i + 1,
			Address:             r.Address,
			WeeklyPoints:        r.WeeklyPoints,
			WeeklyActivities:    r.WeeklyActivities,
			TotalReferred:       r.TotalReferred,
			TotalReferralPoints: r.TotalReferralPoints,
			WinningChances:      chances,
		})
	}
	return entries, totalPoints
}

func (s *ArchiverService) drawWinners(entries []models.SnapshotEntry) []models.RaffleWinner {
	candidates := make([]RaffleCandidate, len(entries))
	for i, e := range entries {
		candidates[i] = RaffleCandidate{
			Rank:           e.Rank,
			Address:        e.Address,
			WeeklyPoints:   e.WeeklyPoints,
			WinningChances: e.WinningChances,
		}
	}
	count := s.WinnerCount
	if count <= 0 {
		count = DefaultRaffleWinners
	}
	s.randMu.Lock()
	selected := SelectWinners(candidates, count, s.Rand)
	s.randMu.Unlock()

	winners := make([]models.RaffleWinner, len(selected))
	for i, w := range selected {
		winners[i] = models.RaffleWinner{
			Rank:           w.Rank,
			Address:        w.Address,
			WeeklyPoints:   w.WeeklyPoints,
			WinningChances: w.WinningChances,
			PrizeAmount:    RafflePrizeAmount,
		}
	}
	return winners
}

func (s *ArchiverService) findSnapshot(ctx context.Context, year, week int) (*models.WeeklySnapshot, error) {
	var snapshot models.WeeklySnapshot
	err := s.DB.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("rank ASC") }).
		Preload("RaffleWinners").
		Where("year = ? AND week_number = ?", year, week).
		First(&snapshot).Error
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("snapshot %d-W%d", year, week))
	}
	return &snapshot, nil
}

// aggregateWeekRows sums scoring activities per address over [start, end]
// and joins the referral aggregates for the same window. Shared with the
// live current-week standings.
func aggregateWeekRows(db *gorm.DB, start, end time.Time) ([]LeaderboardRow, error) {
	var rows []LeaderboardRow
	err := db.
		Model(&models.Activity{}).
		Select("activities.address, SUM(activities.points) AS weekly_points, COUNT(*) AS weekly_activities, MIN(users.created_at) AS created_at").
		Joins("JOIN users ON users.address = activities.address").
		Where("activities.date BETWEEN ? AND ?", start, end).
		Where("activities.name NOT IN ?", ExcludedWeeklyActivities).
		Group("activities.address").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapDBError(err, "aggregate weekly activities")
	}

	type referralAgg struct {
		ReferrerAddress     string
		TotalReferred       int
		TotalReferralPoints int64
	}
	var referrals []referralAgg
	err = db.
		Model(&models.Referral{}).
		Select("referrals.referrer_address, COUNT(*) AS total_referred, SUM(referrals.points_awarded) AS total_referral_points").
		Joins("JOIN users ON users.address = referrals.referred_address").
		Where("users.created_at BETWEEN ? AND ?", start, end).
		Group("referrals.referrer_address").
		Scan(&referrals).Error
	if err != nil {
		return nil, wrapDBError(err, "aggregate weekly referrals")
	}

	byReferrer := make(map[string]referralAgg, len(referrals))
	for _, r := range referrals {
		byReferrer[r.ReferrerAddress] = r
	}
	for i := range rows {
		if agg, ok := byReferrer[rows[i].Address]; ok {
			rows[i].TotalReferred = agg.TotalReferred
			rows[i].TotalReferralPoints = agg.TotalReferralPoints
		}
	}
	return rows, nil
}

func (s *ArchiverService) export(snapshot *models.WeeklySnapshot) {
	if s.Exporter == nil {
		return
	}
	go func() {
		data, err := json.Marshal(snapshot)
		if err != nil {
			s.Log.Warn("snapshot export marshal failed", zap.Error(err))
			return
		}
		key := fmt.Sprintf("snapshots/%d-W%02d.json", snapshot.Year, snapshot.WeekNumber)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Exporter.Export(ctx, key, data); err != nil {
			s.Log.Warn("snapshot export failed", zap.String("key", key), zap.Error(err))
		}
	}()
}
