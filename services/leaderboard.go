package services

import (
	"context"
	"time"

	"gorillionaire/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WeeklyStandings is the live (unarchived) leaderboard for the running week.
type WeeklyStandings struct {
	WeekStart         time.Time              `json:"week_start"`
	WeekEnd           time.Time              `json:"week_end"`
	Year              int                    `json:"year"`
	WeekNumber        int                    `json:"week_number"`
	TotalWeeklyPoints int64                  `json:"total_weekly_points"`
	TotalParticipants int                    `json:"total_participants"`
	Entries           []models.SnapshotEntry `json:"leaderboard"`
}

// UserRankPoint is one week of a user's archived rank history.
type UserRankPoint struct {
	Year         int   `json:"year"`
	WeekNumber   int   `json:"week_number"`
	Rank         int   `json:"rank"`
	WeeklyPoints int64 `json:"weekly_points"`
}

// LeaderboardService is the read-only projection layer: live standings are
// recomputed from the ledger, history comes from the immutable snapshots.
type LeaderboardService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewLeaderboardService(db *gorm.DB, log *zap.Logger) *LeaderboardService {
	return &LeaderboardService{DB: db, Log: log}
}

// CurrentWeek returns one page of the running week's standings.
func (s *LeaderboardService) CurrentWeek(ctx context.Context, now time.Time, page, size int) (*WeeklyStandings, error) {
	standings, err := s.buildCurrentWeek(ctx, now)
	if err != nil {
		return nil, err
	}

	page, size = normalizePage(page, size)
	offset := (page - 1) * size
	if offset >= len(standings.Entries) {
		standings.Entries = []models.SnapshotEntry{}
		return standings, nil
	}
	limit := offset + size
	if limit > len(standings.Entries) {
		limit = len(standings.Entries)
	}
	standings.Entries = standings.Entries[offset:limit]
	return standings, nil
}

// UserCurrentWeek returns a single wallet's live standing, or ErrNotFound if
// it has no scoring activity this week.
func (s *LeaderboardService) UserCurrentWeek(ctx context.Context, address string, now time.Time) (*models.SnapshotEntry, error) {
	address = NormalizeAddress(address)
	standings, err := s.buildCurrentWeek(ctx, now)
	if err != nil {
		return nil, err
	}
	for i := range standings.Entries {
		if standings.Entries[i].Address == address {
			return &standings.Entries[i], nil
		}
	}
	return nil, notFoundf("no weekly standing for %s", address)
}

// History returns a page of archived snapshots, newest week first, without
// their entry lists.
func (s *LeaderboardService) History(ctx context.Context, page, size int) ([]models.WeeklySnapshot, int64, error) {
	page, size = normalizePage(page, size)

	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.WeeklySnapshot{}).Count(&total).Error; err != nil {
		return nil, 0, wrapDBError(err, "count snapshots")
	}
	var snapshots []models.WeeklySnapshot
	err := s.DB.WithContext(ctx).
		Order("year DESC, week_number DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&snapshots).Error
	if err != nil {
		return nil, 0, wrapDBError(err, "list snapshots")
	}
	return snapshots, total, nil
}

// SnapshotByWeek returns one archived week with its full leaderboard and
// raffle winners.
func (s *LeaderboardService) SnapshotByWeek(ctx context.Context, year, week int) (*models.WeeklySnapshot, error) {
	var snapshot models.WeeklySnapshot
	err := s.DB.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("rank ASC") }).
		Preload("RaffleWinners").
		Where("year = ? AND week_number = ?", year, week).
		First(&snapshot).Error
	if err != nil {
		return nil, wrapDBError(err, "snapshot")
	}
	return &snapshot, nil
}

// UserRankSeries returns a wallet's rank across all archived weeks, oldest
// first.
func (s *LeaderboardService) UserRankSeries(ctx context.Context, address string) ([]UserRankPoint, error) {
	address = NormalizeAddress(address)
	var series []UserRankPoint
	err := s.DB.WithContext(ctx).
		Model(&models.SnapshotEntry{}).
		Select("weekly_snapshots.year, weekly_snapshots.week_number, snapshot_entries.rank, snapshot_entries.weekly_points").
		Joins("JOIN weekly_snapshots ON weekly_snapshots.id = snapshot_entries.snapshot_id").
		Where("snapshot_entries.address = ?", address).
		Order("weekly_snapshots.year ASC, weekly_snapshots.week_number ASC").
		Scan(&series).Error
	if err != nil {
		return nil, wrapDBError(err, "user rank series")
	}
	return series, nil
}

func (s *LeaderboardService) buildCurrentWeek(ctx context.Context, now time.Time) (*WeeklyStandings, error) {
	start, end := WeekBoundaries(now)
	year, week := WeekInfo(start)

	rows, err := aggregateWeekRows(s.DB.WithContext(ctx), start, end)
	if err != nil {
		return nil, err
	}
	entries, totalPoints := BuildLeaderboard(rows)

	return &WeeklyStandings{
		WeekStart:         start,
		WeekEnd:           end,
		Year:              year,
		WeekNumber:        week,
		TotalWeeklyPoints: totalPoints,
		TotalParticipants: len(entries),
		Entries:           entries,
	}, nil
}
