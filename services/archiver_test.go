package services

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"gorillionaire/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLeaderboardRankingAndChances(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []LeaderboardRow{
		{Address: "0xa", WeeklyPoints: 100, WeeklyActivities: 4, CreatedAt: created.Add(72 * time.Hour)},
		{Address: "0xb", WeeklyPoints: 250, WeeklyActivities: 9, CreatedAt: created.Add(48 * time.Hour)},
		{Address: "0xc", WeeklyPoints: 250, WeeklyActivities: 7, CreatedAt: created}, // older account
	}

	entries, total := BuildLeaderboard(rows)

	require.Len(t, entries, 3)
	assert.Equal(t, int64(600), total)

	// Tie on 250 points broken by earlier account creation.
	assert.Equal(t, []string{"0xc", "0xb", "0xa"}, []string{entries[0].Address, entries[1].Address, entries[2].Address})
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 3, entries[2].Rank)

	assert.Equal(t, "41.67", entries[0].WinningChances.StringFixed(2))
	assert.Equal(t, "41.67", entries[1].WinningChances.StringFixed(2))
	assert.Equal(t, "16.67", entries[2].WinningChances.StringFixed(2))
}

func TestBuildLeaderboardDropsNonPositive(t *testing.T) {
	rows := []LeaderboardRow{
		{Address: "0xa", WeeklyPoints: 10},
		{Address: "0xb", WeeklyPoints: 0},
		{Address: "0xc", WeeklyPoints: -5},
	}

	entries, total := BuildLeaderboard(rows)

	require.Len(t, entries, 1)
	assert.Equal(t, "0xa", entries[0].Address)
	assert.Equal(t, int64(10), total)
	assert.Equal(t, "100.00", entries[0].WinningChances.StringFixed(2))
}

func TestBuildLeaderboardEmpty(t *testing.T) {
	entries, total := BuildLeaderboard(nil)
	assert.Empty(t, entries)
	assert.Zero(t, total)
}

func TestWeeklyScoringExclusions(t *testing.T) {
	assert.False(t, IsWeeklyScoring(models.ActivityAccountConnected))
	assert.False(t, IsWeeklyScoring(models.ActivityStreakExtended))
	assert.False(t, IsWeeklyScoring(models.ActivityReferralTradeBonus))

	assert.True(t, IsWeeklyScoring(models.ActivityTrade))
	assert.True(t, IsWeeklyScoring(models.ActivityQuestCompleted))
	assert.True(t, IsWeeklyScoring(models.ActivityReferralBonus))
}

// The cron job, the startup backfill goroutine and the manual archive
// endpoint all draw from the same rand source.
func TestDrawWinnersConcurrently(t *testing.T) {
	arch := &ArchiverService{
		Rand:        rand.New(rand.NewSource(7)),
		WinnerCount: 2,
	}
	entries := []models.SnapshotEntry{
		{Rank: 1, Address: "0xa", WeeklyPoints: 100, WinningChances: decimal.NewFromInt(50)},
		{Rank: 2, Address: "0xb", WeeklyPoints: 60, WinningChances: decimal.NewFromInt(30)},
		{Rank: 3, Address: "0xc", WeeklyPoints: 40, WinningChances: decimal.NewFromInt(20)},
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			winners := arch.drawWinners(entries)
			assert.Len(t, winners, 2)
		}()
	}
	wg.Wait()
}

func TestBuildLeaderboardCarriesReferralAggregates(t *testing.T) {
	rows := []LeaderboardRow{
		{Address: "0xa", WeeklyPoints: 40, TotalReferred: 2, TotalReferralPoints: 100},
	}

	entries, _ := BuildLeaderboard(rows)

	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].TotalReferred)
	assert.Equal(t, int64(100), entries[0].TotalReferralPoints)
}
