package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d, hour, min int) time.Time {
	return time.Date(y, m, d, hour, min, 0, 0, time.UTC)
}

func TestStartOfDayUTC(t *testing.T) {
	in := time.Date(2024, 6, 12, 23, 45, 12, 999, time.FixedZone("CET", 3600))
	got := StartOfDayUTC(in)
	assert.Equal(t, time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestAdvanceStreakFirstTime(t *testing.T) {
	res := AdvanceStreak(0, nil, date(2024, 6, 10, 15, 0))

	assert.Equal(t, StreakFirstTime, res.Transition)
	assert.Equal(t, 1, res.Streak)
	assert.Equal(t, int64(0), res.BonusXP)
	assert.Equal(t, date(2024, 6, 10, 0, 0), res.LastUpdate)
}

func TestAdvanceStreakSameDay(t *testing.T) {
	last := date(2024, 6, 10, 0, 0)
	res := AdvanceStreak(1, &last, date(2024, 6, 10, 22, 0))

	assert.Equal(t, StreakSameDay, res.Transition)
	assert.Equal(t, 1, res.Streak)
	assert.Equal(t, int64(0), res.BonusXP)
	assert.Equal(t, last, res.LastUpdate)
}

func TestAdvanceStreakConsecutive(t *testing.T) {
	last := date(2024, 6, 10, 0, 0)
	res := AdvanceStreak(1, &last, date(2024, 6, 11, 9, 30))

	assert.Equal(t, StreakConsecutive, res.Transition)
	assert.Equal(t, 2, res.Streak)
	assert.Equal(t, int64(20), res.BonusXP)
	assert.Equal(t, date(2024, 6, 11, 0, 0), res.LastUpdate)
}

// Clock times never shift the day diff: 23:00 followed by 04:00 the next
// calendar day is still consecutive because both sides normalize to midnight
// before diffing.
func TestAdvanceStreakConsecutiveAcrossMidnight(t *testing.T) {
	last := StartOfDayUTC(date(2024, 6, 10, 23, 0))
	res := AdvanceStreak(3, &last, date(2024, 6, 11, 4, 0))

	assert.Equal(t, StreakConsecutive, res.Transition)
	assert.Equal(t, 4, res.Streak)
	assert.Equal(t, int64(40), res.BonusXP)
}

func TestAdvanceStreakGracePeriod(t *testing.T) {
	last := date(2024, 6, 10, 0, 0)

	// Two calendar days later but only 04:00 — inside the 6h grace window,
	// so the streak extends instead of resetting.
	res := AdvanceStreak(5, &last, date(2024, 6, 12, 4, 0))
	assert.Equal(t, StreakGracePeriod, res.Transition)
	assert.Equal(t, 6, res.Streak)
	assert.Equal(t, int64(60), res.BonusXP)

	// Same day gap at 07:00 is past the window.
	res = AdvanceStreak(5, &last, date(2024, 6, 12, 7, 0))
	assert.Equal(t, StreakReset, res.Transition)
	assert.Equal(t, 1, res.Streak)
	assert.Equal(t, int64(10), res.BonusXP)
}

func TestAdvanceStreakReset(t *testing.T) {
	last := date(2024, 6, 10, 0, 0)
	res := AdvanceStreak(7, &last, date(2024, 6, 13, 12, 0)) // 72h gap

	assert.Equal(t, StreakReset, res.Transition)
	assert.Equal(t, 1, res.Streak)
	assert.Equal(t, int64(10), res.BonusXP)
}

func TestStreakBonusXPCap(t *testing.T) {
	assert.Equal(t, int64(20), StreakBonusXP(2))
	assert.Equal(t, int64(3650), StreakBonusXP(365))
	assert.Equal(t, int64(3650), StreakBonusXP(400), "bonus must cap at %d days", MaxStreakBonusDays)
}

// The spec's documented sequence: day 1, same day, day 2, then a 72h gap.
func TestStreakSequence(t *testing.T) {
	var last *time.Time
	streak := 0

	step := func(now time.Time) StreakResult {
		res := AdvanceStreak(streak, last, now)
		if res.Transition != StreakSameDay {
			streak = res.Streak
			lu := res.LastUpdate
			last = &lu
		}
		return res
	}

	res := step(date(2024, 6, 10, 12, 0))
	require.Equal(t, 1, res.Streak)

	res = step(date(2024, 6, 10, 18, 0))
	require.Equal(t, StreakSameDay, res.Transition)
	require.Equal(t, 1, streak)

	res = step(date(2024, 6, 11, 12, 0))
	require.Equal(t, 2, res.Streak)
	require.Equal(t, int64(20), res.BonusXP)

	res = step(date(2024, 6, 14, 12, 0))
	require.Equal(t, StreakReset, res.Transition)
	require.Equal(t, 1, res.Streak)
	require.Equal(t, int64(10), res.BonusXP)
}
