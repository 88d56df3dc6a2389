package services

import "time"

// Streak tuning. The bonus cap keeps very long streaks from inflating the
// economy; the grace window tolerates activity logged shortly after the
// midnight that would otherwise have reset the streak.
const (
	StreakXPMultiplier = 10
	MaxStreakBonusDays = 365
	StreakGraceHours   = 6
)

// StreakTransition classifies one day-boundary step of a user's streak.
type StreakTransition int

const (
	StreakFirstTime StreakTransition = iota
	StreakSameDay
	StreakConsecutive
	StreakGracePeriod
	StreakReset
)

func (t StreakTransition) String() string {
	switch t {
	case StreakFirstTime:
		return "first_time"
	case StreakSameDay:
		return "same_day"
	case StreakConsecutive:
		return "consecutive"
	case StreakGracePeriod:
		return "grace_period"
	case StreakReset:
		return "reset"
	}
	return "unknown"
}

// StreakResult is the outcome of advancing a streak to "now".
type StreakResult struct {
	Transition StreakTransition
	Streak     int       // new consecutive-day count
	BonusXP    int64     // 0 on SAME_DAY
	LastUpdate time.Time // start-of-day UTC of "now"
}

// StartOfDayUTC normalizes t to midnight UTC. All streak comparisons happen
// on normalized dates so the caller's clock/timezone format cannot shift the
// day boundary.
func StartOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ClassifyStreak decides the day transition between the stored last-update
// (already normalized) and now. The whole-day diff runs on normalized dates;
// the grace branch additionally looks at now's clock time: missing exactly
// one calendar day still counts as consecutive when the new activity lands
// within StreakGraceHours after midnight.
func ClassifyStreak(lastUpdate *time.Time, now time.Time) StreakTransition {
	if lastUpdate == nil {
		return StreakFirstTime
	}
	last := StartOfDayUTC(*lastUpdate)
	today := StartOfDayUTC(now)
	days := int(today.Sub(last).Hours() / 24)

	switch {
	case days <= 0:
		return StreakSameDay
	case days == 1:
		return StreakConsecutive
	case days == 2 && now.UTC().Sub(today) <= StreakGraceHours*time.Hour:
		return StreakGracePeriod
	default:
		return StreakReset
	}
}

// StreakBonusXP is the XP granted for reaching a given streak length.
func StreakBonusXP(streak int) int64 {
	capped := streak
	if capped > MaxStreakBonusDays {
		capped = MaxStreakBonusDays
	}
	return int64(capped) * StreakXPMultiplier
}

// AdvanceStreak applies one transition. Pure: the ledger persists the result
// inside its own transaction.
func AdvanceStreak(current int, lastUpdate *time.Time, now time.Time) StreakResult {
	tr := ClassifyStreak(lastUpdate, now)
	res := StreakResult{Transition: tr, LastUpdate: StartOfDayUTC(now)}

	switch tr {
	case StreakFirstTime:
		res.Streak = 1
	case StreakSameDay:
		res.Streak = current
		res.LastUpdate = StartOfDayUTC(*lastUpdate)
	case StreakConsecutive, StreakGracePeriod:
		res.Streak = current + 1
		res.BonusXP = StreakBonusXP(res.Streak)
	case StreakReset:
		res.Streak = 1
		res.BonusXP = StreakBonusXP(1)
	}
	return res
}
