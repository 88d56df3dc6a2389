package services

import (
	"math/rand"

	"github.com/shopspring/decimal"
)

const (
	RafflePrizeAmount    = 50 // MON per winner
	DefaultRaffleWinners = 5
)

// RaffleCandidate is one ranked leaderboard entry entering the draw.
type RaffleCandidate struct {
	Rank           int
	Address        string
	WeeklyPoints   int64
	WinningChances decimal.Decimal
}

// SelectWinners draws up to count winners by weighted sampling without
// replacement: each draw picks a candidate with probability proportional to
// its remaining winning chances, then removes it from the pool. Stops early
// when the pool is exhausted or no positive weight remains. The rand source
// is injected so draws are reproducible under test.
func SelectWinners(candidates []RaffleCandidate, count int, rng *rand.Rand) []RaffleCandidate {
	pool := make([]RaffleCandidate, len(candidates))
	copy(pool, candidates)

	winners := make([]RaffleCandidate, 0, count)
	for len(winners) < count && len(pool) > 0 {
		total := 0.0
		for _, c := range pool {
			total += c.WinningChances.InexactFloat64()
		}
		if total <= 0 {
			break
		}

		draw := rng.Float64() * total
		picked := len(pool) - 1
		for i, c := range pool {
			draw -= c.WinningChances.InexactFloat64()
			if draw <= 0 {
				picked = i
				break
			}
		}

		winners = append(winners, pool[picked])
		pool = append(pool[:picked], pool[picked+1:]...)
	}
	return winners
}
