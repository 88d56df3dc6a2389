package services

import (
	"context"
	"testing"
	"time"

	"gorillionaire/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestQuests(t *testing.T) (*QuestService, *LedgerService) {
	t.Helper()
	db := newTestDB(t)
	ledger := newTestLedger(t, db)
	quests := NewQuestService(db, zaptest.NewLogger(t), ledger)
	require.NoError(t, quests.SeedQuests(context.Background()))
	return quests, ledger
}

func TestVerifyDiscordPersistsUsernameAndClaimsQuest(t *testing.T) {
	quests, ledger := newTestQuests(t)
	ctx := context.Background()
	addr := "0x1111111111111111111111111111111111111111"

	_, err := ledger.SignIn(ctx, addr)
	require.NoError(t, err)

	res, err := quests.VerifyDiscord(ctx, addr, "gorilla#1337")
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.PointsAwarded)

	user, err := ledger.GetUser(ctx, addr)
	require.NoError(t, err)
	require.NotNil(t, user.DiscordUsername)
	assert.Equal(t, "gorilla#1337", *user.DiscordUsername)
	assert.Equal(t, int64(60), user.Points) // connect bonus + discord quest reward

	_, err = quests.VerifyDiscord(ctx, addr, "gorilla#1337")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestClaimQuestGrantsOncePerDay(t *testing.T) {
	quests, ledger := newTestQuests(t)
	ctx := context.Background()
	addr := "0x2222222222222222222222222222222222222222"

	clock := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)
	ledger.Now = func() time.Time { return clock }

	_, err := ledger.SignIn(ctx, addr)
	require.NoError(t, err)
	_, err = ledger.RecordActivity(ctx, addr, models.ActivityTrade, 5, ActivityMeta{})
	require.NoError(t, err)

	res, err := quests.ClaimQuest(ctx, addr, "first-trade-of-the-day")
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.PointsAwarded)

	_, err = quests.ClaimQuest(ctx, addr, "first-trade-of-the-day")
	assert.ErrorIs(t, err, ErrConflict)

	// One trade does not reach the next tier.
	_, err = quests.ClaimQuest(ctx, addr, "triple-trader")
	assert.ErrorIs(t, err, ErrValidation)

	// The daily claim resets with the day.
	clock = clock.AddDate(0, 0, 1)
	_, err = ledger.RecordActivity(ctx, addr, models.ActivityTrade, 5, ActivityMeta{})
	require.NoError(t, err)
	res, err = quests.ClaimQuest(ctx, addr, "first-trade-of-the-day")
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.PointsAwarded)
}

func TestClaimQuestUnknownID(t *testing.T) {
	quests, ledger := newTestQuests(t)
	ctx := context.Background()
	addr := "0x3333333333333333333333333333333333333333"

	_, err := ledger.SignIn(ctx, addr)
	require.NoError(t, err)

	_, err = quests.ClaimQuest(ctx, addr, "no-such-quest")
	assert.ErrorIs(t, err, ErrNotFound)
}
