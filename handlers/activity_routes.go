package handlers

import (
	"strconv"

	"gorillionaire/middleware"
	"gorillionaire/models"
	"gorillionaire/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SetupActivityRoutes wires the inbound ledger triggers: sign-in, confirmed
// trades, signal refusals and referral processing.
func SetupActivityRoutes(app *fiber.App, ledger *services.LedgerService, referrals *services.ReferralService, log *zap.Logger) {
	app.Post("/activity/signin", func(c *fiber.Ctx) error {
		var body struct {
			Address string `json:"address"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		res, err := ledger.SignIn(c.Context(), body.Address)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(recordResultJSON(res))
	})

	app.Post("/activity/trade", func(c *fiber.Ctx) error {
		var body struct {
			Address  string          `json:"address"`
			Points   int64           `json:"points"`
			TxHash   string          `json:"tx_hash"`
			IntentID string          `json:"intent_id"`
			SignalID string          `json:"signal_id"`
			USDValue decimal.Decimal `json:"usd_value"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		if body.TxHash == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "tx_hash is required"})
		}

		meta := services.ActivityMeta{
			TxHash:   &body.TxHash,
			USDValue: body.USDValue,
		}
		if body.IntentID != "" {
			meta.IntentID = &body.IntentID
		}
		if body.SignalID != "" {
			meta.SignalID = &body.SignalID
		}

		res, err := ledger.RecordActivity(c.Context(), body.Address, models.ActivityTrade, body.Points, meta)
		if err != nil {
			return errorJSON(c, err)
		}

		// Referrer cut is best-effort: the trade award already committed.
		if _, err := referrals.AwardTradeBonus(c.Context(), body.Address, body.Points); err != nil {
			log.Warn("referral trade bonus failed",
				zap.String("trader", body.Address),
				zap.Error(err),
			)
		}
		return c.JSON(recordResultJSON(res))
	})

	app.Post("/activity/signal/refuse", func(c *fiber.Ctx) error {
		var body struct {
			Address  string `json:"address"`
			SignalID string `json:"signal_id"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		res, err := ledger.RefuseSignal(c.Context(), body.Address, body.SignalID)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(recordResultJSON(res))
	})

	app.Post("/referrals", func(c *fiber.Ctx) error {
		var body struct {
			ReferrerAddress string `json:"referrer_address"`
			ReferredAddress string `json:"referred_address"`
			Code            string `json:"code"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		referral, err := referrals.RegisterReferral(c.Context(), body.ReferrerAddress, body.ReferredAddress, body.Code)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(referral)
	})

	app.Post("/referrals/process", func(c *fiber.Ctx) error {
		var body struct {
			ReferredAddress string `json:"referred_address"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		res, err := referrals.ProcessReferralBonus(c.Context(), body.ReferredAddress)
		if err != nil {
			return errorJSON(c, err)
		}
		if res == nil {
			return c.JSON(fiber.Map{"awarded": false})
		}
		return c.JSON(fiber.Map{"awarded": true, "result": recordResultJSON(res)})
	})

	userGroup := app.Group("/users/:address", middleware.WalletContextMiddleware())

	userGroup.Get("/", func(c *fiber.Ctx) error {
		address := c.Locals("wallet_address").(string)
		user, err := ledger.GetUser(c.Context(), address)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(user)
	})

	userGroup.Get("/activities", func(c *fiber.Ctx) error {
		address := c.Locals("wallet_address").(string)
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		activities, total, err := ledger.ListActivities(c.Context(), address, page, size)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{
			"activities": activities,
			"page":       page,
			"size":       size,
			"total":      total,
		})
	})
}

func recordResultJSON(res *services.RecordResult) fiber.Map {
	return fiber.Map{
		"address":              res.User.Address,
		"points":               res.User.Points,
		"points_awarded":       res.PointsAwarded,
		"streak_bonus_awarded": res.StreakBonusAwarded,
		"new_streak":           res.NewStreak,
	}
}
