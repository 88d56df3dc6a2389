package handlers

import (
	"time"

	"gorillionaire/middleware"
	"gorillionaire/services"

	"github.com/gofiber/fiber/v2"
)

// SetupQuestRoutes wires quest progress reads, claims and the Discord
// verification trigger.
func SetupQuestRoutes(app *fiber.App, quests *services.QuestService) {
	app.Get("/quests/:address", middleware.WalletContextMiddleware(), func(c *fiber.Ctx) error {
		address := c.Locals("wallet_address").(string)
		statuses, err := quests.GetUserQuests(c.Context(), address, time.Now().UTC())
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{"quests": statuses})
	})

	app.Post("/quests/claim", func(c *fiber.Ctx) error {
		var body struct {
			Address string `json:"address"`
			QuestID string `json:"quest_id"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		res, err := quests.ClaimQuest(c.Context(), body.Address, body.QuestID)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(recordResultJSON(res))
	})

	app.Post("/quests/discord/verify", func(c *fiber.Ctx) error {
		var body struct {
			Address         string `json:"address"`
			DiscordUsername string `json:"discord_username"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		res, err := quests.VerifyDiscord(c.Context(), body.Address, body.DiscordUsername)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(recordResultJSON(res))
	})
}
