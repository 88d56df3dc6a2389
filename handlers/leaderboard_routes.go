package handlers

import (
	"strconv"
	"time"

	"gorillionaire/middleware"
	"gorillionaire/services"

	"github.com/gofiber/fiber/v2"
)

// SetupLeaderboardRoutes wires the read-only leaderboard projections plus the
// manual archive trigger used for backfills.
func SetupLeaderboardRoutes(app *fiber.App, leaderboard *services.LeaderboardService, archiver *services.ArchiverService) {
	app.Get("/leaderboard/weekly", func(c *fiber.Ctx) error {
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		standings, err := leaderboard.CurrentWeek(c.Context(), time.Now().UTC(), page, size)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(standings)
	})

	app.Get("/leaderboard/weekly/user/:address", middleware.WalletContextMiddleware(), func(c *fiber.Ctx) error {
		address := c.Locals("wallet_address").(string)
		entry, err := leaderboard.UserCurrentWeek(c.Context(), address, time.Now().UTC())
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(entry)
	})

	app.Get("/leaderboard/history", func(c *fiber.Ctx) error {
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		snapshots, total, err := leaderboard.History(c.Context(), page, size)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{
			"snapshots": snapshots,
			"page":      page,
			"size":      size,
			"total":     total,
		})
	})

	app.Get("/leaderboard/archive/:year/:week", func(c *fiber.Ctx) error {
		year, err := strconv.Atoi(c.Params("year"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid year"})
		}
		week, err := strconv.Atoi(c.Params("week"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid week"})
		}
		snapshot, err := leaderboard.SnapshotByWeek(c.Context(), year, week)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(snapshot)
	})

	app.Get("/leaderboard/rank-history/:address", middleware.WalletContextMiddleware(), func(c *fiber.Ctx) error {
		address := c.Locals("wallet_address").(string)
		series, err := leaderboard.UserRankSeries(c.Context(), address)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{"history": series})
	})

	// Manual archive of an arbitrary historical week. The archiver is
	// idempotent, so re-posting an archived week returns the existing
	// snapshot.
	app.Post("/leaderboard/archive", func(c *fiber.Ctx) error {
		var body struct {
			Date string `json:"date"` // RFC 3339 or YYYY-MM-DD
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		ref, err := time.Parse(time.RFC3339, body.Date)
		if err != nil {
			ref, err = time.Parse("2006-01-02", body.Date)
		}
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid date"})
		}
		if !services.IsWeekOver(ref, time.Now().UTC()) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "week is not over yet"})
		}

		snapshot, err := archiver.ArchiveWeek(c.Context(), ref)
		if err != nil {
			return errorJSON(c, err)
		}
		if snapshot == nil {
			return c.JSON(fiber.Map{"archived": false, "reason": "no participants with positive weekly points"})
		}
		return c.JSON(snapshot)
	})
}
