package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// WalletContextMiddleware resolves the caller's wallet address from the
// X-Wallet-Address header or the :address route param, normalizes it to
// lowercase and stores it in ctx locals. Routes behind it can rely on a
// well-formed address.
func WalletContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		address := c.Get("X-Wallet-Address")
		if address == "" {
			address = c.Params("address")
		}
		address = strings.ToLower(strings.TrimSpace(address))

		if !validWalletAddress(address) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "missing or malformed wallet address",
			})
		}

		c.Locals("wallet_address", address)
		return c.Next()
	}
}

func validWalletAddress(address string) bool {
	if !strings.HasPrefix(address, "0x") || len(address) != 42 {
		return false
	}
	for _, r := range address[2:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
