package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/service"
)

const AdminKeyHeader = "X-Admin-Key"

// AdminAuth middleware checks the request carries the configured admin key
func AdminAuth(adminSvc *service.AdminService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(AdminKeyHeader)
		if key == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"ok":    false,
				"error": "unauthorized",
			})
		}

		if !adminSvc.IsAdminKey(key) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"ok":    false,
				"error": "access_denied",
			})
		}

		return c.Next()
	}
}
