package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/IvanTrutnev/Fitness-app/internal/model"
)

// RequireAdmin gates admin-only endpoints. Layered after Auth.
func RequireAdmin() fiber.Handler {
	return requireRoles(model.RoleAdmin)
}

// RequireStaff admits admins and trainers.
func RequireStaff() fiber.Handler {
	return requireRoles(model.RoleAdmin, model.RoleTrainer)
}

func requireRoles(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := GetPrincipal(c)
		if principal == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "unauthorized",
			})
		}

		for _, role := range roles {
			if principal.Role == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "access denied",
		})
	}
}
