package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/IvanTrutnev/Fitness-app/internal/model"
)

const PrincipalKey = "principal"

// Principal is the verified identity attached to every authenticated request.
type Principal struct {
	UserID uuid.UUID
	Role   model.Role
}

// Auth verifies the bearer token and stores the {userID, role} principal in
// the request context. Token issuance happens elsewhere; this side only needs
// the shared HMAC secret.
func Auth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "authorization token not provided",
			})
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "invalid authorization header format",
			})
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "invalid or expired token",
			})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "invalid token claims",
			})
		}

		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "invalid user id in token",
			})
		}

		role, _ := claims["role"].(string)
		switch model.Role(role) {
		case model.RoleMember, model.RoleTrainer, model.RoleAdmin:
		default:
			role = string(model.RoleMember)
		}

		c.Locals(PrincipalKey, &Principal{
			UserID: userID,
			Role:   model.Role(role),
		})

		return c.Next()
	}
}

// SignToken mints a bearer token for the given principal. The server never
// exposes this over HTTP; it exists for tooling and tests.
func SignToken(secret string, userID uuid.UUID, role model.Role, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"role": string(role),
		"exp":  time.Now().Add(ttl).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// GetPrincipal returns the authenticated principal, or nil outside the auth
// middleware.
func GetPrincipal(c *fiber.Ctx) *Principal {
	principal, ok := c.Locals(PrincipalKey).(*Principal)
	if !ok {
		return nil
	}
	return principal
}
