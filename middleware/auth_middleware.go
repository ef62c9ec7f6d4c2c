package middleware

import (
	"errors"
	"time"

	"github.com/anjiri1684/gym_studio/services"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// TokenLocal is the locals key holding the parsed *jwt.Token.
const TokenLocal = "user"

// Protected validates the bearer token. Websocket clients cannot set
// headers, so the token is also accepted as a query parameter.
func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(secret),
		ContextKey:   TokenLocal,
		TokenLookup:  "header:Authorization,query:token",
		AuthScheme:   "Bearer",
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "code": fiber.StatusBadRequest, "message": "Missing or malformed JWT"})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "code": fiber.StatusUnauthorized, "message": "Invalid or expired JWT"})
}

// IssueToken signs the claims Protected expects.
func IssueToken(secret string, userID uuid.UUID, role string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// CurrentPrincipal reads the caller from the validated token.
func CurrentPrincipal(c *fiber.Ctx) (services.Principal, error) {
	return PrincipalFromToken(c.Locals(TokenLocal))
}

// PrincipalFromToken converts the value Protected stores in locals. It is
// also used on upgraded websocket connections, which keep a copy of them.
func PrincipalFromToken(v any) (services.Principal, error) {
	token, ok := v.(*jwt.Token)
	if !ok {
		return services.Principal{}, errors.New("no token in request context")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return services.Principal{}, errors.New("unexpected claims type")
	}
	raw, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		return services.Principal{}, errors.New("invalid user_id claim")
	}
	role, _ := claims["role"].(string)
	if role == "" {
		return services.Principal{}, errors.New("missing role claim")
	}
	return services.Principal{UserID: userID, Role: role}, nil
}

// RolesRequired lets the request through only for the given roles.
func RolesRequired(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := CurrentPrincipal(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		if err := services.RequireRole(p, roles...); err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status":  "error",
				"code":    fiber.StatusForbidden,
				"message": "Forbidden: " + p.Role + " access is not allowed here",
			})
		}
		return c.Next()
	}
}

// StaffRequired admits admin, staff and trainer roles.
func StaffRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := CurrentPrincipal(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		if !p.IsStaff() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status":  "error",
				"code":    fiber.StatusForbidden,
				"message": "Forbidden: Staff access required",
			})
		}
		return c.Next()
	}
}
