package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tuanphamdev/meeting-scribe/pkg/jwt"
)

const (
	// RequesterIDKey is the echo context key holding the authenticated
	// platform user ID
	RequesterIDKey = "requester_id"
	// RequesterClaimsKey holds the full token claims
	RequesterClaimsKey = "requester_claims"
)

// EchoAuth returns an Echo middleware that validates the bearer token and
// sets the requester identity into the Echo context. Summary access checks
// downstream are keyed by this identity.
func EchoAuth(manager *jwt.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization token")
			}

			claims, err := manager.ValidateToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set(RequesterIDKey, claims.UserID)
			c.Set(RequesterClaimsKey, claims)

			return next(c)
		}
	}
}

// RequesterID returns the authenticated user ID from the Echo context
func RequesterID(c echo.Context) string {
	id, _ := c.Get(RequesterIDKey).(string)
	return id
}

func extractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}
	return ""
}
