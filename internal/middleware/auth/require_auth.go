package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/akozhevin/accounts-api/internal/cookie"
	"github.com/akozhevin/accounts-api/internal/token"
)

// Middleware verifies the auth cookie and exposes the claims to
// downstream handlers. No route mounts it out of the box; mount it on
// any group that should require a signed-in user.
type Middleware struct {
	Issuer *token.Issuer
	Cookie *cookie.Baker
}

func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, err := m.Cookie.Read(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}

		claims, err := m.Issuer.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
		}

		userID, err := claims.UserID()
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
		}

		c.Set("userID", userID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		return next(c)
	}
}
