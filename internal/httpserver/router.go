package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	loggingmw "github.com/akozhevin/accounts-api/internal/middleware/logging"
	"github.com/akozhevin/accounts-api/internal/transport"
	"github.com/akozhevin/accounts-api/internal/validation"
)

type Deps struct {
	AuthHandler *AuthHTTP
	Logger      *slog.Logger
	CORSOrigins []string
	StartedAt   time.Time
}

// Register mounts the middleware stack and the whole HTTP surface.
func Register(e *echo.Echo, d *Deps) {
	e.Validator = validation.New()

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Secure(),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     d.CORSOrigins,
			AllowCredentials: true,
		}),
		middleware.BodyLimit("1M"),
		loggingmw.RequestLogger(d.Logger),
	)

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Accounts API")
	})
	e.GET("/health", d.health)

	api := e.Group("/api")
	api.GET("", func(c echo.Context) error {
		return c.JSON(http.StatusOK, transport.MessageResponse{Message: "accounts api is running"})
	})

	auth := api.Group("/auth")
	auth.POST("/sign-up", d.AuthHandler.SignUp)
	auth.POST("/sign-in", d.AuthHandler.SignIn)
	auth.POST("/sign-out", d.AuthHandler.SignOut)
}

func (d *Deps) health(c echo.Context) error {
	return c.JSON(http.StatusOK, transport.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(d.StartedAt).Round(time.Second).String(),
	})
}
