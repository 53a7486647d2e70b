package cookie

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Baker attaches the auth cookie with a fixed set of base attributes:
// HttpOnly always, SameSite strict, Secure only in production mode.
// MaxAge is independent from the token TTL on purpose.
type Baker struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

type Option func(*http.Cookie)

func WithPath(path string) Option {
	return func(c *http.Cookie) { c.Path = path }
}

func WithMaxAge(d time.Duration) Option {
	return func(c *http.Cookie) {
		c.MaxAge = int(d.Seconds())
		c.Expires = time.Now().Add(d)
	}
}

func (b *Baker) base(value string) *http.Cookie {
	return &http.Cookie{
		Name:     b.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(b.MaxAge.Seconds()),
		Expires:  time.Now().Add(b.MaxAge),
		HttpOnly: true,
		Secure:   b.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (b *Baker) Set(c echo.Context, value string, opts ...Option) {
	ck := b.base(value)
	for _, opt := range opts {
		opt(ck)
	}
	c.SetCookie(ck)
}

func (b *Baker) Clear(c echo.Context, opts ...Option) {
	ck := b.base("")
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0)
	for _, opt := range opts {
		opt(ck)
	}
	c.SetCookie(ck)
}

// Read returns the cookie value; err is http.ErrNoCookie when absent.
func (b *Baker) Read(c echo.Context) (string, error) {
	ck, err := c.Cookie(b.Name)
	if err != nil {
		return "", err
	}
	return ck.Value, nil
}
