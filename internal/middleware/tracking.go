package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/michels-travel/internal/model"
)

// SessionHeader carries the web client's anonymous session ID.
const SessionHeader = "X-Session-ID"

// Tracker stores navigation events.
type Tracker interface {
	Track(ctx context.Context, e model.NavigationEvent)
}

// Navigation records every API request once the response is written. The
// path is the route template, so /v1/bookings/:ref counts as one page.
// Health checks and CORS preflights are skipped. Events are stored in the
// background so tracking never slows a response down.
func Navigation(t Tracker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			if r.Method == echo.OPTIONS || strings.HasPrefix(r.URL.Path, "/health") {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			path := c.Path()
			if path == "" || errors.Is(err, echo.ErrNotFound) {
				path = r.URL.Path
			}
			e := model.NavigationEvent{
				SessionID:  truncate(r.Header.Get(SessionHeader), 64),
				Method:     r.Method,
				Path:       truncate(path, 255),
				Status:     status,
				Referrer:   truncate(r.Referer(), 512),
				UserAgent:  truncate(r.UserAgent(), 512),
				IP:         truncate(c.RealIP(), 45),
				DurationMS: time.Since(start).Milliseconds(),
				CreatedAt:  start.UTC(),
			}
			if id, ok := UserID(c); ok {
				e.UserID = &id
			}
			go t.Track(context.WithoutCancel(r.Context()), e)
			return err
		}
	}
}

// truncate keeps at most n bytes of s without splitting a rune. Invalid
// UTF-8 from client headers is dropped so utf8mb4 columns accept the row.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
