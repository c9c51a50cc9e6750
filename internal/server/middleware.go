package server

import (
	"strconv"
	"time"

	"project-tracker/internal/metrics"
	"project-tracker/internal/service"

	"github.com/labstack/echo/v4"
)

const ActorHeader = "X-Actor"

// ActorMiddleware attaches the calling actor to the request context.
func ActorMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if actor := c.Request().Header.Get(ActorHeader); actor != "" {
			req := c.Request()
			c.SetRequest(req.WithContext(service.WithActor(req.Context(), actor)))
		}
		return next(c)
	}
}

func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}

		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestDuration.
			WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}
