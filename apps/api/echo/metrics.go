package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gradebook_http_requests_total",
	Help: "Total HTTP requests by method, route and status code",
}, []string{"method", "route", "code"})

// metricsMiddleware counts requests per route template.
func metricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			err := next(ctx)

			code := ctx.Response().Status
			if err != nil {
				if herr, ok := errors.Cause(err).(*echo.HTTPError); ok {
					code = herr.Code
				} else if !ctx.Response().Committed {
					code = 0 // decided by the error handler
				}
			}
			status := strconv.Itoa(code)
			if code == 0 {
				status = "error"
			}
			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			httpRequestsTotal.WithLabelValues(ctx.Request().Method, route, status).Inc()
			return err
		}
	}
}
