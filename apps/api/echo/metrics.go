package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the API's prometheus metrics.
type Collector struct {
	requests   *prometheus.CounterVec
	logins     *prometheus.CounterVec
	recoveries *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shule_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "status_code"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shule_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		recoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shule_password_recoveries_total",
			Help: "Password recovery requests by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(c.requests, c.logins, c.recoveries)
	return c
}

func (c *Collector) RecordLogin(ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) RecordRecovery(outcome string) {
	c.recoveries.WithLabelValues(outcome).Inc()
}

// Middleware counts requests once the error handler has written the response.
func (c *Collector) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			err := next(ctx)
			if err != nil {
				ctx.Error(err)
			}
			c.requests.WithLabelValues(ctx.Request().Method, strconv.Itoa(ctx.Response().Status)).Inc()
			return nil
		}
	}
}
