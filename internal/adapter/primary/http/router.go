package http

import (
	"context"
	"net/http"
	"time"

	"github.com/alxtravel/travel-payments/internal/config"
	"github.com/alxtravel/travel-payments/internal/port/output"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const rateLimitMessage = "Too many requests. Please try again later."

// RouterDeps holds everything the HTTP surface needs
type RouterDeps struct {
	PaymentHandler *PaymentHandler
	BookingHandler *BookingHandler
	Idempotency    output.IdempotencyStore
	IdempotencyTTL time.Duration
	RateLimit      config.RateLimitConfig
	Gatherer       prometheus.Gatherer
	HealthCheck    func(ctx context.Context) error
	Log            *zap.Logger
}

// NewRouter builds the echo instance with middleware and routes
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewRequestValidator()

	e.Use(middleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/health", func(c echo.Context) error {
		if deps.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := deps.HealthCheck(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	idem := Idempotency(deps.Idempotency, deps.IdempotencyTTL, deps.Log)
	api := e.Group("/api/v1")

	bookings := api.Group("/bookings")
	bookings.POST("", deps.BookingHandler.CreateBooking,
		rateLimiter(deps.RateLimit.BookingRate, deps.RateLimit.BookingBurst), idem)
	bookings.GET("/:id", deps.BookingHandler.GetBooking)

	payments := api.Group("/payments")
	payments.POST("/initiate", deps.PaymentHandler.InitiatePayment,
		rateLimiter(deps.RateLimit.PaymentRate, deps.RateLimit.PaymentBurst), idem)
	payments.GET("/:id", deps.PaymentHandler.GetPayment)

	chapa := api.Group("/chapa")
	chapa.GET("/verify", deps.PaymentHandler.VerifyPayment)
	chapa.GET("/verify/:reference", deps.PaymentHandler.VerifyPayment)
	chapa.POST("/webhook", deps.PaymentHandler.Webhook)

	return e
}

// rateLimiter throttles per client IP. A non-positive rate disables it.
func rateLimiter(rps float64, burst int) echo.MiddlewareFunc {
	if rps <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(rps),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, ErrorResponse{Error: "Unable to identify client"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: rateLimitMessage})
		},
	})
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				log.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}
