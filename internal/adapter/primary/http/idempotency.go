package http

import (
	"bytes"
	"net/http"
	"time"

	"github.com/alxtravel/travel-payments/internal/port/output"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// IdempotencyHeader is the request header clients use to make retries safe
const IdempotencyHeader = "Idempotency-Key"

type captureWriter struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated Idempotency-Key.
// Requests without the header, and all requests when store is nil, pass through.
// 5xx responses are not stored so the client may retry them.
func Idempotency(store output.IdempotencyStore, ttl time.Duration, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(IdempotencyHeader)
			if store == nil || key == "" {
				return next(c)
			}
			key = c.Request().Method + ":" + c.Path() + ":" + key
			ctx := c.Request().Context()

			stored, err := store.Get(ctx, key)
			if err != nil {
				log.Warn("idempotency lookup failed", zap.String("key", key), zap.Error(err))
			} else if stored != nil {
				c.Response().Header().Set("Idempotent-Replayed", "true")
				return c.Blob(stored.StatusCode, stored.ContentType, stored.Body)
			}

			res := c.Response()
			cw := &captureWriter{ResponseWriter: res.Writer}
			res.Writer = cw
			if err := next(c); err != nil {
				return err
			}

			if res.Status >= http.StatusInternalServerError {
				return nil
			}
			resp := &output.StoredResponse{
				StatusCode:  res.Status,
				ContentType: res.Header().Get(echo.HeaderContentType),
				Body:        cw.body.Bytes(),
			}
			if err := store.Set(ctx, key, resp, ttl); err != nil {
				log.Warn("idempotency store failed", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}
