package middleware

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/northbridge-systems/commerce-core/internal/domain"
	"github.com/northbridge-systems/commerce-core/internal/idempotency"
)

const (
	// IdempotencyKeyHeader is the caller-supplied replay key.
	IdempotencyKeyHeader = "Idempotency-Key"
	// ReplayHeader marks a response served from the idempotency cache.
	ReplayHeader = "X-Idempotent-Replay"
	// MaxIdempotentBodyBytes bounds how much of a request/response body
	// this middleware will buffer and cache, rejecting oversized bodies
	// with a validation error instead of silently truncating them.
	MaxIdempotentBodyBytes = 1 << 20 // 1 MiB
)

// bodyCapturingResponseWriter records the status code and body written by
// the wrapped handler so it can be cached verbatim for replay.
type bodyCapturingResponseWriter struct {
	http.ResponseWriter
	status int
	body   *bytes.Buffer
}

func (w *bodyCapturingResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *bodyCapturingResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware applies the Idempotency-Key contract to mutating
// requests. GET/HEAD and requests with no Idempotency-Key header pass
// through untouched. On a cache hit it replays the stored response and
// sets X-Idempotent-Replay: true. On a fingerprint mismatch it returns 409.
// Responses with status >= 500 are never cached.
func IdempotencyMiddleware(cache *idempotency.Cache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(IdempotencyKeyHeader)
			if key == "" {
				return next(c)
			}
			switch c.Request().Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				return next(c)
			}

			body, err := io.ReadAll(io.LimitReader(c.Request().Body, MaxIdempotentBodyBytes+1))
			if err != nil {
				return err
			}
			if len(body) > MaxIdempotentBodyBytes {
				return c.JSON(http.StatusRequestEntityTooLarge, map[string]interface{}{
					"type":    "validation_error",
					"code":    "request_body_too_large",
					"message": fmt.Sprintf("request body exceeds %d bytes", MaxIdempotentBodyBytes),
				})
			}
			c.Request().Body = io.NopCloser(bytes.NewReader(body))

			fingerprint := idempotency.Fingerprint(body)
			now := time.Now()

			switch result, rec := cache.Lookup(key, fingerprint, now); result {
			case idempotency.LookupHit:
				c.Response().Header().Set(ReplayHeader, "true")
				c.Response().Header().Set(IdempotencyKeyHeader, key)
				return c.Blob(rec.StatusCode, rec.ContentType, rec.ResponseBody)
			case idempotency.LookupConflict:
				log.Warn().Str("idempotency_key", key).Msg("idempotency key reused with a different request body")
				return c.JSON(http.StatusConflict, map[string]interface{}{
					"type":    "idempotency_conflict",
					"code":    "idempotency_conflict",
					"message": "idempotency key was already used with a different request body",
				})
			}

			capture := &bodyCapturingResponseWriter{ResponseWriter: c.Response().Writer, body: &bytes.Buffer{}, status: http.StatusOK}
			c.Response().Writer = capture

			if err := next(c); err != nil {
				return err
			}

			if capture.status < 500 && capture.body.Len() <= MaxIdempotentBodyBytes {
				cache.Store(idempotencyRecordFrom(key, fingerprint, capture, now))
			}

			return nil
		}
	}
}

func idempotencyRecordFrom(key, fingerprint string, capture *bodyCapturingResponseWriter, now time.Time) *domain.IdempotencyRecord {
	return &domain.IdempotencyRecord{
		Key:          key,
		Fingerprint:  fingerprint,
		StatusCode:   capture.status,
		ResponseBody: append([]byte(nil), capture.body.Bytes()...),
		ContentType:  capture.ResponseWriter.Header().Get(echo.HeaderContentType),
		CreatedAt:    now,
	}
}
