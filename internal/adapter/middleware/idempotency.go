package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// How long the in-progress lock lives if the handler never finishes.
	provisionalLockTTL = 60 * time.Second
	// Allowed client/server clock skew for Ax-Request-At.
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second
)

// ---- Data types ----
type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	if r.buf != nil {
		r.buf.Write(b)
	}
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

type IdempotencyConfig struct {
	Skipper emw.Skipper
	Store   redis.Cmdable
	// TTL is how long a finished response stays replayable.
	TTL time.Duration
	Log *logrus.Entry
}

func IdempotencyMiddleware(rdb redis.Cmdable, ttl time.Duration) echo.MiddlewareFunc {
	return IdempotencyWithConfig(IdempotencyConfig{Store: rdb, TTL: ttl})
}

// IdempotencyWithConfig guards mutating requests. The key is method, route,
// party and request id. A finished request replays its recorded response, a
// running one answers 409. Server errors (5xx) are not recorded so the client
// may retry them with the same request id.
func IdempotencyWithConfig(cfg IdempotencyConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = emw.DefaultSkipper
	}
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	rdb := cfg.Store

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}
			req := c.Request()
			method := req.Method

			switch method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID := strings.TrimSpace(req.Header.Get(HeaderRequestID))
			if reqID == "" {
				return reject(c, http.StatusBadRequest, "MissingRequestId", "missing "+HeaderRequestID)
			}
			if !validReqID(reqID) {
				return reject(c, http.StatusBadRequest, "InvalidRequestId", "invalid "+HeaderRequestID+" format")
			}

			reqAt, err := parseAxRequestAt(req.Header.Get(HeaderRequestAt))
			if err != nil {
				return reject(c, http.StatusBadRequest, "InvalidRequestAt", err.Error())
			}
			now := nowUTC()
			if reqAt.Before(now.Add(-maxClockSkew)) || reqAt.After(now.Add(maxClockSkew)) {
				return reject(c, http.StatusBadRequest, "InvalidRequestAt", HeaderRequestAt+" too skewed")
			}

			party := strings.TrimSpace(req.Header.Get(HeaderPartyID))
			if party == "" {
				return reject(c, http.StatusBadRequest, "MissingParty", "missing "+HeaderPartyID)
			}
			if !ValidParty(party) {
				return reject(c, http.StatusBadRequest, "InvalidParty", "invalid "+HeaderPartyID)
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewBuffer(body))
			bhash := bodyHash(body)

			key := buildKey(method, c.Path(), party, reqID)
			log := cfg.Log.WithFields(logrus.Fields{"party": party, "request_id": reqID, "route": c.Path()})
			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			entry := idempEntry{
				InProgress:  true,
				BodySHA256:  bhash,
				RequestID:   reqID,
				RequestAtMS: reqAt.UnixMilli(),
				CreatedAt:   now,
			}
			ok, err := provisionalSet(ctx, rdb, key, entry)
			if err != nil {
				log.WithError(err).Error("idempotency store unavailable")
				return reject(c, http.StatusServiceUnavailable, "IdempotencyUnavailable", "idempotency store unavailable")
			}
			if !ok {
				cur, errLoad := loadEntry(ctx, rdb, key)
				if errLoad != nil && !errors.Is(errLoad, redis.Nil) {
					log.WithError(errLoad).Warn("idempotency entry unreadable")
				}
				if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
					return reject(c, http.StatusConflict, "RequestIdReused", HeaderRequestID+" reused with different body")
				}
				if !cur.InProgress && cur.Code != 0 && len(cur.Body) > 0 {
					log.Debug("idempotent replay")
					return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
				}
				return reject(c, http.StatusConflict, "RequestInFlight", "request is already in progress")
			}

			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the request context may be gone by now
			sctx, scancel := context.WithTimeout(context.Background(), storeTimeout)
			defer scancel()
			if rec.code >= http.StatusInternalServerError {
				if err := release(sctx, rdb, key); err != nil {
					log.WithError(err).Warn("idempotency lock release failed")
				}
				return nil
			}
			final := idempEntry{
				Code:        rec.code,
				Body:        rec.buf.Bytes(),
				BodySHA256:  bhash,
				RequestID:   reqID,
				RequestAtMS: reqAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			}
			if err := saveFinal(sctx, rdb, key, final, cfg.TTL); err != nil {
				log.WithError(err).Warn("idempotency response not recorded")
			}
			return nil
		}
	}
}

func reject(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, map[string]string{"error": msg, "code": code})
}
