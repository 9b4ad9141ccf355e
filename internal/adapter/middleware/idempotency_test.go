package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

const (
	testReqID = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testParty = "Alice"
)

func setupEcho(rdb *redis.Client, ttl time.Duration, handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	logger, _ := logtest.NewNullLogger()
	e.Use(IdempotencyWithConfig(IdempotencyConfig{Store: rdb, TTL: ttl, Log: logrus.NewEntry(logger)}))
	e.POST("/v1/collateral", handler)
	e.GET("/v1/collateral", handler)
	return e
}

func mkJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func doReq(t *testing.T, e *echo.Echo, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}

func validHeaders() map[string]string {
	return map[string]string{
		HeaderRequestID: testReqID,
		HeaderRequestAt: time.Now().UTC().Format(time.RFC3339),
		HeaderPartyID:   testParty,
	}
}

func without(h map[string]string, key string) map[string]string {
	out := map[string]string{}
	for k, v := range h {
		if k != key {
			out[k] = v
		}
	}
	return out
}

func with(h map[string]string, key, val string) map[string]string {
	out := without(h, key)
	out[key] = val
	return out
}

func okCreatedHandler(c echo.Context) error {
	return c.JSON(http.StatusCreated, map[string]any{"ok": true})
}

func Test_BypassOnGET_NoHeadersRequired(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "get ok"})
	})
	rec := doReq(t, e, http.MethodGet, "/v1/collateral", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func Test_ValidationFailures(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, okCreatedHandler)
	valid := validHeaders()

	cases := []struct {
		name string
		hdr  map[string]string
		code string
	}{
		{"missing request id", without(valid, HeaderRequestID), "MissingRequestId"},
		{"invalid request id", with(valid, HeaderRequestID, "NOT-VALID"), "InvalidRequestId"},
		{"invalid request at", with(valid, HeaderRequestAt, "not-a-time"), "InvalidRequestAt"},
		{"skewed request at", with(valid, HeaderRequestAt, time.Now().UTC().Add(-maxClockSkew-time.Minute).Format(time.RFC3339)), "InvalidRequestAt"},
		{"missing party", without(valid, HeaderPartyID), "MissingParty"},
		{"invalid party", with(valid, HeaderPartyID, "not a party!"), "InvalidParty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doReq(t, e, http.MethodPost, "/v1/collateral", mkJSONBody(t, map[string]int{"x": 1}), tc.hdr)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d", rec.Code)
			}
			var body map[string]string
			_ = json.Unmarshal(rec.Body.Bytes(), &body)
			if body["code"] != tc.code {
				t.Fatalf("code = %q, want %q", body["code"], tc.code)
			}
		})
	}
}

func Test_HappyPath_Then_Replay(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()

	calls := 0
	e := setupEcho(rdb, 2*time.Minute, func(c echo.Context) error {
		calls++
		return okCreatedHandler(c)
	})
	h := validHeaders()

	rec1 := doReq(t, e, http.MethodPost, "/v1/collateral", mkJSONBody(t, map[string]any{"value": 150000}), h)
	if rec1.Code != http.StatusCreated {
		t.Fatalf("first request => want 201, got %d, body: %s", rec1.Code, rec1.Body.String())
	}

	rec2 := doReq(t, e, http.MethodPost, "/v1/collateral", mkJSONBody(t, map[string]any{"value": 150000}), h)
	if rec2.Code != http.StatusCreated {
		t.Fatalf("replay => want 201, got %d, body: %s", rec2.Code, rec2.Body.String())
	}
	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("replay body mismatch: %q vs %q", rec1.Body.String(), rec2.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
}

func Test_SamePartyDifferentRequestIDs_BothRun(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	calls := 0
	e := setupEcho(rdb, time.Minute, func(c echo.Context) error {
		calls++
		return okCreatedHandler(c)
	})

	doReq(t, e, http.MethodPost, "/v1/collateral", mkJSONBody(t, 1), validHeaders())
	doReq(t, e, http.MethodPost, "/v1/collateral", mkJSONBody(t, 1), with(validHeaders(), HeaderRequestID, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"))
	if calls != 2 {
		t.Fatalf("handler ran %d times, want 2", calls)
	}
}

func Test_ServerError_NotRecorded(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()

	calls := 0
	e := setupEcho(rdb, time.Minute, func(c echo.Context) error {
		calls++
		if calls == 1 {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "ledger unreachable"})
		}
		return okCreatedHandler(c)
	})
	h := validHeaders()

	rec := doReq(t, e, http.MethodPost, "/v1/collateral", mkJSONBody(t, 1), h)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("first => want 503, got %d", rec.Code)
	}
	if mr.Exists(buildKey(http.MethodPost, "/v1/collateral", testParty, testReqID)) {
		t.Fatal("5xx response should release the key")
	}
	rec = doReq(t, e, http.MethodPost, "/v1/collateral", mkJSONBody(t, 1), h)
	if rec.Code != http.StatusCreated || calls != 2 {
		t.Fatalf("retry => code %d calls %d", rec.Code, calls)
	}
}

func Test_Conflict_When_InProgress(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 2*time.Minute, okCreatedHandler)

	method := http.MethodPost
	path := "/v1/collateral"
	body := []byte(`{"x":1}`)

	key := buildKey(method, path, testParty, testReqID)
	entry := idempEntry{
		InProgress:  true,
		BodySHA256:  bodyHash(body),
		RequestID:   testReqID,
		RequestAtMS: time.Now().UnixMilli(),
		CreatedAt:   time.Now().UTC(),
	}
	if ok, err := provisionalSet(context.Background(), rdb, key, entry); err != nil || !ok {
		t.Fatalf("seed provisional failed, ok=%v err=%v", ok, err)
	}

	rec := doReq(t, e, method, path, bytes.NewReader(body), validHeaders())
	if rec.Code != http.StatusConflict {
		t.Fatalf("in-progress => want 409, got %d body=%s", rec.Code, rec.Body.String())
	}
	var got map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got["error"] != "request is already in progress" {
		t.Fatalf("unexpected body %v", got)
	}
}

func Test_Conflict_When_SameReqID_DifferentBody(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 2*time.Minute, okCreatedHandler)

	method := http.MethodPost
	path := "/v1/collateral"
	key := buildKey(method, path, testParty, testReqID)
	final := idempEntry{
		Code:        http.StatusCreated,
		Body:        []byte(`{"ok":true}`),
		BodySHA256:  bodyHash([]byte(`{"x":1}`)),
		RequestID:   testReqID,
		RequestAtMS: time.Now().UnixMilli(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := saveFinal(context.Background(), rdb, key, final, 5*time.Minute); err != nil {
		t.Fatalf("seed final failed: %v", err)
	}

	rec := doReq(t, e, method, path, bytes.NewReader([]byte(`{"x":2}`)), validHeaders())
	if rec.Code != http.StatusConflict {
		t.Fatalf("different body same reqID => want 409, got %d", rec.Code)
	}
}

func Test_Skipper(t *testing.T) {
	e := echo.New()
	e.Use(IdempotencyWithConfig(IdempotencyConfig{
		Skipper: func(echo.Context) bool { return true },
	}))
	e.POST("/v1/loans/quote", okCreatedHandler)

	rec := doReq(t, e, http.MethodPost, "/v1/loans/quote", mkJSONBody(t, 1), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("skipped route => want 201, got %d", rec.Code)
	}
}

func Test_StoreUnavailable_Returns503(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	e := setupEcho(rdb, time.Minute, okCreatedHandler)

	rec := doReq(t, e, http.MethodPost, "/v1/collateral", bytes.NewReader([]byte(`{}`)), validHeaders())
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("store unavailable => want 503, got %d", rec.Code)
	}
}
