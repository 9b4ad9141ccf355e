package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"testing"
	"time"
)

func Test_bodyHash(t *testing.T) {
	data := []byte("hello world")
	sum := sha256.Sum256(data)
	if got, want := bodyHash(data), hex.EncodeToString(sum[:]); got != want {
		t.Fatalf("bodyHash = %s, want %s", got, want)
	}
}

func Test_nowUTC(t *testing.T) {
	u := nowUTC()
	if u.Location() != time.UTC {
		t.Fatalf("location = %v, want UTC", u.Location())
	}
	if d := time.Since(u); d < -2*time.Second || d > 2*time.Second {
		t.Fatalf("nowUTC drifted by %v", d)
	}
}

func Test_buildKey(t *testing.T) {
	k := buildKey("POST", "/v1/loans/:loan_id/repay", "Alice", strings.Repeat("a", 32))
	want := "privylend:idemp:post:/v1/loans/:loan_id/repay:Alice:" + strings.Repeat("a", 32)
	if k != want {
		t.Fatalf("buildKey = %s, want %s", k, want)
	}
}

func Test_validReqID(t *testing.T) {
	for _, s := range []string{
		"3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88",
		strings.Repeat("a", 32),
		" 3F9A6A1B3D544FBE8B3A6B3E8D6B2C88 ",
	} {
		if !validReqID(s) {
			t.Errorf("validReqID(%q) = false, want true", s)
		}
	}
	for _, s := range []string{
		"",
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c8",
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c880",
		strings.Repeat("z", 32),
		"3f9a6a1b-3d54-9fbe-8b3a-6b3e8d6b2c88",
	} {
		if validReqID(s) {
			t.Errorf("validReqID(%q) = true, want false", s)
		}
	}
}

func TestValidParty(t *testing.T) {
	for _, s := range []string{"Alice", "LenderA", "bank_1", "Alice::1220abcdef"} {
		if !ValidParty(s) {
			t.Errorf("ValidParty(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "1Alice", "Alice Smith", "Alice::", "Alice::x y", strings.Repeat("a", 65)} {
		if ValidParty(s) {
			t.Errorf("ValidParty(%q) = true, want false", s)
		}
	}
}

func Test_parseAxRequestAt(t *testing.T) {
	sec := time.Now().UTC().Unix()
	ts, err := parseAxRequestAt(strconv.FormatInt(sec, 10))
	if err != nil || !ts.Equal(time.Unix(sec, 0)) {
		t.Fatalf("seconds: got %v, %v", ts, err)
	}

	ms := time.Now().UTC().UnixMilli()
	ts, err = parseAxRequestAt(strconv.FormatInt(ms, 10))
	if err != nil || !ts.Equal(time.UnixMilli(ms)) {
		t.Fatalf("millis: got %v, %v", ts, err)
	}

	ts, err = parseAxRequestAt("2025-09-05T10:00:00+07:00")
	if err != nil || !ts.Equal(time.Date(2025, 9, 5, 3, 0, 0, 0, time.UTC)) {
		t.Fatalf("rfc3339: got %v, %v", ts, err)
	}

	ts, err = parseAxRequestAt("2025-09-05T03:00:00.5Z")
	if err != nil || time.Duration(ts.Nanosecond()) != 500*time.Millisecond {
		t.Fatalf("fractional: got %v, %v", ts, err)
	}

	for _, raw := range []string{"", "not-a-time", "2025-09-05T10:00:00", "1736123456abc"} {
		if _, err := parseAxRequestAt(raw); err == nil {
			t.Errorf("parseAxRequestAt(%q): expected error", raw)
		}
	}
}

func Test_provisionalSet_LoadEntry(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	ctx := context.Background()

	key := buildKey("POST", "/v1/loans", "Alice", strings.Repeat("a", 32))
	entry := idempEntry{
		InProgress: true,
		BodySHA256: bodyHash([]byte(`{"a":1}`)),
		RequestID:  strings.Repeat("a", 32),
		CreatedAt:  nowUTC(),
	}

	ok, err := provisionalSet(ctx, rdb, key, entry)
	if err != nil || !ok {
		t.Fatalf("first provisionalSet = %v, %v", ok, err)
	}
	if ttl := rdb.TTL(ctx, key).Val(); ttl <= 0 || ttl > provisionalLockTTL {
		t.Fatalf("ttl %v", ttl)
	}

	ok, err = provisionalSet(ctx, rdb, key, entry)
	if err != nil || ok {
		t.Fatalf("second provisionalSet = %v, %v; want false", ok, err)
	}

	got, err := loadEntry(ctx, rdb, key)
	if err != nil {
		t.Fatalf("loadEntry: %v", err)
	}
	if !got.InProgress || got.BodySHA256 != entry.BodySHA256 {
		t.Fatalf("unexpected entry: %+v", got)
	}

	if err := release(ctx, rdb, key); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists(key) {
		t.Fatal("key still present after release")
	}
}

func Test_saveFinal_Load_TTL(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	ctx := context.Background()

	key := buildKey("POST", "/v1/loans", "Alice", strings.Repeat("a", 32))
	final := idempEntry{Code: 201, Body: []byte(`{"ok":true}`), RequestID: strings.Repeat("a", 32)}

	if err := saveFinal(ctx, rdb, key, final, 5*time.Second); err != nil {
		t.Fatalf("saveFinal: %v", err)
	}
	if ttl := rdb.TTL(ctx, key).Val(); ttl <= 0 || ttl > 5*time.Second {
		t.Fatalf("ttl %v", ttl)
	}

	got, err := loadEntry(ctx, rdb, key)
	if err != nil {
		t.Fatalf("loadEntry: %v", err)
	}
	if got.Code != 201 || string(got.Body) != `{"ok":true}` || got.InProgress {
		t.Fatalf("unexpected entry: %+v", got)
	}
}
