package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always return miss")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Errorf("Clear error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	c, err := NewFileCache(fs, "cache")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "a", []byte("one"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "b", []byte("two"), 0); err != nil {
		t.Fatal(err)
	}

	data, hit, err := c.Get(ctx, "a")
	if err != nil || !hit || string(data) != "one" {
		t.Fatalf("Get(a) = %q, %v, %v", data, hit, err)
	}

	now = now.Add(2 * time.Hour)
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("expired entry should miss")
	}
	if _, hit, _ := c.Get(ctx, "b"); !hit {
		t.Error("entry without ttl should not expire")
	}

	if err := c.Delete(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "b"); err != nil {
		t.Errorf("deleting a missing key should succeed: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("deleted entry should miss")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	c, _ := NewFileCache(fs, "cache")
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, c.path("k"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry should be a silent miss, got hit=%v err=%v", hit, err)
	}
	if ok, _ := afero.Exists(fs, c.path("k")); ok {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	c, _ := NewFileCache(fs, "cache")
	for _, k := range []string{"x", "y", "z"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"x", "y", "z"} {
		if _, hit, _ := c.Get(ctx, k); hit {
			t.Errorf("%s survived Clear", k)
		}
	}
	if ok, _ := afero.DirExists(fs, "cache"); !ok {
		t.Error("Clear should leave an empty cache directory")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	base := SolveKeyOpts{Initial: "matching", Seed: 1, Options: `{"max_iterations":200}`}

	k1 := k.SolveKey("abc", base)
	if !strings.HasPrefix(k1, "solve:"+keyVersion+":") {
		t.Errorf("SolveKey should be prefixed: %s", k1)
	}
	if k1 != k.SolveKey("abc", base) {
		t.Error("SolveKey should be deterministic")
	}

	tests := []struct {
		name string
		hash string
		opts SolveKeyOpts
	}{
		{"instance", "abd", base},
		{"seed", "abc", SolveKeyOpts{Initial: "matching", Seed: 2, Options: base.Options}},
		{"initial", "abc", SolveKeyOpts{Initial: "random", Seed: 1, Options: base.Options}},
		{"options", "abc", SolveKeyOpts{Initial: "matching", Seed: 1, Options: `{"max_iterations":201}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if k.SolveKey(tt.hash, tt.opts) == k1 {
				t.Errorf("changing %s should change the key", tt.name)
			}
		})
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "exp:1:")
	key := scoped.SolveKey("abc", SolveKeyOpts{})
	if key != "exp:1:"+NewDefaultKeyer().SolveKey("abc", SolveKeyOpts{}) {
		t.Errorf("ScopedKeyer SolveKey unexpected: %s", key)
	}

	if key := NewScopedKeyer(nil, "p:").SolveKey("abc", SolveKeyOpts{}); !strings.HasPrefix(key, "p:solve:") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := NewRedisCache(ctx, "redis://127.0.0.1:1/0", "")
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("expected network error, got %v", err)
	}

	if _, err := NewRedisCache(ctx, "http://nope", ""); err == nil {
		t.Error("invalid url should fail")
	}
}

func TestRedisCacheKeys(t *testing.T) {
	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "")
	defer c.Close()
	if got := c.key("solve:abc"); got != "flamecast:solve:abc" {
		t.Errorf("key = %s", got)
	}
	if got := NewRedisCacheFromClient(c.client, "t:").key("k"); got != "t:k" {
		t.Errorf("key = %s", got)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrNetwork)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrNetwork) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
	if networkError(nil) != nil {
		t.Error("networkError(nil) should be nil")
	}
	if IsRetryable(networkError(context.Canceled)) {
		t.Error("cancellation should not be retried")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	saved := DefaultBackoff
	DefaultBackoff.Initial = time.Millisecond
	defer func() { DefaultBackoff = saved }()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("first-try success: err=%v calls=%d", err, calls)
	}

	calls = 0
	permanent := errors.New("permanent")
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return permanent
	})
	if err != permanent || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry once: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestBackoffAttempts(t *testing.T) {
	b := Backoff{Attempts: 4, Initial: time.Microsecond, Max: 2 * time.Microsecond}
	calls := 0
	err := b.Do(context.Background(), func() error {
		calls++
		return Retryable(ErrNetwork)
	})
	if !errors.Is(err, ErrNetwork) || calls != 4 {
		t.Errorf("exhausted retries: err=%v calls=%d", err, calls)
	}
}
