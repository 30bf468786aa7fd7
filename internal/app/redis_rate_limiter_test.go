package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisServerError satisfies redis.Error so Script.Run recognises the
// NOSCRIPT reply and falls back to Eval.
type redisServerError string

func (e redisServerError) Error() string { return string(e) }

func (e redisServerError) RedisError() {}

// fakeScripter stands in for a Redis connection. EvalSha always reports the
// script as unloaded so Script.Run falls through to Eval, where the counter
// behaviour of the limiter script is reproduced in-process.
type fakeScripter struct {
	counts  map[string]int64
	ttlMs   map[string]int64
	lastKey string
	evalErr error
	// fixedTTL, when set, overrides the stored ttl on every reply. Used to
	// exercise the negative-PTTL fallback.
	fixedTTL *int64
}

func newFakeScripter() *fakeScripter {
	return &fakeScripter{counts: make(map[string]int64), ttlMs: make(map[string]int64)}
}

func (f *fakeScripter) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	if f.evalErr != nil {
		return redis.NewCmdResult(nil, f.evalErr)
	}
	key := keys[0]
	f.lastKey = key
	f.counts[key]++
	if f.counts[key] == 1 {
		window, _ := args[0].(int64)
		f.ttlMs[key] = window
	}
	ttl := f.ttlMs[key]
	if f.fixedTTL != nil {
		ttl = *f.fixedTTL
	}
	return redis.NewCmdResult([]interface{}{f.counts[key], ttl}, nil)
}

func (f *fakeScripter) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return redis.NewCmdResult(nil, redisServerError("NOSCRIPT No matching script. Please use EVAL."))
}

func (f *fakeScripter) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return f.Eval(ctx, script, keys, args...)
}

func (f *fakeScripter) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return f.EvalSha(ctx, sha1, keys, args...)
}

func (f *fakeScripter) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (f *fakeScripter) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	return redis.NewStringResult("", errors.New("script loading disabled"))
}

func TestConsumeRateLimit_CountsAndReportsRetryAfter(t *testing.T) {
	fake := newFakeScripter()
	limiter := &RedisTransferRateLimiter{client: fake, prefix: "trustyfin:rate_limit"}

	for want := 1; want <= 3; want++ {
		count, retryAfter, err := limiter.ConsumeRateLimit(context.Background(), "transfer", "001031111111", 10, time.Minute)
		if err != nil {
			t.Fatalf("ConsumeRateLimit returned error: %v", err)
		}
		if count != want {
			t.Fatalf("expected count %d, got %d", want, count)
		}
		if retryAfter != 60 {
			t.Fatalf("expected retry-after of 60s for a one minute window, got %d", retryAfter)
		}
	}
	if fake.lastKey != "trustyfin:rate_limit:transfer:001031111111" {
		t.Fatalf("unexpected limiter key: %q", fake.lastKey)
	}
}

func TestConsumeRateLimit_KeysIsolatePerSubject(t *testing.T) {
	fake := newFakeScripter()
	limiter := &RedisTransferRateLimiter{client: fake, prefix: "trustyfin:rate_limit"}

	for i := 0; i < 3; i++ {
		if _, _, err := limiter.ConsumeRateLimit(context.Background(), "transfer", "001031111111", 10, time.Minute); err != nil {
			t.Fatalf("ConsumeRateLimit returned error: %v", err)
		}
	}
	count, _, err := limiter.ConsumeRateLimit(context.Background(), "transfer", "001039999999", 10, time.Minute)
	if err != nil {
		t.Fatalf("ConsumeRateLimit returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a fresh counter per subject, got %d", count)
	}
}

func TestConsumeRateLimit_DegenerateInputsNeverThrottle(t *testing.T) {
	fake := newFakeScripter()
	limiter := &RedisTransferRateLimiter{client: fake, prefix: "trustyfin:rate_limit"}

	cases := []struct {
		name    string
		limiter *RedisTransferRateLimiter
		scope   string
		subject string
		limit   int
		window  time.Duration
	}{
		{"nil limiter", nil, "transfer", "001031111111", 10, time.Minute},
		{"nil client", &RedisTransferRateLimiter{}, "transfer", "001031111111", 10, time.Minute},
		{"zero limit", limiter, "transfer", "001031111111", 0, time.Minute},
		{"zero window", limiter, "transfer", "001031111111", 10, 0},
		{"blank scope", limiter, "  ", "001031111111", 10, time.Minute},
		{"blank subject", limiter, "transfer", "", 10, time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			count, retryAfter, err := tc.limiter.ConsumeRateLimit(context.Background(), tc.scope, tc.subject, tc.limit, tc.window)
			if err != nil || count != 0 || retryAfter != 0 {
				t.Fatalf("expected a no-op, got count=%d retryAfter=%d err=%v", count, retryAfter, err)
			}
		})
	}
	if len(fake.counts) != 0 {
		t.Fatalf("expected no redis calls for degenerate inputs, got %v", fake.counts)
	}
}

func TestNewRedisTransferRateLimiter_NormalizesPrefix(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "trustyfin:rate_limit"},
		{"   ", "trustyfin:rate_limit"},
		{"custom:", "custom"},
		{" custom ", "custom"},
	}
	for _, tc := range cases {
		limiter := NewRedisTransferRateLimiter(nil, tc.in)
		if limiter.prefix != tc.want {
			t.Fatalf("prefix %q: expected %q, got %q", tc.in, tc.want, limiter.prefix)
		}
	}
}

func TestConsumeRateLimit_NegativeTTLFallsBackToWindow(t *testing.T) {
	fake := newFakeScripter()
	noExpiry := int64(-1)
	fake.fixedTTL = &noExpiry
	limiter := &RedisTransferRateLimiter{client: fake, prefix: "trustyfin:rate_limit"}

	_, retryAfter, err := limiter.ConsumeRateLimit(context.Background(), "transfer", "001031111111", 10, 30*time.Second)
	if err != nil {
		t.Fatalf("ConsumeRateLimit returned error: %v", err)
	}
	if retryAfter != 30 {
		t.Fatalf("expected the window length as retry-after when the key has no expiry, got %d", retryAfter)
	}
}

func TestConsumeRateLimit_SubSecondWindowsRoundUp(t *testing.T) {
	fake := newFakeScripter()
	limiter := &RedisTransferRateLimiter{client: fake, prefix: "trustyfin:rate_limit"}

	count, retryAfter, err := limiter.ConsumeRateLimit(context.Background(), "transfer", "001031111111", 10, 200*time.Millisecond)
	if err != nil {
		t.Fatalf("ConsumeRateLimit returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}
	// Windows below a second are widened to one second before hitting redis.
	if retryAfter != 1 {
		t.Fatalf("expected a 1s retry-after floor, got %d", retryAfter)
	}
}

func TestConsumeRateLimit_PropagatesRedisErrors(t *testing.T) {
	fake := newFakeScripter()
	fake.evalErr = errors.New("connection refused")
	limiter := &RedisTransferRateLimiter{client: fake, prefix: "trustyfin:rate_limit"}

	_, _, err := limiter.ConsumeRateLimit(context.Background(), "transfer", "001031111111", 10, time.Minute)
	if err == nil {
		t.Fatal("expected the redis error to surface to the caller")
	}
}
