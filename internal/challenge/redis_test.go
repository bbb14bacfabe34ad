package challenge

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func newTestRedisLedger(t *testing.T, ttl time.Duration) *RedisLedger {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	if errPing := client.Ping(context.Background()).Err(); errPing != nil {
		t.Skipf("redis unavailable: %v", errPing)
	}
	prefix := "console-test:" + strconv.FormatInt(time.Now().UnixNano(), 10) + ":"
	return NewRedisLedger(client, prefix, ttl)
}

func TestRedisLedgerConsumeOnce(t *testing.T) {
	ctx := context.Background()
	ledger := newTestRedisLedger(t, time.Minute)

	if errIssue := ledger.Issue(ctx, 1, entryFor("c1", PurposeRegistration)); errIssue != nil {
		t.Fatalf("issue: %v", errIssue)
	}
	got, ok, err := ledger.Consume(ctx, 1)
	if err != nil || !ok || got.Challenge() != "c1" {
		t.Fatalf("expected c1, got %q ok=%v err=%v", got.Challenge(), ok, err)
	}
	if _, ok, _ = ledger.Consume(ctx, 1); ok {
		t.Fatalf("second consume must find nothing")
	}
}

func TestRedisLedgerIssueOverwrites(t *testing.T) {
	ctx := context.Background()
	ledger := newTestRedisLedger(t, time.Minute)

	_ = ledger.Issue(ctx, 1, entryFor("first", PurposeRegistration))
	_ = ledger.Issue(ctx, 1, entryFor("second", PurposeAuthentication))

	got, ok, _ := ledger.Peek(ctx, 1)
	if !ok || got.Challenge() != "second" || got.Purpose != PurposeAuthentication {
		t.Fatalf("expected second challenge, got %+v", got)
	}
}
