package challenge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLedger stores challenges in Redis so several replicas share them.
// Expiry is delegated to the key TTL.
type RedisLedger struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisLedger builds a ledger on an existing client.
func NewRedisLedger(client redis.Cmdable, prefix string, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

func (l *RedisLedger) key(adminID uint64) string {
	return l.prefix + strconv.FormatUint(adminID, 10)
}

// Issue stores entry for adminID with the ledger TTL, replacing any previous one.
func (l *RedisLedger) Issue(ctx context.Context, adminID uint64, entry Entry) error {
	if entry.IssuedAt.IsZero() {
		entry.IssuedAt = l.now()
	}
	payload, errMarshal := json.Marshal(entry)
	if errMarshal != nil {
		return fmt.Errorf("challenge: encode entry: %w", errMarshal)
	}
	if errSet := l.client.Set(ctx, l.key(adminID), payload, l.ttl).Err(); errSet != nil {
		return fmt.Errorf("challenge: redis set: %w", errSet)
	}
	return nil
}

// Peek returns the live entry for adminID.
func (l *RedisLedger) Peek(ctx context.Context, adminID uint64) (Entry, bool, error) {
	return l.read(l.client.Get(ctx, l.key(adminID)))
}

// Consume returns and removes the entry with a single GETDEL.
func (l *RedisLedger) Consume(ctx context.Context, adminID uint64) (Entry, bool, error) {
	return l.read(l.client.GetDel(ctx, l.key(adminID)))
}

func (l *RedisLedger) read(cmd *redis.StringCmd) (Entry, bool, error) {
	payload, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("challenge: redis read: %w", err)
	}
	var entry Entry
	if errUnmarshal := json.Unmarshal(payload, &entry); errUnmarshal != nil {
		return Entry{}, false, fmt.Errorf("challenge: decode entry: %w", errUnmarshal)
	}
	return entry, true, nil
}
