package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/pack-n-strap/internal/core/domain"
)

const (
	inventoryKeyPrefix    = "profile:"
	inventoryKeySuffix    = ":inventory"
	sessionStartKeyPrefix = "session:"
	sessionStartKeySuffix = ":started_at"
)

var ErrRevisionConflict = errors.New("inventory revision conflict")

// The stored revision must match ARGV[1]; on success it is bumped by one.
var saveInventoryScript = redis.NewScript(`
local key = KEYS[1]
local expected = tonumber(ARGV[1])

local current = tonumber(redis.call('HGET', key, 'revision') or '0')
if current ~= expected then
	return 0
end

redis.call('HSET', key, 'data', ARGV[2], 'revision', current + 1)
return 1
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func inventoryKey(sessionID string) string {
	return inventoryKeyPrefix + sessionID + inventoryKeySuffix
}

func (r *RedisAdapter) GetInventory(ctx context.Context, sessionID string) (*domain.Inventory, error) {
	values, err := r.client.HMGet(ctx, inventoryKey(sessionID), "data", "revision").Result()
	if err != nil {
		return nil, fmt.Errorf("get inventory: %w", err)
	}

	data, ok := values[0].(string)
	if !ok || data == "" {
		return nil, nil
	}

	var inv domain.Inventory
	if err := json.Unmarshal([]byte(data), &inv); err != nil {
		return nil, fmt.Errorf("decode inventory: %w", err)
	}

	inv.Revision = 0
	if rev, ok := values[1].(string); ok {
		inv.Revision, err = strconv.ParseInt(rev, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode inventory revision: %w", err)
		}
	}
	return &inv, nil
}

func (r *RedisAdapter) SaveInventory(ctx context.Context, sessionID string, inv domain.Inventory) error {
	expected := inv.Revision
	inv.Revision = expected + 1
	inv.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}

	result, err := saveInventoryScript.Run(ctx, r.client, []string{inventoryKey(sessionID)}, expected, payload).Int()
	if err != nil {
		return fmt.Errorf("save inventory: %w", err)
	}
	if result != 1 {
		return ErrRevisionConflict
	}
	return nil
}

// SetInventory overwrites the stored inventory regardless of revision.
func (r *RedisAdapter) SetInventory(ctx context.Context, sessionID string, inv domain.Inventory) error {
	payload, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}
	return r.client.HSet(ctx, inventoryKey(sessionID), "data", payload, "revision", inv.Revision).Err()
}

func (r *RedisAdapter) MarkSessionStarted(ctx context.Context, sessionID string, at time.Time) error {
	key := sessionStartKeyPrefix + sessionID + sessionStartKeySuffix
	return r.client.Set(ctx, key, at.UTC().UnixMilli(), 0).Err()
}

func (r *RedisAdapter) SessionStartedAt(ctx context.Context, sessionID string) (time.Time, bool, error) {
	key := sessionStartKeyPrefix + sessionID + sessionStartKeySuffix
	ms, err := r.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(ms).UTC(), true, nil
}
