package mod

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/pack-n-strap/internal/adapter/storage"
	"github.com/rl1809/pack-n-strap/internal/config"
	"github.com/rl1809/pack-n-strap/internal/host"
	"github.com/rl1809/pack-n-strap/internal/intercept"
)

type testEnv struct {
	redis    *redis.Client
	profiles *storage.RedisAdapter
	reg      *intercept.Registry
	cleanup  func()
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	profiles := storage.NewRedisAdapter(rdb)
	templates := openTemplates(t, keyring(), gamma())
	lostOnDeath := host.DefaultLostOnDeath()
	m := New(config.Mod{AddCasesToSecureContainer: true}, profiles, templates, lostOnDeath, nil)

	reg := intercept.NewRegistry()
	require.NoError(t, m.Install(reg))
	require.NoError(t, intercept.Provide(reg, host.OpGameStart, host.GameStart(profiles, nil)))
	require.NoError(t, intercept.Provide(reg, host.OpItemKeptAfterDeath, host.ItemKeptAfterDeath(lostOnDeath)))
	require.NoError(t, m.PostDBLoad(context.Background()))

	return &testEnv{
		redis:    rdb,
		profiles: profiles,
		reg:      reg,
		cleanup:  func() { rdb.Close() },
	}
}

func TestIntegration_GameStartMigratesStoredProfile(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	sessionID := "integration-" + uuid.NewString()
	require.NoError(t, env.profiles.SetInventory(ctx, sessionID, legacyProfile()))
	defer env.redis.Del(ctx, "profile:"+sessionID+":inventory", "session:"+sessionID+":started_at")

	start, err := intercept.Resolve[host.GameStartFunc](env.reg, host.OpGameStart)
	require.NoError(t, err)
	require.NoError(t, start(ctx, host.GameStartRequest{SessionID: sessionID}))

	inv, err := env.profiles.GetInventory(ctx, sessionID)
	require.NoError(t, err)
	ring, _ := inv.Find("ring")
	key, _ := inv.Find("k")
	assert.Equal(t, keyringID, ring.TemplateID)
	assert.Equal(t, "key2", key.SlotID)
	assert.EqualValues(t, 1, inv.Revision)

	_, ok, err := env.profiles.SessionStartedAt(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, ok)

	// A second start finds nothing to migrate and keeps the revision.
	require.NoError(t, start(ctx, host.GameStartRequest{SessionID: sessionID}))
	inv, _ = env.profiles.GetInventory(ctx, sessionID)
	assert.EqualValues(t, 1, inv.Revision)
}

func TestIntegration_ConcurrentStartsSaveOnce(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	sessionID := "integration-" + uuid.NewString()
	require.NoError(t, env.profiles.SetInventory(ctx, sessionID, legacyProfile()))
	defer env.redis.Del(ctx, "profile:"+sessionID+":inventory", "session:"+sessionID+":started_at")

	start, err := intercept.Resolve[host.GameStartFunc](env.reg, host.OpGameStart)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, start(ctx, host.GameStartRequest{SessionID: sessionID}))
		}()
	}
	wg.Wait()

	inv, err := env.profiles.GetInventory(ctx, sessionID)
	require.NoError(t, err)
	key, _ := inv.Find("k")
	assert.Equal(t, "key2", key.SlotID)
	assert.EqualValues(t, 1, inv.Revision, "stale migrations must not overwrite")
}
