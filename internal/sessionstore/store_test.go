// internal/sessionstore/store_test.go
package sessionstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tezloan-workers/internal/common/database"
	"tezloan-workers/internal/models"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := &database.RedisClient{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
	}
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, 0), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	session := models.NewSession("session-123")
	session.Profile.PersonalInfo.Name = "Rahul Sharma"
	session.AppendTurn(models.TurnRecord{
		ID:           "turn-1",
		Timestamp:    time.Now().UTC(),
		CustomerText: "I need a loan for my wedding",
		StageBefore:  models.StageGreeting,
		StageAfter:   models.StageNeedsAnalysis,
	})

	require.NoError(t, store.Save(ctx, session))

	loaded, err := store.Load(ctx, "session-123")
	require.NoError(t, err)
	assert.Equal(t, "session-123", loaded.ID)
	assert.Equal(t, models.StageNeedsAnalysis, loaded.Stage)
	assert.Equal(t, "Rahul Sharma", loaded.Profile.PersonalInfo.Name)
	require.Len(t, loaded.Turns, 1)
	assert.Equal(t, "I need a loan for my wedding", loaded.Turns[0].CustomerText)
}

func TestRedisStoreLoadMissing(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, err := store.Load(context.Background(), "unknown-session")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	session := models.NewSession("session-del")
	require.NoError(t, store.Save(ctx, session))
	require.NoError(t, store.Delete(ctx, "session-del"))

	_, err := store.Load(ctx, "session-del")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStoreCorruptPayload(t *testing.T) {
	store, mr := newTestRedisStore(t)

	mr.Set(sessionKeyPrefix+"bad", "{not json")

	_, err := store.Load(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	session := models.NewSession("mem-1")
	session.Profile.LoanDetails.LoanAmount = 500000
	require.NoError(t, store.Save(ctx, session))

	loaded, err := store.Load(ctx, "mem-1")
	require.NoError(t, err)
	assert.Equal(t, 500000, loaded.Profile.LoanDetails.LoanAmount)

	// Stored copy must not alias the caller's session.
	session.Profile.LoanDetails.LoanAmount = 999999
	loaded2, err := store.Load(ctx, "mem-1")
	require.NoError(t, err)
	assert.Equal(t, 500000, loaded2.Profile.LoanDetails.LoanAmount)
}

func TestMemoryStoreConcurrentSessions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("session-%d", n)
			session := models.NewSession(id)
			session.Profile.EmploymentInfo.MonthlyIncome = 50000 + n
			assert.NoError(t, store.Save(ctx, session))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		loaded, err := store.Load(ctx, fmt.Sprintf("session-%d", i))
		require.NoError(t, err)
		assert.Equal(t, 50000+i, loaded.Profile.EmploymentInfo.MonthlyIncome)
	}
}

func TestLoadOrCreateNewSession(t *testing.T) {
	store := NewMemoryStore()

	session, err := LoadOrCreate(context.Background(), store, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", session.ID)
	assert.Equal(t, models.StageGreeting, session.Stage)
	assert.Empty(t, session.Turns)
}

func TestLoadOrCreateExistingSession(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	session := models.NewSession("existing")
	session.Stage = models.StagePresentation
	require.NoError(t, store.Save(ctx, session))

	loaded, err := LoadOrCreate(ctx, store, "existing")
	require.NoError(t, err)
	assert.Equal(t, models.StagePresentation, loaded.Stage)
}
