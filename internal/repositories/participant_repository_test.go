package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/db"
)

// testDB connects to the database named by TEST_DB_DSN and resets both
// tables. Tests that need a live Postgres are skipped when it is unset.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping database integration test")
	}

	conn, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, db.Migrate(conn))
	_, err = conn.Exec(`TRUNCATE participants, messages RESTART IDENTITY`)
	require.NoError(t, err)

	return conn
}

func TestParticipantAddRejectsDuplicate(t *testing.T) {
	repo := NewParticipantRepo(testDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Add(ctx, "ana", now))
	require.ErrorIs(t, repo.Add(ctx, "ana", now), ErrParticipantExists)

	exists, err := repo.Exists(ctx, "ana")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestParticipantTouchUnknown(t *testing.T) {
	repo := NewParticipantRepo(testDB(t))

	err := repo.Touch(context.Background(), "ghost", time.Now().UTC())
	require.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestSweepSparesRefreshedHeartbeat(t *testing.T) {
	repo := NewParticipantRepo(testDB(t))
	ctx := context.Background()

	now := time.Now().UTC()
	stale := now.Add(-time.Minute)
	require.NoError(t, repo.Add(ctx, "ana", stale))
	require.NoError(t, repo.Add(ctx, "bob", stale))

	// ana's heartbeat lands before the sweep, so only bob is past the cutoff
	require.NoError(t, repo.Touch(ctx, "ana", now))

	removed, err := repo.SweepExpired(ctx, now.Add(-10*time.Second))
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "bob", removed[0].Name)

	survivors, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, survivors, 1)
	assert.Equal(t, "ana", survivors[0].Name)

	// a second pass over the same cutoff finds nothing left to remove
	removed, err = repo.SweepExpired(ctx, now.Add(-10*time.Second))
	require.NoError(t, err)
	assert.Empty(t, removed)
}
