package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Shuru63/skylark-lab-assignment/internal/model"
	"github.com/Shuru63/skylark-lab-assignment/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a new PostgreSQL store for testing.
// It skips tests if DATABASE_URL is not set and resets the public schema.
func setupTestDB(t *testing.T) (*Store, func()) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set, skipping PostgreSQL tests")
	}

	pool, err := pgxpool.New(context.Background(), databaseURL)
	require.NoError(t, err)

	_, err = pool.Exec(context.Background(), `
		DROP SCHEMA public CASCADE;
		CREATE SCHEMA public;
		GRANT ALL ON SCHEMA public TO public;
	`)
	require.NoError(t, err)
	pool.Close()

	s, err := NewStore(databaseURL)
	require.NoError(t, err)

	return s, s.Close
}

func TestPostgresStore_Users(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	u, err := s.CreateUser(ctx, model.User{Username: "ana", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	_, err = s.CreateUser(ctx, model.User{Username: "ANA", PasswordHash: "hash"})
	assert.ErrorIs(t, err, store.ErrConflict)

	got, err := s.GetUserByUsername(ctx, "Ana")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.GetUserByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostgresStore_CamerasAndAlerts(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	ana, err := s.CreateUser(ctx, model.User{Username: "ana", PasswordHash: "hash"})
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, model.User{Username: "bob", PasswordHash: "hash"})
	require.NoError(t, err)

	c, err := s.CreateCamera(ctx, model.Camera{UserID: ana.ID, Name: "Door", RTSPURL: "rtsp://door"})
	require.NoError(t, err)
	assert.False(t, c.IsActive)

	_, err = s.GetCamera(ctx, bob.ID, c.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	started, err := s.SetCameraActive(ctx, ana.ID, c.ID, true)
	require.NoError(t, err)
	assert.True(t, started.IsActive)

	loc := "porch"
	updated, err := s.UpdateCamera(ctx, ana.ID, c.ID, store.CameraPatch{Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, "Door", updated.Name)
	assert.Equal(t, "porch", updated.Location)

	ts := time.Now().UTC().Add(-time.Minute).Truncate(time.Microsecond)
	a, err := s.CreateAlert(ctx, model.Alert{CameraID: c.ID, UserID: ana.ID, Confidence: 0.87, Timestamp: ts})
	require.NoError(t, err)
	require.NotNil(t, a.CameraName)
	assert.Equal(t, "Door", *a.CameraName)
	assert.True(t, ts.Equal(a.Timestamp))

	_, err = s.CreateAlert(ctx, model.Alert{CameraID: c.ID, UserID: bob.ID, Confidence: 0.5})
	assert.ErrorIs(t, err, store.ErrNotFound)

	list, err := s.ListAlerts(ctx, store.AlertFilter{UserID: ana.ID, CameraID: c.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	n, err := s.PurgeAlertsBefore(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, s.DeleteCamera(ctx, bob.ID, c.ID), store.ErrNotFound)
	require.NoError(t, s.DeleteCamera(ctx, ana.ID, c.ID))
}
