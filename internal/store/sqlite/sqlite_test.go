package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Shuru63/skylark-lab-assignment/internal/model"
	"github.com/Shuru63/skylark-lab-assignment/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestMigrationsApplied(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"schema_migrations", "users", "cameras", "alerts"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}

	// Re-running is a no-op.
	require.NoError(t, applyMigrations(s.db))
}

func TestUsers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, model.User{Username: "ana", PasswordHash: "hash"})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, model.User{Username: "ANA", PasswordHash: "hash"})
	assert.ErrorIs(t, err, store.ErrConflict)

	got, err := s.GetUserByUsername(ctx, "Ana")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = s.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCamerasAndAlerts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ana, err := s.CreateUser(ctx, model.User{Username: "ana", PasswordHash: "hash"})
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, model.User{Username: "bob", PasswordHash: "hash"})
	require.NoError(t, err)

	door, err := s.CreateCamera(ctx, model.Camera{UserID: ana.ID, Name: "Door", RTSPURL: "rtsp://door"})
	require.NoError(t, err)
	yard, err := s.CreateCamera(ctx, model.Camera{UserID: ana.ID, Name: "Yard", RTSPURL: "rtsp://yard", Location: "back"})
	require.NoError(t, err)

	list, err := s.ListCameras(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, yard.ID, list[0].ID)
	assert.Equal(t, "back", list[0].Location)

	_, err = s.GetCamera(ctx, bob.ID, door.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	name := "Front door"
	updated, err := s.UpdateCamera(ctx, ana.ID, door.ID, store.CameraPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Front door", updated.Name)
	assert.Equal(t, "rtsp://door", updated.RTSPURL)

	_, err = s.UpdateCamera(ctx, bob.ID, door.ID, store.CameraPatch{Name: &name})
	assert.ErrorIs(t, err, store.ErrNotFound)

	started, err := s.SetCameraActive(ctx, ana.ID, door.ID, true)
	require.NoError(t, err)
	assert.True(t, started.IsActive)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	img := "https://img/1.jpg"
	first, err := s.CreateAlert(ctx, model.Alert{CameraID: door.ID, UserID: ana.ID, Confidence: 0.7, Timestamp: base, ImageURL: &img})
	require.NoError(t, err)
	assert.Equal(t, "Front door", *first.CameraName)
	_, err = s.CreateAlert(ctx, model.Alert{CameraID: yard.ID, UserID: ana.ID, Confidence: 0.8, Timestamp: base.Add(time.Minute)})
	require.NoError(t, err)

	_, err = s.CreateAlert(ctx, model.Alert{CameraID: door.ID, UserID: bob.ID, Confidence: 0.7})
	assert.ErrorIs(t, err, store.ErrNotFound)

	alerts, err := s.ListAlerts(ctx, store.AlertFilter{UserID: ana.ID})
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, yard.ID, alerts[0].CameraID)
	assert.Nil(t, alerts[0].ImageURL)
	require.NotNil(t, alerts[1].ImageURL)
	assert.Equal(t, img, *alerts[1].ImageURL)
	assert.True(t, base.Equal(alerts[1].Timestamp))

	doorOnly, err := s.ListAlerts(ctx, store.AlertFilter{UserID: ana.ID, CameraID: door.ID})
	require.NoError(t, err)
	require.Len(t, doorOnly, 1)

	limited, err := s.ListAlerts(ctx, store.AlertFilter{UserID: ana.ID, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, s.DeleteCamera(ctx, ana.ID, door.ID))
	assert.ErrorIs(t, s.DeleteCamera(ctx, ana.ID, door.ID), store.ErrNotFound)

	afterDelete, err := s.ListAlerts(ctx, store.AlertFilter{UserID: ana.ID})
	require.NoError(t, err)
	assert.Len(t, afterDelete, 1, "alerts cascade with their camera")

	n, err := s.PurgeAlertsBefore(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAlertTimestampsOutsideNanosecondRange(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ana, err := s.CreateUser(ctx, model.User{Username: "ana", PasswordHash: "hash"})
	require.NoError(t, err)
	door, err := s.CreateCamera(ctx, model.Camera{UserID: ana.ID, Name: "Door", RTSPURL: "rtsp://door"})
	require.NoError(t, err)

	future := time.Date(2300, 6, 1, 0, 0, 0, 0, time.UTC)
	past := time.Date(1600, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, ts := range []time.Time{past, future} {
		_, err := s.CreateAlert(ctx, model.Alert{CameraID: door.ID, UserID: ana.ID, Confidence: 0.5, Timestamp: ts})
		require.NoError(t, err)
	}

	alerts, err := s.ListAlerts(ctx, store.AlertFilter{UserID: ana.ID})
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.True(t, future.Equal(alerts[0].Timestamp), "got %s", alerts[0].Timestamp)
	assert.True(t, past.Equal(alerts[1].Timestamp), "got %s", alerts[1].Timestamp)

	n, err := s.PurgeAlertsBefore(ctx, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
