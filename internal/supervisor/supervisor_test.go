package supervisor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shuru63/skylark-lab-assignment/internal/logging"
	"github.com/Shuru63/skylark-lab-assignment/internal/model"
	"github.com/Shuru63/skylark-lab-assignment/internal/store/memory"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

type fakeHTTPServer struct {
	listenErr error
	stop      chan struct{}
	stopOnce  sync.Once
	listens   atomic.Int32
	shutdowns atomic.Int32
}

func newFakeHTTPServer() *fakeHTTPServer {
	return &fakeHTTPServer{stop: make(chan struct{})}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	f.listens.Add(1)
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	f.stopOnce.Do(func() { close(f.stop) })
	return nil
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	srv := newFakeHTTPServer()
	svc := NewHTTPService(srv, ":0", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- svc.Serve(ctx) }()

	require.Eventually(t, func() bool { return srv.listens.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.Equal(t, int32(1), srv.shutdowns.Load())
}

func TestHTTPServiceListenFailure(t *testing.T) {
	srv := newFakeHTTPServer()
	srv.listenErr = errors.New("address in use")

	err := NewHTTPService(srv, ":0", time.Second).Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address in use")
}

func TestRetentionPurgesOldAlerts(t *testing.T) {
	st := memory.NewStore()
	ctx := context.Background()
	u, err := st.CreateUser(ctx, model.User{Username: "ana", PasswordHash: "x"})
	require.NoError(t, err)
	cam, err := st.CreateCamera(ctx, model.Camera{UserID: u.ID, Name: "Door", RTSPURL: "rtsp://door"})
	require.NoError(t, err)

	now := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	for _, age := range []time.Duration{72 * time.Hour, 30 * time.Hour, time.Hour} {
		_, err := st.CreateAlert(ctx, model.Alert{CameraID: cam.ID, UserID: u.ID, Timestamp: now.Add(-age)})
		require.NoError(t, err)
	}

	svc := NewRetentionService(st, 1, time.Hour)
	svc.now = func() time.Time { return now }

	assert.Equal(t, 2, svc.runOnce(ctx))
	assert.Equal(t, 0, svc.runOnce(ctx))
}

type countingPurger struct{ calls atomic.Int32 }

func (c *countingPurger) PurgeAlertsBefore(context.Context, time.Time) (int, error) {
	c.calls.Add(1)
	return 0, nil
}

func TestTreeRunsAndStopsServices(t *testing.T) {
	srv := newFakeHTTPServer()
	purger := &countingPurger{}

	tree := NewTree("test", TreeConfig{ShutdownTimeout: time.Second})
	tree.Add(NewHTTPService(srv, ":0", time.Second))
	tree.Add(NewRetentionService(purger, 30, 10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := tree.ServeBackground(ctx)

	require.Eventually(t, func() bool {
		return srv.listens.Load() == 1 && purger.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop")
	}
	assert.Equal(t, int32(1), srv.shutdowns.Load())
}
