package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Shuru63/skylark-lab-assignment/internal/model"
	"github.com/Shuru63/skylark-lab-assignment/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.Mutex

	users   map[string]model.User
	cameras map[string]model.Camera
	alerts  map[string]model.Alert
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]model.User),
		cameras: make(map[string]model.Camera),
		alerts:  make(map[string]model.Alert),
	}
}

type errWithCode string

func (e errWithCode) Error() string { return string(e) }

// ownedCamera must be called with s.mu held.
func (s *Store) ownedCamera(userID, id string) (model.Camera, bool) {
	c, ok := s.cameras[id]
	if !ok || c.UserID != userID {
		return model.Camera{}, false
	}
	return c, true
}

func (s *Store) ListCameras(_ context.Context, userID string) ([]model.Camera, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Camera, 0)
	for _, c := range s.cameras {
		if c.UserID == userID {
			out = append(out, c)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetCamera(_ context.Context, userID, id string) (*model.Camera, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.ownedCamera(userID, id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *Store) CreateCamera(_ context.Context, c model.Camera) (model.Camera, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(c.UserID) == "" {
		return model.Camera{}, errWithCode("user_id_required")
	}
	if _, ok := s.users[c.UserID]; !ok {
		return model.Camera{}, store.ErrNotFound
	}

	now := time.Now().UTC()
	c.ID = newID()
	c.IsActive = false
	c.CreatedAt = now
	c.UpdatedAt = now
	s.cameras[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCamera(_ context.Context, userID, id string, p store.CameraPatch) (*model.Camera, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.ownedCamera(userID, id)
	if !ok {
		return nil, store.ErrNotFound
	}

	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.RTSPURL != nil {
		c.RTSPURL = *p.RTSPURL
	}
	if p.Location != nil {
		c.Location = *p.Location
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	c.UpdatedAt = time.Now().UTC()
	s.cameras[c.ID] = c
	return &c, nil
}

func (s *Store) DeleteCamera(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownedCamera(userID, id); !ok {
		return store.ErrNotFound
	}
	delete(s.cameras, id)
	for aid, a := range s.alerts {
		if a.CameraID == id {
			delete(s.alerts, aid)
		}
	}
	return nil
}

func (s *Store) SetCameraActive(ctx context.Context, userID, id string, active bool) (*model.Camera, error) {
	return s.UpdateCamera(ctx, userID, id, store.CameraPatch{IsActive: &active})
}

func (s *Store) CreateAlert(_ context.Context, a model.Alert) (model.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(a.CameraID) == "" {
		return model.Alert{}, errWithCode("camera_id_required")
	}
	c, ok := s.ownedCamera(a.UserID, a.CameraID)
	if !ok {
		return model.Alert{}, store.ErrNotFound
	}

	a.ID = newID()
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	a.Timestamp = a.Timestamp.UTC()
	s.alerts[a.ID] = a

	name := c.Name
	a.CameraName = &name
	return a, nil
}

func (s *Store) ListAlerts(_ context.Context, f store.AlertFilter) ([]model.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Alert, 0)
	for _, a := range s.alerts {
		if a.UserID != f.UserID {
			continue
		}
		if f.CameraID != "" && a.CameraID != f.CameraID {
			continue
		}
		if c, ok := s.cameras[a.CameraID]; ok {
			name := c.Name
			a.CameraName = &name
		}
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	limit := f.Limit
	if limit <= 0 {
		limit = store.DefaultAlertLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) PurgeAlertsBefore(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, a := range s.alerts {
		if a.Timestamp.Before(before) {
			delete(s.alerts, id)
			removed++
		}
	}
	return removed, nil
}
