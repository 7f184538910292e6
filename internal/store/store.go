package store

import (
	"context"
	"errors"
	"time"

	"github.com/Shuru63/skylark-lab-assignment/internal/model"
)

var (
	ErrNotFound = errors.New("not_found")
	ErrConflict = errors.New("conflict")
)

const DefaultAlertLimit = 50

// CameraPatch carries a partial camera update. Nil fields are left untouched.
type CameraPatch struct {
	Name     *string
	RTSPURL  *string
	Location *string
	IsActive *bool
}

type AlertFilter struct {
	UserID   string
	CameraID string
	Limit    int
}

type Store interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	// Camera accessors are scoped to the owning user; a camera owned by
	// someone else is reported as ErrNotFound.
	ListCameras(ctx context.Context, userID string) ([]model.Camera, error)
	GetCamera(ctx context.Context, userID, id string) (*model.Camera, error)
	CreateCamera(ctx context.Context, c model.Camera) (model.Camera, error)
	UpdateCamera(ctx context.Context, userID, id string, p CameraPatch) (*model.Camera, error)
	DeleteCamera(ctx context.Context, userID, id string) error
	SetCameraActive(ctx context.Context, userID, id string, active bool) (*model.Camera, error)

	// CreateAlert fails with ErrNotFound unless the camera exists and is
	// owned by a.UserID.
	CreateAlert(ctx context.Context, a model.Alert) (model.Alert, error)
	ListAlerts(ctx context.Context, f AlertFilter) ([]model.Alert, error)
	PurgeAlertsBefore(ctx context.Context, before time.Time) (int, error)
}
