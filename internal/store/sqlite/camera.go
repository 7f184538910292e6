package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Shuru63/skylark-lab-assignment/internal/model"
	"github.com/Shuru63/skylark-lab-assignment/internal/store"
)

const cameraColumns = "id, user_id, name, rtsp_url, COALESCE(location, ''), is_active, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCamera(row rowScanner) (model.Camera, error) {
	var c model.Camera
	var created, updated int64
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.RTSPURL, &c.Location, &c.IsActive, &created, &updated); err != nil {
		return model.Camera{}, err
	}
	c.CreatedAt = fromUnix(created)
	c.UpdatedAt = fromUnix(updated)
	return c, nil
}

func (s *Store) ListCameras(ctx context.Context, userID string) ([]model.Camera, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+cameraColumns+" FROM cameras WHERE user_id = ? ORDER BY created_at DESC",
		userID,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]model.Camera, 0)
	for rows.Next() {
		c, err := scanCamera(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, c)
	}
	return out, mapErr(rows.Err())
}

func (s *Store) GetCamera(ctx context.Context, userID, id string) (*model.Camera, error) {
	c, err := scanCamera(s.db.QueryRowContext(ctx,
		"SELECT "+cameraColumns+" FROM cameras WHERE id = ? AND user_id = ?",
		id, userID,
	))
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (s *Store) CreateCamera(ctx context.Context, c model.Camera) (model.Camera, error) {
	now := time.Now().UTC()
	c.ID = newID()
	c.IsActive = false
	c.CreatedAt = now
	c.UpdatedAt = now

	var location sql.NullString
	if c.Location != "" {
		location = sql.NullString{String: c.Location, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cameras (id, user_id, name, rtsp_url, location, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		c.ID, c.UserID, c.Name, c.RTSPURL, location, toUnix(now), toUnix(now),
	)
	if err != nil {
		return model.Camera{}, mapErr(err)
	}
	return c, nil
}

func (s *Store) UpdateCamera(ctx context.Context, userID, id string, p store.CameraPatch) (*model.Camera, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cameras
		SET name = COALESCE(?, name),
		    rtsp_url = COALESCE(?, rtsp_url),
		    location = COALESCE(?, location),
		    is_active = COALESCE(?, is_active),
		    updated_at = ?
		WHERE id = ? AND user_id = ?`,
		p.Name, p.RTSPURL, p.Location, p.IsActive, toUnix(time.Now()), id, userID,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetCamera(ctx, userID, id)
}

func (s *Store) DeleteCamera(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM cameras WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetCameraActive(ctx context.Context, userID, id string, active bool) (*model.Camera, error) {
	return s.UpdateCamera(ctx, userID, id, store.CameraPatch{IsActive: &active})
}
