package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Shuru63/skylark-lab-assignment/internal/model"
	"github.com/Shuru63/skylark-lab-assignment/internal/store"
)

func (s *Store) CreateAlert(ctx context.Context, a model.Alert) (model.Alert, error) {
	cam, err := s.GetCamera(ctx, a.UserID, a.CameraID)
	if err != nil {
		return model.Alert{}, err
	}

	a.ID = newID()
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	a.Timestamp = fromUnix(toUnix(a.Timestamp))

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, camera_id, user_id, detected_at, confidence, image_url)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.CameraID, a.UserID, toUnix(a.Timestamp), a.Confidence, a.ImageURL,
	)
	if err != nil {
		return model.Alert{}, mapErr(err)
	}

	name := cam.Name
	a.CameraName = &name
	return a, nil
}

func (s *Store) ListAlerts(ctx context.Context, f store.AlertFilter) ([]model.Alert, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = store.DefaultAlertLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.camera_id, c.name, a.user_id, a.detected_at, a.confidence, a.image_url
		FROM alerts a
		LEFT JOIN cameras c ON c.id = a.camera_id
		WHERE a.user_id = ? AND (? = '' OR a.camera_id = ?)
		ORDER BY a.detected_at DESC
		LIMIT ?`,
		f.UserID, f.CameraID, f.CameraID, limit,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]model.Alert, 0)
	for rows.Next() {
		var a model.Alert
		var cameraName, imageURL sql.NullString
		var detected int64
		if err := rows.Scan(&a.ID, &a.CameraID, &cameraName, &a.UserID, &detected, &a.Confidence, &imageURL); err != nil {
			return nil, mapErr(err)
		}
		a.Timestamp = fromUnix(detected)
		if cameraName.Valid {
			a.CameraName = &cameraName.String
		}
		if imageURL.Valid {
			a.ImageURL = &imageURL.String
		}
		out = append(out, a)
	}
	return out, mapErr(rows.Err())
}
