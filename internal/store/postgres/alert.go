package postgres

import (
	"context"
	"time"

	"github.com/Shuru63/skylark-lab-assignment/internal/model"
	"github.com/Shuru63/skylark-lab-assignment/internal/store"
)

func (s *Store) CreateAlert(ctx context.Context, a model.Alert) (model.Alert, error) {
	var ts *time.Time
	if !a.Timestamp.IsZero() {
		t := a.Timestamp.UTC()
		ts = &t
	}

	var out model.Alert
	err := s.pool.QueryRow(ctx, `
		with c as (
		  select id, name from public.cameras
		  where id = $1::uuid and user_id = $2::uuid
		), ins as (
		  insert into public.alerts (camera_id, user_id, confidence, image_url, detected_at)
		  select c.id, $2::uuid, $3, $4, coalesce($5, now()) from c
		  returning id, camera_id, user_id, detected_at, confidence, image_url
		)
		select ins.id::text, ins.camera_id::text, c.name, ins.user_id::text, ins.detected_at, ins.confidence, ins.image_url
		from ins join c on c.id = ins.camera_id
	`, a.CameraID, a.UserID, a.Confidence, a.ImageURL, ts).Scan(
		&out.ID,
		&out.CameraID,
		&out.CameraName,
		&out.UserID,
		&out.Timestamp,
		&out.Confidence,
		&out.ImageURL,
	)
	if err != nil {
		return model.Alert{}, mapPgErr(err)
	}
	return out, nil
}

func (s *Store) ListAlerts(ctx context.Context, f store.AlertFilter) ([]model.Alert, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = store.DefaultAlertLimit
	}

	rows, err := s.pool.Query(ctx, `
		select a.id::text, a.camera_id::text, c.name, a.user_id::text, a.detected_at, a.confidence, a.image_url
		from public.alerts a
		left join public.cameras c on c.id = a.camera_id
		where a.user_id = $1::uuid
		  and ($2 = '' or a.camera_id::text = $2)
		order by a.detected_at desc
		limit $3
	`, f.UserID, f.CameraID, limit)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()

	out := make([]model.Alert, 0)
	for rows.Next() {
		var a model.Alert
		if err := rows.Scan(&a.ID, &a.CameraID, &a.CameraName, &a.UserID, &a.Timestamp, &a.Confidence, &a.ImageURL); err != nil {
			return nil, mapPgErr(err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgErr(err)
	}
	return out, nil
}
