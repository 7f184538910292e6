package postgres

import (
	"context"

	"github.com/Shuru63/skylark-lab-assignment/internal/model"
	"github.com/Shuru63/skylark-lab-assignment/internal/store"

	"github.com/jackc/pgx/v5"
)

const cameraColumns = `id::text, user_id::text, name, rtsp_url, coalesce(location, ''), is_active, created_at, updated_at`

func scanCamera(row pgx.Row) (model.Camera, error) {
	var c model.Camera
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.RTSPURL, &c.Location, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Store) ListCameras(ctx context.Context, userID string) ([]model.Camera, error) {
	rows, err := s.pool.Query(ctx, `
		select `+cameraColumns+`
		from public.cameras
		where user_id = $1::uuid
		order by created_at desc
	`, userID)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()

	out := make([]model.Camera, 0)
	for rows.Next() {
		c, err := scanCamera(rows)
		if err != nil {
			return nil, mapPgErr(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgErr(err)
	}
	return out, nil
}

func (s *Store) GetCamera(ctx context.Context, userID, id string) (*model.Camera, error) {
	c, err := scanCamera(s.pool.QueryRow(ctx, `
		select `+cameraColumns+`
		from public.cameras
		where id = $1::uuid and user_id = $2::uuid
	`, id, userID))
	if err != nil {
		return nil, mapPgErr(err)
	}
	return &c, nil
}

func (s *Store) CreateCamera(ctx context.Context, c model.Camera) (model.Camera, error) {
	out, err := scanCamera(s.pool.QueryRow(ctx, `
		insert into public.cameras (user_id, name, rtsp_url, location)
		values ($1::uuid, $2, $3, nullif($4, ''))
		returning `+cameraColumns,
		c.UserID, c.Name, c.RTSPURL, c.Location))
	if err != nil {
		return model.Camera{}, mapPgErr(err)
	}
	return out, nil
}

func (s *Store) UpdateCamera(ctx context.Context, userID, id string, p store.CameraPatch) (*model.Camera, error) {
	c, err := scanCamera(s.pool.QueryRow(ctx, `
		update public.cameras
		set name = coalesce($3, name),
		    rtsp_url = coalesce($4, rtsp_url),
		    location = coalesce($5, location),
		    is_active = coalesce($6, is_active)
		where id = $1::uuid and user_id = $2::uuid
		returning `+cameraColumns,
		id, userID, p.Name, p.RTSPURL, p.Location, p.IsActive))
	if err != nil {
		return nil, mapPgErr(err)
	}
	return &c, nil
}

func (s *Store) DeleteCamera(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx, `
		delete from public.cameras
		where id = $1::uuid and user_id = $2::uuid
	`, id, userID)
	if err != nil {
		return mapPgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetCameraActive(ctx context.Context, userID, id string, active bool) (*model.Camera, error) {
	return s.UpdateCamera(ctx, userID, id, store.CameraPatch{IsActive: &active})
}
