package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/Shuru63/skylark-lab-assignment/internal/model"
)

const userColumns = "id, username, password_hash, created_at, updated_at"

func (s *Store) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	now := time.Now().UTC()
	u.ID = newID()
	u.Username = strings.TrimSpace(u.Username)
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?)",
		u.ID, u.Username, u.PasswordHash, toUnix(now), toUnix(now),
	)
	if err != nil {
		return model.User{}, mapErr(err)
	}
	return u, nil
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User
	var created, updated int64
	err := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where, arg,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &created, &updated)
	if err != nil {
		return nil, mapErr(err)
	}
	u.CreatedAt = fromUnix(created)
	u.UpdatedAt = fromUnix(updated)
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.getUser(ctx, "username = ?", username)
}
