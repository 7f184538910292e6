package model

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity is the authenticated subject attached to a request.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (u User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username}
}

type Camera struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	RTSPURL   string    `json:"rtspUrl"`
	Location  string    `json:"location,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Alert struct {
	ID         string    `json:"id"`
	CameraID   string    `json:"cameraId"`
	CameraName *string   `json:"cameraName"`
	UserID     string    `json:"userId"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"`
	ImageURL   *string   `json:"imageUrl"`
}
