package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Shuru63/skylark-lab-assignment/internal/logging"
	"github.com/Shuru63/skylark-lab-assignment/internal/model"
	"github.com/Shuru63/skylark-lab-assignment/internal/store"
	"github.com/Shuru63/skylark-lab-assignment/internal/validation"
)

type listAlertsQuery struct {
	CameraID string `json:"cameraId"`
	Limit    int    `json:"limit" validate:"min=1,max=1000"`
}

// createAlertRequest is posted by the detection worker.
type createAlertRequest struct {
	CameraID   string     `json:"cameraId" validate:"required"`
	UserID     string     `json:"userId" validate:"required"`
	Confidence *float64   `json:"confidence" validate:"required"`
	ImageURL   *string    `json:"imageUrl"`
	Timestamp  *time.Time `json:"timestamp"`
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	q := listAlertsQuery{
		CameraID: strings.TrimSpace(r.URL.Query().Get("cameraId")),
		Limit:    store.DefaultAlertLimit,
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeErrorDetails(w, http.StatusBadRequest, "invalid_request", "limit must be an integer", []validation.FieldError{{
				Field: "limit", Tag: "numeric", Message: "limit must be an integer",
			}})
			return
		}
		q.Limit = n
	}
	if !validate(w, &q) {
		return
	}

	id, _ := identityFromContext(r.Context())
	alerts, err := s.store.ListAlerts(r.Context(), store.AlertFilter{
		UserID:   id.ID,
		CameraID: q.CameraID,
		Limit:    q.Limit,
	})
	if err != nil {
		s.storeError(w, r, err, "alert")
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

// handleCreateAlert stores the alert, then pushes it to the owner's live
// connections.
func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	normalize := func() {
		req.CameraID = strings.TrimSpace(req.CameraID)
		req.UserID = strings.TrimSpace(req.UserID)
		if req.ImageURL != nil && strings.TrimSpace(*req.ImageURL) == "" {
			req.ImageURL = nil
		}
	}
	if !bindJSON(w, r, &req, normalize) {
		return
	}

	a := model.Alert{
		CameraID:   req.CameraID,
		UserID:     req.UserID,
		Confidence: *req.Confidence,
		ImageURL:   req.ImageURL,
	}
	if req.Timestamp != nil {
		a.Timestamp = req.Timestamp.UTC()
	}

	created, err := s.store.CreateAlert(r.Context(), a)
	if err != nil {
		s.storeError(w, r, err, "camera")
		return
	}

	n := s.live.Broadcast(created.UserID, created)
	logging.Info().
		Str("alert_id", created.ID).
		Str("camera_id", created.CameraID).
		Str("user_id", created.UserID).
		Int("connections", n).
		Msg("alert created")

	writeJSON(w, http.StatusCreated, created)
}
