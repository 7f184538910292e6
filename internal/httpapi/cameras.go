package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Shuru63/skylark-lab-assignment/internal/logging"
	"github.com/Shuru63/skylark-lab-assignment/internal/model"
	"github.com/Shuru63/skylark-lab-assignment/internal/store"
)

// StreamController is told when a camera is started or stopped so a
// stream worker can attach to or detach from its feed.
type StreamController interface {
	Start(ctx context.Context, cam model.Camera) error
	Stop(ctx context.Context, cam model.Camera) error
}

type logStreamController struct{}

func (logStreamController) Start(_ context.Context, cam model.Camera) error {
	logging.Info().Str("camera_id", cam.ID).Str("rtsp_url", cam.RTSPURL).Msg("camera stream start requested")
	return nil
}

func (logStreamController) Stop(_ context.Context, cam model.Camera) error {
	logging.Info().Str("camera_id", cam.ID).Msg("camera stream stop requested")
	return nil
}

type createCameraRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	RTSPURL  string `json:"rtspUrl" validate:"required,max=2048"`
	Location string `json:"location" validate:"max=200"`
}

type updateCameraRequest struct {
	Name     *string `json:"name" validate:"omitnil,min=1,max=200"`
	RTSPURL  *string `json:"rtspUrl" validate:"omitnil,min=1,max=2048"`
	Location *string `json:"location" validate:"omitnil,max=200"`
	IsActive *bool   `json:"isActive"`
}

func trimPtr(p *string) {
	if p != nil {
		*p = strings.TrimSpace(*p)
	}
}

func (s *Server) handleListCameras(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	cams, err := s.store.ListCameras(r.Context(), id.ID)
	if err != nil {
		s.storeError(w, r, err, "camera")
		return
	}
	writeJSON(w, http.StatusOK, cams)
}

func (s *Server) handleGetCamera(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	cam, err := s.store.GetCamera(r.Context(), id.ID, chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, r, err, "camera")
		return
	}
	writeJSON(w, http.StatusOK, cam)
}

func (s *Server) handleCreateCamera(w http.ResponseWriter, r *http.Request) {
	var req createCameraRequest
	normalize := func() {
		req.Name = strings.TrimSpace(req.Name)
		req.RTSPURL = strings.TrimSpace(req.RTSPURL)
		req.Location = strings.TrimSpace(req.Location)
	}
	if !bindJSON(w, r, &req, normalize) {
		return
	}

	id, _ := identityFromContext(r.Context())
	cam, err := s.store.CreateCamera(r.Context(), model.Camera{
		UserID:   id.ID,
		Name:     req.Name,
		RTSPURL:  req.RTSPURL,
		Location: req.Location,
	})
	if err != nil {
		s.storeError(w, r, err, "camera")
		return
	}
	writeJSON(w, http.StatusCreated, cam)
}

func (s *Server) handleUpdateCamera(w http.ResponseWriter, r *http.Request) {
	var req updateCameraRequest
	normalize := func() {
		trimPtr(req.Name)
		trimPtr(req.RTSPURL)
		trimPtr(req.Location)
	}
	if !bindJSON(w, r, &req, normalize) {
		return
	}

	id, _ := identityFromContext(r.Context())
	cam, err := s.store.UpdateCamera(r.Context(), id.ID, chi.URLParam(r, "id"), store.CameraPatch{
		Name:     req.Name,
		RTSPURL:  req.RTSPURL,
		Location: req.Location,
		IsActive: req.IsActive,
	})
	if err != nil {
		s.storeError(w, r, err, "camera")
		return
	}
	writeJSON(w, http.StatusOK, cam)
}

func (s *Server) handleDeleteCamera(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	if err := s.store.DeleteCamera(r.Context(), id.ID, chi.URLParam(r, "id")); err != nil {
		s.storeError(w, r, err, "camera")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "camera deleted"})
}

func (s *Server) handleStartCamera(w http.ResponseWriter, r *http.Request) {
	s.setCameraActive(w, r, true)
}

func (s *Server) handleStopCamera(w http.ResponseWriter, r *http.Request) {
	s.setCameraActive(w, r, false)
}

func (s *Server) setCameraActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, _ := identityFromContext(r.Context())
	cam, err := s.store.SetCameraActive(r.Context(), id.ID, chi.URLParam(r, "id"), active)
	if err != nil {
		s.storeError(w, r, err, "camera")
		return
	}

	notify := s.streams.Stop
	if active {
		notify = s.streams.Start
	}
	if err := notify(r.Context(), *cam); err != nil {
		logging.Warn().Err(err).Str("camera_id", cam.ID).Bool("active", active).Msg("stream controller failed")
	}
	writeJSON(w, http.StatusOK, cam)
}
