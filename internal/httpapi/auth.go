package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Shuru63/skylark-lab-assignment/internal/logging"
	"github.com/Shuru63/skylark-lab-assignment/internal/model"
	"github.com/Shuru63/skylark-lab-assignment/internal/store"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	// bcrypt rejects input past 72 bytes.
	Password string `json:"password" validate:"required,min=6,max=72,maxbytes=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	User  model.Identity `json:"user"`
	Token string         `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !bindJSON(w, r, &req, func() { req.Username = strings.TrimSpace(req.Username) }) {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logging.Error().Err(err).Msg("hash password")
		writeError(w, http.StatusInternalServerError, "internal", "failed to hash password")
		return
	}

	created, err := s.store.CreateUser(r.Context(), model.User{
		Username:     req.Username,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "conflict", "username already exists")
			return
		}
		logging.Error().Err(err).Str("username", req.Username).Msg("create user")
		writeError(w, http.StatusInternalServerError, "internal", "failed to create user")
		return
	}

	s.writeSession(w, http.StatusCreated, created)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !bindJSON(w, r, &req, func() { req.Username = strings.TrimSpace(req.Username) }) {
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
			return
		}
		logging.Error().Err(err).Msg("load user for login")
		writeError(w, http.StatusInternalServerError, "internal", "failed to load user")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}

	s.writeSession(w, http.StatusOK, *user)
}

func (s *Server) writeSession(w http.ResponseWriter, status int, u model.User) {
	tok, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		logging.Error().Err(err).Str("user_id", u.ID).Msg("issue token")
		writeError(w, http.StatusInternalServerError, "internal", "failed to generate token")
		return
	}
	writeJSON(w, status, authResponse{User: u.Identity(), Token: tok})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	writeJSON(w, http.StatusOK, id)
}
