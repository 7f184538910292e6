package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/Shuru63/skylark-lab-assignment/internal/validation"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, msg string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: msg}})
}

func writeErrorDetails(w http.ResponseWriter, status int, code, msg string, details any) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: msg, Details: details}})
}

// bindJSON decodes the request body into dst and validates it. On failure
// it writes a 400 and returns false.
func bindJSON(w http.ResponseWriter, r *http.Request, dst any, normalize ...func()) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		msg := "invalid JSON body"
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			msg = "request body is required"
		case errors.As(err, &tooLarge):
			msg = "request body too large"
		}
		writeErrorDetails(w, http.StatusBadRequest, "invalid_request", msg, err.Error())
		return false
	}

	for _, fn := range normalize {
		fn()
	}
	return validate(w, dst)
}

func validate(w http.ResponseWriter, v any) bool {
	err := validation.Struct(v)
	if err == nil {
		return true
	}
	var reqErr *validation.RequestError
	if errors.As(err, &reqErr) {
		writeErrorDetails(w, http.StatusBadRequest, "invalid_request", reqErr.Error(), reqErr.Fields)
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	return false
}
