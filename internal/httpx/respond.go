// Package httpx holds the JSON response and path parsing helpers shared by
// controllers and handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/hoperise-backend/internal/errors"
	"github.com/unclebandit/hoperise-backend/internal/gateway"
)

type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError answers with the error's code. Infrastructure failures are
// logged and hidden behind a generic 500.
func WriteError(w http.ResponseWriter, log *zap.Logger, err error) {
	code := appErrors.CodeOf(err)
	switch {
	case code != "":
		WriteJSON(w, appErrors.HTTPStatus(code), ErrorBody{Error: string(code), Message: err.Error()})
	case errors.Is(err, gateway.ErrInsufficientBalance):
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorBody{Error: "InsufficientBalance", Message: err.Error()})
	default:
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		WriteJSON(w, http.StatusInternalServerError, ErrorBody{Error: "Internal", Message: "internal server error"})
	}
}

func BadRequest(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusBadRequest, ErrorBody{Error: "BadRequest", Message: msg})
}

// CampaignID parses the {id} path parameter.
func CampaignID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// MilestoneIndex parses the {index} path parameter.
func MilestoneIndex(r *http.Request) (uint8, bool) {
	idx, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 8)
	return uint8(idx), err == nil
}

// QueryInt returns the named query parameter, or def when absent or invalid.
func QueryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}
