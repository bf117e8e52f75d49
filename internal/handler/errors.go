package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/service"
	"github.com/stockwise/stockwise/internal/store"
)

const maxBodyBytes = 1 << 20

// statusFor maps domain sentinels to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, store.ErrInsufficientStock),
		errors.Is(err, service.ErrInsufficientHistory):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeServiceError writes err with its mapped status. Internal errors are logged
// and their text is not sent to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		models.WriteError(w, code, "internal server error")
		return
	}
	models.WriteError(w, code, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		models.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return id, true
}

// pagination reads skip (>= 0, default 0) and limit (1..1000, default 100)
func pagination(w http.ResponseWriter, r *http.Request) (models.Pagination, bool) {
	p := models.Pagination{Skip: 0, Limit: 100}
	q := r.URL.Query()
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			models.WriteError(w, http.StatusBadRequest, "skip must be a non-negative integer")
			return p, false
		}
		p.Skip = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			models.WriteError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return p, false
		}
		p.Limit = n
	}
	return p, true
}
