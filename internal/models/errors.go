package models

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Code      int    `json:"code,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func WriteError(w http.ResponseWriter, code int, message string) {
	WriteErrorBody(w, ErrorResponse{Message: message, Code: code})
}

// WriteErrorBody writes a fully populated error envelope; Status and Code are filled in
// when left empty.
func WriteErrorBody(w http.ResponseWriter, body ErrorResponse) {
	if body.Status == "" {
		body.Status = "error"
	}
	if body.Code == 0 {
		body.Code = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.Code)
	json.NewEncoder(w).Encode(body)
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
