package http

import (
	"encoding/json"
	"net/http"
)

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Total   *int        `json:"total,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondData(w http.ResponseWriter, status int, data interface{}, total int) {
	respondJSON(w, status, apiResponse{Success: true, Data: data, Total: &total})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, apiResponse{Error: message, Code: code})
}
