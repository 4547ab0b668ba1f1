package models

import (
	"encoding/json"
	"net/http"
)

// Problem представляет ответ об ошибке в стиле RFC 7807.
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`            // краткое название
	Status int    `json:"status"`           // HTTP код
	Code   string `json:"code,omitempty"`   // машинный код: not_found, conflict, ...
	Detail string `json:"detail,omitempty"` // подробности
	Extra  any    `json:"extra,omitempty"`
}

func WriteProblem(w http.ResponseWriter, p Problem) {
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
