//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package server

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/pgEdge/pgedge-etl/internal/logging"
)

// Response is the envelope of every API response.
type Response struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Meta      `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Meta carries response metadata.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, &Response{
		Status:   "success",
		Data:     data,
		Metadata: Meta{Timestamp: time.Now().UTC()},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Err(err).Str("code", code).Msg("API error")
	}

	writeJSON(w, status, &Response{
		Status:   "error",
		Metadata: Meta{Timestamp: time.Now().UTC()},
		Error:    &APIError{Code: code, Message: message},
	})
}
