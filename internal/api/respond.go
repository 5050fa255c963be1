// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package api

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/gustus/internal/logging"
)

// APIResponse is the uniform response envelope.
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data,omitempty"`
	Error    *APIError `json:"error,omitempty"`
	Metadata Metadata  `json:"metadata"`
}

// APIError carries a machine-readable code and a human-readable message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Metadata is the envelope's bookkeeping block.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, response *APIResponse) {
	response.Metadata.Timestamp = time.Now().UTC()
	response.Metadata.RequestID = logging.CorrelationID(r.Context())

	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("marshal JSON response failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("write JSON response failed")
	}
}

// respondError sends an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	respondJSON(w, r, status, &APIResponse{
		Status: "error",
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
