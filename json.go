package main

import (
	"encoding/json"
	"errors"
	"net/http"
)

// This file contains helper functions for sending standardized JSON responses.

type ErrorResponse struct {
	Error string `json:"error"`
}

// respondWithError logs an error (if one is provided) and sends a JSON error
// body with a generic message. Details stay in the log.
func (cfg *apiConfig) respondWithError(w http.ResponseWriter, code int, msg string, err error) {
	if err != nil {
		if code >= http.StatusInternalServerError {
			cfg.logger.Error(msg, "error", err)
		} else {
			cfg.logger.Debug(msg, "error", err)
		}
	}
	cfg.respondWithJSON(w, code, ErrorResponse{Error: msg})
}

// respondWithFailure maps a service error onto the HTTP boundary: bad input
// is a 400 carrying the validation message, everything else is a 500 with
// serverMsg.
func (cfg *apiConfig) respondWithFailure(w http.ResponseWriter, serverMsg string, err error) {
	if !isClientError(err) {
		cfg.respondWithError(w, http.StatusInternalServerError, serverMsg, err)
		return
	}
	msg := "Invalid timezone parameter"
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		msg = validationErr.Message
	}
	cfg.respondWithError(w, http.StatusBadRequest, msg, err)
}

// respondWithJSON marshals a payload to JSON, sets the appropriate content-type header,
// writes the HTTP status code, and sends the JSON response to the client.
func (cfg *apiConfig) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(payload)
	if err != nil {
		cfg.logger.Error("error marshalling JSON", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		cfg.logger.Error("error writing response", "error", err)
	}
}
