package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"querydeck/internal/dbconn"
	"querydeck/internal/store"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// writeJSON encodes v before sending the status. An encoding failure is
// answered with a 500 failure envelope.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.logger.Error("encode response", "path", r.URL.Path, "error", err)
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(envelope{Success: false, Error: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) writeData(w http.ResponseWriter, r *http.Request, data any) {
	s.writeJSON(w, r, http.StatusOK, envelope{Success: true, Data: data})
}

// writeError maps err to a status and writes the failure envelope. The
// message is the underlying error text unchanged.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	s.writeJSON(w, r, status, envelope{Success: false, Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadBody),
		errors.Is(err, dbconn.ErrValidation),
		errors.Is(err, dbconn.ErrUnsupportedDialect):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dbconn.ErrConnection):
		return http.StatusBadGateway
	case errors.Is(err, dbconn.ErrIntrospection), errors.Is(err, dbconn.ErrQuery):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

var errBadBody = errors.New("invalid request body")

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}
