package server

import (
	"net/http"
	"strconv"

	"querydeck/internal/app"
	"querydeck/internal/dbconn"
)

// targetBody is the connection selector shared by the database endpoints.
type targetBody struct {
	Connection   *dbconn.Connection `json:"connection"`
	ConnectionID int64              `json:"connectionId"`
}

func (b targetBody) target() app.Target {
	return app.Target{ConnectionID: b.ConnectionID, Connection: b.Connection}
}

type queryBody struct {
	targetBody
	Query    string `json:"query"`
	Page     *int64 `json:"page"`
	PageSize *int64 `json:"pageSize"`
}

type queryResponse struct {
	Success bool `json:"success"`
	*dbconn.QueryResult
}

type ddlBody struct {
	targetBody
	Dialect string `json:"dialect"`
}

type idBody struct {
	ID int64 `json:"id"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok", "version": s.app.Version()})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var body queryBody
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	req := dbconn.Request{Query: body.Query, PageSize: s.app.DefaultPageSize()}
	if body.Page != nil {
		req.Page = *body.Page
	}
	if body.PageSize != nil {
		req.PageSize = *body.PageSize
	}

	res, err := s.app.Execute(r.Context(), body.target(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, queryResponse{Success: true, QueryResult: res})
}

func (s *Server) handleObjects(w http.ResponseWriter, r *http.Request) {
	var body targetBody
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := s.app.Introspect(r.Context(), body.target())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, m)
}

func (s *Server) handleDDL(w http.ResponseWriter, r *http.Request) {
	var body ddlBody
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	ddl, err := s.app.ExportDDL(r.Context(), body.target(), body.Dialect)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, ddl)
}

// handleCheckDatabases takes the connection itself as the body. A body with
// only an id refers to a saved profile.
func (s *Server) handleCheckDatabases(w http.ResponseWriter, r *http.Request) {
	var conn dbconn.Connection
	if err := decodeBody(w, r, &conn); err != nil {
		s.writeError(w, r, err)
		return
	}
	t := app.Target{Connection: &conn}
	if conn.ConnectionType == "" && conn.ID > 0 {
		t = app.Target{ConnectionID: conn.ID}
	}
	names, err := s.app.ListDatabases(r.Context(), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, names)
}

func (s *Server) handleListConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := s.app.ListConnections(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, conns)
}

func (s *Server) handleCreateConnection(w http.ResponseWriter, r *http.Request) {
	var conn dbconn.Connection
	if err := decodeBody(w, r, &conn); err != nil {
		s.writeError(w, r, err)
		return
	}
	conn.ID = 0
	id, err := s.app.SaveConnection(r.Context(), conn)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, envelope{Success: true, Data: idBody{ID: id}})
}

func (s *Server) handleUpdateConnection(w http.ResponseWriter, r *http.Request) {
	var conn dbconn.Connection
	if err := decodeBody(w, r, &conn); err != nil {
		s.writeError(w, r, err)
		return
	}
	if conn.ID <= 0 {
		s.writeError(w, r, dbconn.ValidationError("id is required"))
		return
	}
	id, err := s.app.SaveConnection(r.Context(), conn)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, idBody{ID: id})
}

// handleDeleteConnection accepts the id in the body or as ?id=.
func (s *Server) handleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	var body idBody
	if q := r.URL.Query().Get("id"); q != "" {
		id, err := strconv.ParseInt(q, 10, 64)
		if err != nil {
			s.writeError(w, r, dbconn.ValidationError("id must be an integer"))
			return
		}
		body.ID = id
	} else if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.app.DeleteConnection(r.Context(), body.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, idBody{ID: body.ID})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var connID int64
	var limit int
	var err error
	if v := q.Get("connectionId"); v != "" {
		if connID, err = strconv.ParseInt(v, 10, 64); err != nil {
			s.writeError(w, r, dbconn.ValidationError("connectionId must be an integer"))
			return
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			s.writeError(w, r, dbconn.ValidationError("limit must be an integer"))
			return
		}
	}
	history, err := s.app.History(r.Context(), connID, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, history)
}
