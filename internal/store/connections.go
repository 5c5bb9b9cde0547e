package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"querydeck/internal/dbconn"
)

const connectionColumns = `id, connection_name, connection_type, server, port,
	database_name, username, password, file_path`

// ListConnections returns all saved profiles, newest first. Passwords are
// returned in their stored ENC: form.
func (s *Store) ListConnections(ctx context.Context) ([]dbconn.Connection, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+connectionColumns+" FROM connections ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conns := []dbconn.Connection{}
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}

// GetConnection returns one saved profile or ErrNotFound.
func (s *Store) GetConnection(ctx context.Context, id int64) (dbconn.Connection, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+connectionColumns+" FROM connections WHERE id = ?", id)
	c, err := scanConnection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return dbconn.Connection{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return c, err
}

// CreateConnection validates and inserts c, returning its new id. A plaintext
// password is encrypted before it is written.
func (s *Store) CreateConnection(ctx context.Context, c dbconn.Connection) (int64, error) {
	if err := ValidateConnection(c); err != nil {
		return 0, err
	}
	password, err := s.cipher.Conceal(c.Password)
	if err != nil {
		return 0, fmt.Errorf("encrypt password: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO connections (connection_name, connection_type, server, port,
		   database_name, username, password, file_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ConnectionName, c.ConnectionType,
		nullIfEmpty(c.Server), nullPort(c.Port), nullIfEmpty(c.DatabaseName),
		nullIfEmpty(c.Username), nullIfEmpty(password), nullIfEmpty(c.FilePath),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.logger.Info("connection saved", "id", id, "type", c.ConnectionType)
	return id, nil
}

// UpdateConnection replaces the profile with c.ID. Values already in ENC:
// form are stored as given.
func (s *Store) UpdateConnection(ctx context.Context, c dbconn.Connection) error {
	if c.ID <= 0 {
		return dbconn.ValidationError("id is required")
	}
	if err := ValidateConnection(c); err != nil {
		return err
	}
	password, err := s.cipher.Conceal(c.Password)
	if err != nil {
		return fmt.Errorf("encrypt password: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE connections SET
		   connection_name = ?, connection_type = ?, server = ?, port = ?,
		   database_name = ?, username = ?, password = ?, file_path = ?,
		   updated_at = datetime('now')
		 WHERE id = ?`,
		c.ConnectionName, c.ConnectionType,
		nullIfEmpty(c.Server), nullPort(c.Port), nullIfEmpty(c.DatabaseName),
		nullIfEmpty(c.Username), nullIfEmpty(password), nullIfEmpty(c.FilePath),
		c.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(res, c.ID)
}

// DeleteConnection removes a profile. History rows keep their SQL and lose
// the connection reference.
func (s *Store) DeleteConnection(ctx context.Context, id int64) error {
	if id <= 0 {
		return dbconn.ValidationError("id is required")
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM connections WHERE id = ?", id)
	if err != nil {
		return err
	}
	if err := expectOne(res, id); err != nil {
		return err
	}
	s.logger.Info("connection deleted", "id", id)
	return nil
}

// ValidateConnection checks the fields a saved profile needs for its type:
// a file path for sqlite, and server, port, username and password otherwise.
func ValidateConnection(c dbconn.Connection) error {
	if strings.TrimSpace(c.ConnectionName) == "" {
		return dbconn.ValidationError("connection_name is required")
	}
	if strings.TrimSpace(c.ConnectionType) == "" {
		return dbconn.ValidationError("connection_type is required")
	}
	d, err := dbconn.Resolve(c.ConnectionType)
	if err != nil {
		return err
	}

	var missing []string
	if d.ID == dbconn.SQLite {
		if strings.TrimSpace(c.FilePath) == "" {
			missing = append(missing, "file_path")
		}
	} else {
		if strings.TrimSpace(c.Server) == "" {
			missing = append(missing, "server")
		}
		if c.Port == 0 {
			missing = append(missing, "port")
		}
		if strings.TrimSpace(c.Username) == "" {
			missing = append(missing, "username")
		}
		if strings.TrimSpace(c.Password) == "" {
			missing = append(missing, "password")
		}
	}
	if len(missing) > 0 {
		return dbconn.ValidationError("missing required fields: " + strings.Join(missing, ", "))
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConnection(sc scanner) (dbconn.Connection, error) {
	var c dbconn.Connection
	var server, dbName, username, password, filePath sql.NullString
	var port sql.NullInt64
	if err := sc.Scan(
		&c.ID, &c.ConnectionName, &c.ConnectionType,
		&server, &port, &dbName, &username, &password, &filePath,
	); err != nil {
		return c, err
	}
	c.Server = server.String
	c.Port = dbconn.Port(port.Int64)
	c.DatabaseName = dbName.String
	c.Username = username.String
	c.Password = password.String
	c.FilePath = filePath.String
	return c, nil
}

func nullPort(p dbconn.Port) any {
	if p == 0 {
		return nil
	}
	return int64(p)
}

func expectOne(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}
