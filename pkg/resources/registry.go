// Package resources implements a SQLite-backed registry of MCP resources:
// durable, URI-addressed content that survives process restarts.
package resources

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/richard-senior/mcp/internal/logger"
	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/server"
)

// Registry persists resources (URI, metadata, and content) in a local
// SQLite database, and serves resources/list and resources/read from it.
type Registry struct {
	db *sql.DB
}

// NewRegistry opens (creating if necessary) a SQLite database at dbPath
// and ensures its schema exists.
func NewRegistry(dbPath string) (*Registry, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening resource database: %w", err)
	}
	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to resource database: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS resources (
	uri         TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	mime_type   TEXT,
	content     TEXT,
	updated_at  TIMESTAMP NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("creating resource schema: %w", err)
	}

	reg := &Registry{db: db}
	reg.ensureSampleResources()
	return reg, nil
}

// Close releases the underlying database handle.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Put inserts or updates a resource's metadata and content.
func (r *Registry) Put(uri, name, description, mimeType, content string) error {
	_, err := r.db.Exec(
		`INSERT INTO resources (uri, name, description, mime_type, content, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(uri) DO UPDATE SET
			name=excluded.name, description=excluded.description,
			mime_type=excluded.mime_type, content=excluded.content, updated_at=excluded.updated_at`,
		uri, name, description, mimeType, content, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("writing resource %s: %w", uri, err)
	}
	return nil
}

// Delete removes a resource.
func (r *Registry) Delete(uri string) error {
	_, err := r.db.Exec(`DELETE FROM resources WHERE uri = ?`, uri)
	if err != nil {
		return fmt.Errorf("deleting resource %s: %w", uri, err)
	}
	return nil
}

// List returns the metadata of every stored resource, for resources/list.
func (r *Registry) List() ([]protocol.Resource, error) {
	rows, err := r.db.Query(`SELECT uri, name, description, mime_type FROM resources ORDER BY uri`)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	defer rows.Close()

	var out []protocol.Resource
	for rows.Next() {
		var res protocol.Resource
		var description, mimeType sql.NullString
		if err := rows.Scan(&res.URI, &res.Name, &description, &mimeType); err != nil {
			return nil, fmt.Errorf("scanning resource row: %w", err)
		}
		res.Description = description.String
		res.MimeType = mimeType.String
		out = append(out, res)
	}
	return out, rows.Err()
}

// Read fetches one resource's content by URI, for resources/read.
func (r *Registry) Read(uri string) (*protocol.ReadResourceResult, error) {
	row := r.db.QueryRow(`SELECT mime_type, content FROM resources WHERE uri = ?`, uri)

	var mimeType, content sql.NullString
	if err := row.Scan(&mimeType, &content); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("resource not found: %s", uri)
		}
		return nil, fmt.Errorf("reading resource %s: %w", uri, err)
	}

	return &protocol.ReadResourceResult{
		Contents: []protocol.ResourceContents{
			{URI: uri, MimeType: mimeType.String, Text: content.String},
		},
	}, nil
}

// RegisterAll wires every stored resource into s as a literal,
// subscribable resource backed by this registry.
func (r *Registry) RegisterAll(s *server.Server) error {
	list, err := r.List()
	if err != nil {
		return err
	}
	for _, res := range list {
		s.RegisterResource(res, func(ctx *server.ToolContext, matchedURI string, params map[string]string) (*protocol.ReadResourceResult, error) {
			return r.Read(matchedURI)
		})
	}
	return nil
}

func (r *Registry) ensureSampleResources() {
	existing, err := r.List()
	if err != nil {
		logger.Warn("failed to check existing resources:", err)
		return
	}
	if len(existing) > 0 {
		return
	}

	samples := []struct {
		uri, name, description, mimeType, content string
	}{
		{
			uri:         "mcp://docs/overview",
			name:        "protocol_overview",
			description: "A short overview of the Model Context Protocol",
			mimeType:    "text/markdown",
			content:     "# Model Context Protocol\n\nMCP lets a host application expose tools, resources and prompts to an LLM over a session.",
		},
		{
			uri:         "mcp://docs/weather",
			name:        "weather_sample_data",
			description: "Sample historical weather data, for demonstrating resource reads",
			mimeType:    "application/json",
			content:     `{"location":"San Francisco","temperature":72,"conditions":"Partly Cloudy"}`,
		},
	}

	for _, s := range samples {
		if err := r.Put(s.uri, s.name, s.description, s.mimeType, s.content); err != nil {
			logger.Warn("failed to seed sample resource", s.uri, err)
		}
	}
}
