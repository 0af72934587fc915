package api

import (
	"time"

	"github.com/ssargent/dbcforge/pkg/dbc"
	"github.com/ssargent/dbcforge/pkg/storage"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port          int
	Bind          string
	APIKey        string // empty disables X-API-Key checks
	DefaultBuild  string
	MaxUploadSize int64
}

// FileInfo describes a stored file.
type FileInfo struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Build   string      `json:"build"`
	Size    int         `json:"size"`
	Created time.Time   `json:"created"`
	Updated time.Time   `json:"updated"`
	Header  *HeaderInfo `json:"header,omitempty"`
	Busy    bool        `json:"busy,omitempty"`
}

// HeaderInfo is the decoded file header.
type HeaderInfo struct {
	RecordCount     uint32 `json:"record_count"`
	FieldCount      uint32 `json:"field_count"`
	RecordSize      uint32 `json:"record_size"`
	StringBlockSize uint32 `json:"string_block_size"`
}

// FieldInfo describes one column.
type FieldInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Visible bool   `json:"visible"`
}

// TableResponse is a decoded file. Each record holds one JSON value per
// field; floats that are NaN or infinite are sent as strings. Positions is
// set when the records were found by a lookup and gives their record numbers.
type TableResponse struct {
	File      FileInfo    `json:"file"`
	Fields    []FieldInfo `json:"fields"`
	Positions []int       `json:"positions,omitempty"`
	Records   [][]any     `json:"records"`
}

// SetFieldRequest carries the new value in its text form.
type SetFieldRequest struct {
	Value string `json:"value"`
}

// SetFieldResponse echoes the stored value.
type SetFieldResponse struct {
	Record int    `json:"record"`
	Field  int    `json:"field"`
	Name   string `json:"name"`
	Value  any    `json:"value"`
}

// BuildsResponse lists the schema builds of a table.
type BuildsResponse struct {
	Table  string   `json:"table"`
	Builds []string `json:"builds"`
}

func newFileInfo(e *storage.Entry, h *dbc.Header) FileInfo {
	info := FileInfo{
		ID:      e.ID.String(),
		Name:    e.Name,
		Build:   e.Build,
		Size:    e.Size,
		Created: e.Created,
		Updated: e.Updated,
	}
	if h != nil {
		info.Header = &HeaderInfo{
			RecordCount:     h.RecordCount,
			FieldCount:      h.FieldCount,
			RecordSize:      h.RecordSize,
			StringBlockSize: h.StringBlockSize,
		}
	}
	return info
}
