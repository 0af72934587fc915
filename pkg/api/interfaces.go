// Package api provides interfaces for dependency injection
package api

import (
	"context"
	"net/http"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/dbcforge/pkg/dbc"
	"github.com/ssargent/dbcforge/pkg/storage"
)

// FileStore persists uploaded DBC images. *storage.DefaultStorage
// satisfies it.
type FileStore interface {
	Create(name, build string, data []byte) (*storage.Entry, error)
	Read(id ksuid.KSUID) (*storage.Entry, []byte, error)
	Update(id ksuid.KSUID, data []byte) (*storage.Entry, error)
	Delete(id ksuid.KSUID) error
	List() ([]storage.Entry, error)
}

// SchemaCatalog resolves table layouts. *schema.Catalog satisfies it.
type SchemaCatalog interface {
	dbc.SchemaLoader

	// Builds lists the builds known for a table
	Builds(table string) []string
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves handler on addr until ctx is cancelled
	StartServer(ctx context.Context, addr string, handler http.Handler) error
}
