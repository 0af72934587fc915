// Package di provides dependency injection container
package di

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.uber.org/dig"

	"github.com/ssargent/dbcforge/pkg/api" //nolint:depguard
	"github.com/ssargent/dbcforge/pkg/config"
	"github.com/ssargent/dbcforge/pkg/schema"
	"github.com/ssargent/dbcforge/pkg/storage"
	"github.com/ssargent/dbcforge/pkg/worker"
)

// ErrNotBuilt is returned by Invoke before Build.
var ErrNotBuilt = errors.New("container not built")

// Container holds all the dependencies for the application
type Container struct {
	serverStarter api.ServerStarter
	dig           *dig.Container
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		serverStarter: api.NewServerStarter(),
	}
}

// GetServerStarter returns the server starter
func (c *Container) GetServerStarter() api.ServerStarter {
	return c.serverStarter
}

// SetServerStarter allows overriding the server starter (for testing)
func (c *Container) SetServerStarter(starter api.ServerStarter) {
	c.serverStarter = starter
}

// Build registers every service constructor for cfg. Services are created
// lazily by Invoke.
func (c *Container) Build(cfg *config.Config, logger *slog.Logger) error {
	d := dig.New()
	constructors := []interface{}{
		func() *config.Config { return cfg },
		func() *slog.Logger { return logger },
		func() api.ServerStarter { return c.serverStarter },
		catalog,
		fileStorage,
		worker.NewPool,
		metrics,
		server,
	}
	for _, constructor := range constructors {
		if err := d.Provide(constructor); err != nil {
			return err
		}
	}
	c.dig = d
	return nil
}

// Invoke calls fn with its parameters resolved from the container.
func (c *Container) Invoke(fn interface{}) error {
	if c.dig == nil {
		return ErrNotBuilt
	}
	return c.dig.Invoke(fn)
}

func catalog(cfg *config.Config) (*schema.Catalog, error) {
	return schema.LoadCatalog(cfg.SchemaFile)
}

func fileStorage(cfg *config.Config) (*storage.DefaultStorage, error) {
	dir := filepath.Join(cfg.DataDir, "files")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return storage.NewDefaultStorage(dir)
}

func metrics() *api.Metrics {
	return api.NewMetrics(nil)
}

func server(
	store *storage.DefaultStorage,
	catalog *schema.Catalog,
	pool *worker.Pool,
	metrics *api.Metrics,
	cfg *config.Config,
	logger *slog.Logger,
) *api.Server {
	sc := api.ServerConfig{
		Port:         cfg.Port,
		Bind:         cfg.Bind,
		DefaultBuild: cfg.DefaultBuild,
	}
	if cfg.APIKeyRequired() {
		sc.APIKey = cfg.Security.APIKey
	}
	return api.NewServer(store, catalog, pool, sc, metrics, logger)
}
