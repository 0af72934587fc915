package api

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// shutdownTimeout bounds how long in-flight requests get after cancellation.
const shutdownTimeout = 5 * time.Second

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct{}

// NewServerStarter creates a server starter
func NewServerStarter() ServerStarter {
	return &DefaultServerStarter{}
}

// StartServer listens on addr and shuts the server down gracefully once ctx
// is cancelled.
func (s *DefaultServerStarter) StartServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
