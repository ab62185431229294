// Package httpapi exposes the membership service over a small JSON HTTP API.
// It is a boundary layer: requests are resolved to handles by name here, and
// everything else goes through the handle facade.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/haukened/probecache/internal/probe/common/log"
	"github.com/haukened/probecache/internal/probe/services/membership"
)

const requestTimeout = 5 * time.Second

// Server serves the membership HTTP API.
type Server struct {
	addr    string
	service *membership.Service
	logger  log.Logger

	httpSrv *http.Server
}

// NewServer creates a Server bound to addr, serving svc.
func NewServer(addr string, svc *membership.Service, logger log.Logger) *Server {
	return &Server{
		addr:    addr,
		service: svc,
		logger:  logger,
	}
}

// Routes:
//
//	GET    /v1/instances                          list instance names
//	GET    /v1/instances/{name}/stats             instance stats
//	GET    /v1/instances/{name}/member/{key}      fast-path membership
//	GET    /v1/instances/{name}/member/{key}?sync=true  coordinated membership
//	PUT    /v1/instances/{name}/keys/{key}        add one key
//	POST   /v1/instances/{name}/keys              add a JSON array of keys
//	DELETE /v1/instances/{name}/keys/{key}        delete one key
//	POST   /v1/instances/{name}/reinit            reinit from a JSON array
func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/instances", s.handleList)
	mux.HandleFunc("GET /v1/instances/{name}/stats", s.handleStats)
	mux.HandleFunc("GET /v1/instances/{name}/member/{key}", s.handleMember)
	mux.HandleFunc("PUT /v1/instances/{name}/keys/{key}", s.handleAdd)
	mux.HandleFunc("POST /v1/instances/{name}/keys", s.handleAddList)
	mux.HandleFunc("DELETE /v1/instances/{name}/keys/{key}", s.handleDelete)
	mux.HandleFunc("POST /v1/instances/{name}/reinit", s.handleReinit)
	return mux
}

// Start binds the listener and serves in a background goroutine until Stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.httpSrv = &http.Server{
		Handler:           s.handler(),
		ReadHeaderTimeout: requestTimeout,
	}

	s.logger.Info(map[string]any{"address": ln.Addr().String()}, "HTTP API started")
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(map[string]any{"error": err.Error()}, "HTTP API serve failed")
		}
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
