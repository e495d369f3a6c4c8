// Package server serves the GraphQL API over HTTP with gin.
//
// Routes:
//
//	POST /graphql   JSON {query, operationName, variables} or an
//	                application/graphql body holding the query
//	GET  /graphql   ?query=...&operationName=...&variables=<json>
//	GET  /healthz   liveness
//	GET  /readyz    database reachability
//	GET  /metrics   Prometheus exposition
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	graphqlgo "github.com/graph-gophers/graphql-go"
	"golang.org/x/sync/errgroup"

	"github.com/populare/dbproxy/internal/graphql"
)

// Executor runs GraphQL requests.
type Executor interface {
	Exec(ctx context.Context, req graphql.Request) *graphqlgo.Response
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds listener settings.
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

const defaultShutdownTimeout = 15 * time.Second

// Server is the HTTP front end of the proxy.
type Server struct {
	cfg     Config
	exec    Executor
	pinger  Pinger
	log     *slog.Logger
	metrics *metrics
	router  *gin.Engine
}

// New builds the router. Call Run or Serve to accept connections.
func New(cfg Config, exec Executor, pinger Pinger, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	s := &Server{
		cfg:     cfg,
		exec:    exec,
		pinger:  pinger,
		log:     log,
		metrics: newMetrics(),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(accessLog(s.log))
	router.Use(s.metrics.middleware())
	router.Use(allowAllCORS())

	router.POST("/graphql", s.handleGraphQLPost)
	router.GET("/graphql", s.handleGraphQLGet)
	router.GET("/healthz", s.handleHealth)
	router.GET("/readyz", s.handleReady)
	router.GET("/metrics", gin.WrapH(s.metrics.handler()))
	return router
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully within the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("http server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Debug("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.log.Info("http server stopped")
		return nil
	})
	return g.Wait()
}
