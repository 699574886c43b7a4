package httpserver

import (
	"context"
	"net/http"
	"time"

	"bizadmin/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	readHeaderTimeout = 5 * time.Second
	// PDF rendering and SMTP delivery run inside the request.
	writeTimeout = 60 * time.Second
	idleTimeout  = 2 * time.Minute
	pingTimeout  = time.Second
)

// Options tune cross-cutting router behaviour.
type Options struct {
	CORSOrigins []string
	// TracingService enables otelgin spans under this service name when non-empty.
	TracingService string
}

// Server serves the business admin API.
type Server struct {
	srv *http.Server
	log *logger.Logger
}

// New wires the router and wraps it in an http.Server listening on addr.
func New(addr string, log *logger.Logger, db *pgxpool.Pool, deps Deps, opts Options) (*Server, error) {
	log = logger.OrNop(log).With("component", "http")
	router, err := buildRouter(log, db, deps, opts)
	if err != nil {
		return nil, err
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
		log: log,
	}, nil
}

// ListenAndServe blocks until the server stops. It returns http.ErrServerClosed after Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Info("listening", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("draining connections")
	return s.srv.Shutdown(ctx)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// readyHandler reports ready once the pool answers a ping, along with its connection counts.
func readyHandler(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "no database configured"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "database unreachable"})
			return
		}
		stat := db.Stat()
		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
			"db": gin.H{
				"total_conns":    stat.TotalConns(),
				"idle_conns":     stat.IdleConns(),
				"acquired_conns": stat.AcquiredConns(),
			},
		})
	}
}
