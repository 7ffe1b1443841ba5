package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/leandromarcosmoreira/ClawController/internal/activity"
	"github.com/leandromarcosmoreira/ClawController/internal/probe"
	"github.com/leandromarcosmoreira/ClawController/internal/restart"
	"github.com/leandromarcosmoreira/ClawController/internal/watchdog"
)

// Monitor is the part of the watchdog served over HTTP.
type Monitor interface {
	Status() watchdog.Status
	RunHealthCheckOnce(ctx context.Context) probe.Result
	ManualRestart(ctx context.Context) restart.Result
}

// Router provides embeddable HTTP handlers for the gateway watchdog.
// Endpoints:
//   GET  {basePath}/monitoring/gateway/status
//   POST {basePath}/monitoring/gateway/health-check
//   POST {basePath}/monitoring/gateway/restart
//   GET  {basePath}/activity        query: limit=N (default 50, max 500)
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	mon      Monitor
	activity activity.Lister
	basePath string
	log      *slog.Logger
}

// NewRouter constructs a Router. lister may be nil, in which case /activity answers 501.
// Example basePath: "/api" results in /api/monitoring/gateway/status, ...
func NewRouter(mon Monitor, lister activity.Lister, basePath string) *Router {
	return &Router{
		mon:      mon,
		activity: lister,
		basePath: sanitizeBase(basePath),
		log:      slog.Default(),
	}
}

// WithLogger sets the logger used for handler errors.
func (r *Router) WithLogger(l *slog.Logger) *Router {
	if l != nil {
		r.log = l
	}
	return r
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	gw := group.Group("/monitoring/gateway")
	gw.GET("/status", r.handleStatus)
	gw.POST("/health-check", r.handleHealthCheck)
	gw.POST("/restart", r.handleRestart)
	group.GET("/activity", r.handleActivity)
	return g
}

// NewServer binds addr and serves this router in the background.
// Bind errors are returned; shut the server down with Shutdown or Close.
// The returned server's Addr holds the bound address.
func NewServer(addr, basePath string, mon Monitor, lister activity.Lister) (*http.Server, error) {
	return NewTLSServer(addr, basePath, mon, lister, nil)
}

// NewTLSServer is NewServer with HTTPS. A nil tlsConfig serves plain HTTP.
func NewTLSServer(addr, basePath string, mon Monitor, lister activity.Lister, tlsConfig *tls.Config) (*http.Server, error) {
	return NewRouter(mon, lister, basePath).Serve(addr, tlsConfig)
}

// Serve binds addr and serves the router in the background, logging with the
// router's logger. A nil tlsConfig serves plain HTTP.
func (r *Router) Serve(addr string, tlsConfig *tls.Config) (*http.Server, error) {
	// WriteTimeout leaves room for a manual restart to finish.
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
		TLSConfig:         tlsConfig,
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	// resolve ":0" style addresses so callers can dial the bound port
	server.Addr = ln.Addr().String()
	go func() {
		var err error
		if tlsConfig != nil {
			err = server.ServeTLS(ln, "", "")
		} else {
			err = server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.log.Error("api server stopped", slog.String("addr", addr), slog.Any("error", err))
		}
	}()
	return server, nil
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type healthCheckResp struct {
	IsHealthy     bool      `json:"is_healthy"`
	StatusMessage string    `json:"status_message"`
	CheckTime     time.Time `json:"check_time"`
}

type restartResp struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	RestartTime time.Time `json:"restart_time"`
}

func (r *Router) handleStatus(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.mon.Status())
}

func (r *Router) handleHealthCheck(c *gin.Context) {
	res := r.mon.RunHealthCheckOnce(c.Request.Context())
	writeJSON(c, http.StatusOK, healthCheckResp{
		IsHealthy:     res.Healthy,
		StatusMessage: res.Message,
		CheckTime:     res.CheckedAt,
	})
}

func (r *Router) handleRestart(c *gin.Context) {
	// the restart outlives a dropped client connection
	res := r.mon.ManualRestart(context.WithoutCancel(c.Request.Context()))
	writeJSON(c, http.StatusOK, restartResp{
		Success:     res.Success,
		Message:     res.Message,
		RestartTime: time.Now().UTC(),
	})
}

func (r *Router) handleActivity(c *gin.Context) {
	if r.activity == nil {
		writeJSON(c, http.StatusNotImplemented, errorResp{Error: activity.ErrNotListable.Error()})
		return
	}
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	entries, err := r.activity.Recent(c.Request.Context(), limit)
	if errors.Is(err, activity.ErrNotListable) {
		writeJSON(c, http.StatusNotImplemented, errorResp{Error: err.Error()})
		return
	}
	if err != nil {
		r.log.Error("list activity", slog.Any("error", err))
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	writeJSON(c, http.StatusOK, entries)
}
