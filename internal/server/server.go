// Package server hosts the development server: it serves the published
// output directory and pushes reload notifications to connected browsers
// after a rebuild.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// ReloadPath is the websocket endpoint browsers subscribe to for rebuild
// notifications.
const ReloadPath = "/__press/reload"

const shutdownGrace = 5 * time.Second

// Config controls the dev server binding and behaviour.
type Config struct {
	Host string
	Port int
	// Dir is the published output directory to serve.
	Dir string
	// LiveReload injects the reload client into served HTML pages.
	LiveReload bool
}

// Dependencies carries optional collaborators.
type Dependencies struct {
	Logger interfaces.LoggerProvider
}

// Server serves a built site for local preview.
type Server struct {
	cfg    Config
	logger interfaces.Logger
	hub    *reloadHub
}

// New prepares a dev server; call Start to listen.
func New(cfg Config, deps Dependencies) (*Server, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("server: output directory is required")
	}
	logger := logging.ServerLogger(deps.Logger)
	return &Server{
		cfg:    cfg,
		logger: logger,
		hub:    newReloadHub(logger),
	}, nil
}

// Addr returns the host:port the server binds to.
func (s *Server) Addr() string {
	host := strings.TrimSpace(s.cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, strconv.Itoa(s.cfg.Port))
}

// Handler builds the HTTP handler serving the output directory plus the
// reload endpoint. Exposed for tests and embedding hosts.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(ReloadPath, s.hub.serve)
	mux.HandleFunc("/", s.servePage)
	return mux
}

// Start listens until ctx is cancelled, then drains connections.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev server listening", "addr", httpServer.Addr, "dir", s.cfg.Dir)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	s.hub.closeAll()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return <-errCh
}

// NotifyReload tells every connected browser to refresh. Called by the watch
// loop after a successful rebuild.
func (s *Server) NotifyReload() {
	s.hub.broadcast(reloadMessage)
}

// servePage resolves the request against the output directory, injecting the
// livereload client into HTML responses.
func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target, err := s.resolve(r.URL.Path)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if !strings.HasSuffix(target, ".html") {
		http.ServeFile(w, r, target)
		return
	}

	data, err := os.ReadFile(target)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if s.cfg.LiveReload {
		data = injectReloadScript(data)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("write response", "error", err)
	}
}

// resolve maps a URL path to a file under the output directory, honouring
// pretty URLs (a trailing slash serves the directory index).
func (s *Server) resolve(urlPath string) (string, error) {
	cleaned := path.Clean("/" + urlPath)
	target := filepath.Join(s.cfg.Dir, filepath.FromSlash(cleaned))

	root, err := filepath.Abs(s.cfg.Dir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	if abs != root && !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return "", fmt.Errorf("server: path escapes output dir")
	}

	info, err := os.Stat(abs)
	if err == nil && info.IsDir() {
		abs = filepath.Join(abs, "index.html")
		info, err = os.Stat(abs)
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("server: %s is a directory", abs)
	}
	return abs, nil
}
