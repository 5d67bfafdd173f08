// Package web provides the statute viewer web server.
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"

	"github.com/lawtext/uscview/core/refdata"
	"github.com/lawtext/uscview/internal/index"
	"github.com/lawtext/uscview/internal/loader"
	"github.com/lawtext/uscview/internal/logging"
	"github.com/lawtext/uscview/internal/view"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Config holds server configuration.
type Config struct {
	Port      int
	DataDir   string
	IndexPath string
	TLS       TLSConfig
}

// TLSConfig holds TLS/HTTPS configuration.
type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

// Server serves the statute viewer UI and JSON API.
type Server struct {
	cfg       Config
	store     *loader.Store
	views     *view.Manager
	ix        *index.Index
	reports   *refdata.ReportTable
	hub       *Hub
	templates *template.Template
}

// New builds a server over the given dataset directory. The search
// index is optional; search endpoints return 503 without it.
func New(cfg Config) (*Server, error) {
	if _, err := os.Stat(cfg.DataDir); errors.Is(err, os.ErrNotExist) {
		logging.Warn("data directory does not exist", "path", cfg.DataDir)
	}

	tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	store := loader.NewStore(cfg.DataDir)

	s := &Server{
		cfg:       cfg,
		store:     store,
		views:     view.NewManager(store, view.DefaultConfig()),
		reports:   refdata.CopyrightActReports(),
		hub:       NewHub(),
		templates: tmpl,
	}

	if cfg.IndexPath != "" {
		ix, err := index.Open(cfg.IndexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open search index: %w", err)
		}
		s.ix = ix
	}

	return s, nil
}

// Start runs the server until the listener fails.
func (s *Server) Start() error {
	if s.cfg.TLS.Enabled {
		if s.cfg.TLS.CertFile == "" || s.cfg.TLS.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert or key file not specified")
		}
		if _, err := os.Stat(s.cfg.TLS.CertFile); err != nil {
			return fmt.Errorf("TLS cert file not found: %w", err)
		}
		if _, err := os.Stat(s.cfg.TLS.KeyFile); err != nil {
			return fmt.Errorf("TLS key file not found: %w", err)
		}
	}

	go s.hub.Run()

	// Announce the loaded release point to event subscribers.
	if toc, err := s.store.Toc(); err == nil {
		s.hub.Broadcast(EventMessage{
			Type:         "release",
			ReleasePoint: toc.ReleasePoint,
			Updated:      toc.Updated,
		})
	} else {
		logging.Warn("table of contents unavailable at startup", "error", err)
	}

	mux := s.setupRoutes()
	handler := logging.CombinedMiddleware(securityHeaders(mux))

	protocol := "http"
	if s.cfg.TLS.Enabled {
		protocol = "https"
		logging.Info("TLS enabled", "cert_file", s.cfg.TLS.CertFile)
	}
	logging.ServerStartup("viewer", protocol, s.cfg.Port,
		"data_dir", s.cfg.DataDir,
		"index", s.cfg.IndexPath)

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	if s.cfg.TLS.Enabled {
		return http.ListenAndServeTLS(addr, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile, handler)
	}
	return http.ListenAndServe(addr, handler)
}

// Close releases the search index, if one is open.
func (s *Server) Close() error {
	if s.ix != nil {
		return s.ix.Close()
	}
	return nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// HTML pages. "/" also routes title and section paths like
	// /t17 and /t17/s106 by parsing the address.
	mux.HandleFunc("/", s.handlePage)

	// JSON API
	mux.HandleFunc("/api/toc", s.handleAPIToc)
	mux.HandleFunc("/api/title/", s.handleAPITitle)
	mux.HandleFunc("/api/resolve", s.handleAPIResolve)
	mux.HandleFunc("/api/search", s.handleAPISearch)
	mux.HandleFunc("/api/status", s.handleAPIStatus)

	// Dataset events
	mux.HandleFunc("/api/events", s.handleEvents)

	return mux
}

// securityHeaders sets the response headers every page and API
// response carries.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// cachedTemplateFuncs is initialized once at package load time.
var cachedTemplateFuncs = template.FuncMap{
	"safeHTML": func(s string) template.HTML {
		// Section bodies come from the dataset already as HTML.
		return template.HTML(s)
	},
	"add": func(a, b int) int {
		return a + b
	},
	"truncate": func(s string, n int) string {
		if len(s) <= n {
			return s
		}
		return s[:n] + "..."
	},
}

// templateFuncs returns the cached template helper functions.
func templateFuncs() template.FuncMap {
	return cachedTemplateFuncs
}
