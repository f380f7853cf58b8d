// Package server wires the AbaPlan HTTP server: REST API, Datastar streams,
// touchpad websocket and static pages.
package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/aba-plan/internal/api"
	"github.com/joeblew999/aba-plan/internal/api/editor"
	"github.com/joeblew999/aba-plan/internal/db"
	"github.com/joeblew999/aba-plan/internal/geocode"
	"github.com/joeblew999/aba-plan/internal/humastar"
	"github.com/joeblew999/aba-plan/internal/i18n"
	"github.com/joeblew999/aba-plan/internal/log"
	"github.com/joeblew999/aba-plan/internal/service"
	"github.com/joeblew999/aba-plan/internal/templates"
	"github.com/joeblew999/aba-plan/internal/touchpad"
)

// Map store backends.
const (
	StoreFile   = "file"
	StoreDuckDB = "duckdb"
)

// Config holds the server configuration.
type Config struct {
	Host        string
	Port        string
	DataDir     string
	WebDir      string // Path to web/ directory for static files and template overrides
	Store       string // "file" or "duckdb"
	Seed        bool   // fill an empty store with sample maps
	Lang        string // geocoder result language
	GeocoderURL string
	Logger      *log.Logger
}

// Server is the AbaPlan HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sql.DB
	bus      *service.EventBus
	catalog  *i18n.Catalog
	services *api.Services
	renderer *templates.Renderer
	log      *log.Logger
}

// New creates a new server.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}
	if cfg.Store == "" {
		cfg.Store = StoreFile
	}
	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("AbaPlan API", api.Version)
	humaConfig.Info.Description = "Saved city maps, touchpad kiosk calibration, voice commands and KML export."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, humastar.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	s := &Server{
		config:  cfg,
		mux:     mux,
		humaAPI: humaAPI,
		bus:     service.NewEventBus(),
		log:     cfg.Logger,
	}

	store, err := s.openStore()
	if err != nil {
		return nil, err
	}
	maps, err := service.NewMapService(store, s.bus)
	if err != nil {
		return nil, err
	}
	if cfg.Seed {
		n, err := maps.Seed()
		if err != nil {
			return nil, err
		}
		if n > 0 {
			s.log.Info("seeded sample maps", "count", n)
		}
	}

	if s.catalog, err = i18n.Load(); err != nil {
		return nil, err
	}

	// Fragments from the web dir override the embedded ones
	if cfg.WebDir != "" {
		s.renderer, err = templates.NewDir(filepath.Join(cfg.WebDir, "templates", "fragments"))
	} else {
		s.renderer, err = templates.New()
	}
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	geocoder := geocode.NewNominatim(geocode.Config{
		BaseURL:   cfg.GeocoderURL,
		UserAgent: "aba-plan/" + api.Version,
		Language:  cfg.Lang,
		CacheSize: 512,
		CacheTTL:  time.Hour,
	})

	s.services = &api.Services{
		Maps: maps,
		Touchpad: service.NewTouchpadService(service.TouchpadConfig{
			Maps:     maps,
			Geocoder: geocoder,
			Catalog:  s.catalog,
			Bus:      s.bus,
			Logger:   s.log,
		}),
		Renderer: s.renderer,
		Logger:   s.log,
	}

	s.routes()
	return s, nil
}

func (s *Server) openStore() (service.MapStore, error) {
	switch s.config.Store {
	case StoreFile:
		return service.NewFileStore(s.config.DataDir), nil
	case StoreDuckDB:
		conn, err := db.Get(db.Config{
			DataDir:    s.config.DataDir,
			DBName:     "abaplan",
			Extensions: []string{"spatial"},
		})
		if err != nil {
			return nil, fmt.Errorf("opening duckdb: %w", err)
		}
		s.db = conn
		return service.NewDuckStore(conn)
	}
	return nil, fmt.Errorf("unknown store %q", s.config.Store)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the API description.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Services exposes the services, for offline commands.
func (s *Server) Services() *api.Services {
	return s.services
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	return db.Close()
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services)
	api.NewInfoHandler(s.config.DataDir, s.config.Store, s.db != nil, s.catalog.Languages()).RegisterRoutes(s.humaAPI)
	api.NewDBHandler(s.db).RegisterRoutes(s.humaAPI)

	// Register Editor SSE routes using Huma + Datastar SDK
	mapsHandler := editor.NewMapsHandler(s.services.Maps, s.catalog, s.renderer)
	mapsHandler.RegisterRoutes(s.humaAPI)
	editor.NewEventHandler(mapsHandler, s.bus).RegisterRoutes(s.humaAPI)
	editor.NewTouchpadHandler(s.bus, s.renderer).RegisterRoutes(s.humaAPI)

	humastar.AutoLinks(s.humaAPI)

	s.mux.Handle("/ws/touchpad/{id}", touchpad.NewServer(s.services.Touchpad, s.bus, s.log))

	// Static files and pages
	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
		s.mux.HandleFunc("/editor", s.page("editor.html"))
		s.mux.HandleFunc("/touchpad", s.page("touchpad.html"))
	}
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	for _, link := range humastar.RootLinks() {
		w.Header().Add("Link", link)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "aba-plan",
		"status":  "running",
	})
}

func (s *Server) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(s.config.WebDir, "templates", name))
	}
}
