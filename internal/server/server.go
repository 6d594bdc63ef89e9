package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/kartlag/internal/api"
	"github.com/joeblew999/kartlag/internal/capability"
	"github.com/joeblew999/kartlag/internal/catalog"
	"github.com/joeblew999/kartlag/internal/db"
	"github.com/joeblew999/kartlag/internal/logger"
	"github.com/joeblew999/kartlag/internal/messages"
	"github.com/joeblew999/kartlag/internal/session"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string // Empty keeps the catalog database in memory
	Catalog string // Path to a YAML catalog file
	Lang    string // Language of user-facing messages
	Base    string // Base layer of new map sessions
}

// Server is the kartlag HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sql.DB
	services *api.Services
	datasets int
}

// New creates a new kartlag server.
func New(cfg Config) *Server {
	if cfg.Lang == "" {
		cfg.Lang = messages.DefaultLang
	}
	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("kartlag API", "1.0.0")
	humaConfig.Info.Description = "Map overlay sessions: track WMS datasets, toggle their layers without duplicates, and resolve download options."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	s := &Server{
		config:  cfg,
		mux:     mux,
		humaAPI: humaAPI,
	}

	// Initialize DuckDB connection and the catalog kept in it
	var store *catalog.Store
	conn, err := db.Get(db.Config{
		DataDir: cfg.DataDir,
		DBName:  "kartlag",
	})
	if err != nil {
		logger.Warn("catalog database unavailable: %v", err)
	} else {
		s.db = conn
		store = s.openCatalog(conn)
	}

	sessionCfg := session.Config{
		Printer:    messages.For(cfg.Lang),
		NewFetcher: func() capability.Fetcher { return capability.NewClient(nil) },
		Base:       cfg.Base,
	}
	if store != nil {
		sessionCfg.Catalog = store
		sessionCfg.Describer = store
	}
	s.services = &api.Services{
		Sessions: session.NewStore(sessionCfg),
		Catalog:  store,
	}

	s.routes()
	return s
}

func (s *Server) openCatalog(conn *sql.DB) *catalog.Store {
	ctx := context.Background()
	store, err := catalog.NewStore(ctx, conn)
	if err != nil {
		logger.Warn("catalog unavailable: %v", err)
		return nil
	}
	if s.config.Catalog == "" {
		return store
	}

	entries, err := catalog.LoadFile(s.config.Catalog)
	if err != nil {
		logger.Error("loading catalog %s: %v", s.config.Catalog, err)
		return store
	}
	n, err := store.Load(ctx, entries)
	if err != nil {
		logger.Error("storing catalog: %v", err)
		return store
	}
	s.datasets = n
	logger.Info("loaded %d catalog datasets from %s", n, s.config.Catalog)
	return store
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the OpenAPI spec for the API.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Close ends every session and closes the database.
func (s *Server) Close() error {
	s.services.Sessions.Close()
	return db.Close()
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(s.services))
	api.NewInfoHandler(s.config.DataDir, s.db != nil, s.config.Lang, s.datasets).RegisterRoutes(s.humaAPI)

	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "kartlag",
		"status":  "running",
		"docs":    "/docs",
	})
}
