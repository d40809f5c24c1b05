// Package app provides the main application setup and dependency injection.
package app

import (
	"sportguide-go/pkg/api"
	"sportguide-go/pkg/cache"
	"sportguide-go/pkg/catalog"
	"sportguide-go/pkg/config"
	"sportguide-go/pkg/guide"
	"sportguide-go/pkg/httpclient"
	"sportguide-go/pkg/identity"
	"sportguide-go/pkg/logging"
	"sportguide-go/pkg/resolver"
	"sportguide-go/pkg/server"
	"sportguide-go/pkg/timeutil"
)

// App is the main application container.
type App struct {
	Config *config.Config
	Log    *logging.Logger
	Server *server.Server
	Store  *cache.Store
}

// New creates and initializes the application.
func New() (*App, error) {
	cfg := config.Load()

	log := logging.New(cfg.LogLevel, cfg.LogJSON, nil)
	log.Info("initializing SportGuide", "port", cfg.Port, "log_level", cfg.LogLevel)

	clientID, err := identity.LoadOrCreate(cfg.ClientIDFile)
	if err != nil {
		return nil, err
	}
	log.Info("client identity loaded", "client_id", clientID)

	store, err := cache.New(cfg.CacheDir, log)
	if err != nil {
		return nil, err
	}

	gateway := api.NewGateway(cfg.APIServers, clientID, cfg.APITimeout, log)

	windows := timeutil.New(cfg.Durations, cfg.PreGameWindow)

	cat := catalog.New(gateway, store, windows, catalog.Options{
		SportsTTLHours:   cfg.SportsTTLHours,
		SnapshotTTLHours: cfg.SnapshotTTLHours,
		GraceWindow:      cfg.GraceWindow,
	}, log)

	httpClient := httpclient.New(cfg, log)
	res := resolver.New(httpClient, cfg.StreamTimeout, log)

	service := guide.NewService(cat, res, windows, cfg.ShowAllMatches, log)

	srv := server.New(cfg, log)

	handlers := guide.NewHandlers(service, store, cfg.CleanupMaxAge, log)
	handlers.RegisterRoutes(srv.Router())

	return &App{
		Config: cfg,
		Log:    log,
		Server: srv,
		Store:  store,
	}, nil
}

// Run starts the application.
func (a *App) Run() error {
	a.Log.Info("starting SportGuide server", "port", a.Config.Port)
	return a.Server.Start()
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() {
	a.Log.Info("shutting down application")
	a.Store.Cleanup(a.Config.CleanupMaxAge)
}
