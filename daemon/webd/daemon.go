package webd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	"github.com/jellydator/ttlcache/v3"
	"github.com/olahol/melody"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/reconstruct"
	"github.com/rotblauer/trajd/trajdb"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 32 << 20

type WebDaemon struct {
	Config *params.WebDaemonConfig

	logger   *slog.Logger
	started  time.Time
	memo     *reconstruct.Memo
	store    *trajdb.Store
	sessions *ttlcache.Cache[string, *session]

	melodyInstance *melody.Melody
	// feedReconstructed carries every session reconstruction.
	feedReconstructed event.FeedOf[sessionView]

	server *http.Server
}

// NewWebDaemon opens the result store, if the config names a datadir,
// and starts the session expiry loop.
func NewWebDaemon(config *params.WebDaemonConfig) (*WebDaemon, error) {
	if config == nil {
		config = params.DefaultWebDaemonConfig()
	}
	if config.Pipeline == nil {
		config.Pipeline = params.DefaultPipelineConfig()
	}
	if config.SessionCapacity < 1 {
		config.SessionCapacity = params.DefaultWebDaemonConfig().SessionCapacity
	}
	s := &WebDaemon{
		Config:  config,
		logger:  slog.With("d", "web"),
		started: time.Now(),
	}

	var store reconstruct.Store
	if config.DataDir != "" {
		db, err := trajdb.Open(params.ExpandPath(config.DataDir), false)
		if err != nil {
			return nil, fmt.Errorf("open result store: %w", err)
		}
		s.store = db
		store = db
	}
	memo, err := reconstruct.NewMemo(params.DefaultMemoSize, store)
	if err != nil {
		if s.store != nil {
			_ = s.store.Close()
		}
		return nil, err
	}
	s.memo = memo

	s.sessions = ttlcache.New[string, *session](
		ttlcache.WithTTL[string, *session](config.SessionTTL),
	)
	s.sessions.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *session]) {
		s.logger.Info("Session closed", "session", item.Key(), "reason", reason)
	})
	go s.sessions.Start()

	s.initMelody()
	return s, nil
}

// Run listens on the configured address and serves until Close.
// It returns nil on a clean shutdown.
func (s *WebDaemon) Run() error {
	ln, err := net.Listen(s.Config.Network, s.Config.Address)
	if err != nil {
		return err
	}
	s.server = &http.Server{
		Handler:           s.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting web daemon", "network", s.Config.Network, "address", ln.Addr().String())
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close shuts down the server, closes websocket clients,
// stops session expiry and closes the result store.
func (s *WebDaemon) Close(ctx context.Context) error {
	var errs []error
	if s.server != nil {
		errs = append(errs, s.server.Shutdown(ctx))
	}
	if !s.melodyInstance.IsClosed() {
		errs = append(errs, s.melodyInstance.Close())
	}
	s.sessions.Stop()
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	s.logger.Info("Web daemon closed", "uptime", time.Since(s.started).Round(time.Second))
	return errors.Join(errs...)
}

func (s *WebDaemon) NewRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(false)
	router.Use(s.loggingMiddleware)

	router.Path("/live").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.melodyInstance.HandleRequest(w, r); err != nil {
			s.logger.Warn("Websocket request failed", "error", err)
		}
	})

	apiRoutes := router.NewRoute().Subrouter()

	// All API routes use permissive CORS settings.
	apiRoutes.Use(permissiveCorsMiddleware)

	// /ping is a simple server healthcheck endpoint
	apiRoutes.Path("/ping").HandlerFunc(pingPong)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	apiJSONRoutes.Use(contentTypeMiddlewareFunc("application/json"))

	apiJSONRoutes.Path("/status").HandlerFunc(s.statusReport).Methods(http.MethodGet)
	apiJSONRoutes.Path("/sessions/{id}").HandlerFunc(s.handleGetSession).Methods(http.MethodGet)

	authenticatedAPIRoutes := apiJSONRoutes.NewRoute().Subrouter()
	authenticatedAPIRoutes.Use(s.tokenAuthenticationMiddleware)

	authenticatedAPIRoutes.Path("/reconstruct").HandlerFunc(s.handleReconstruct).Methods(http.MethodPost)
	authenticatedAPIRoutes.Path("/sessions").HandlerFunc(s.handleCreateSession).Methods(http.MethodPost)
	authenticatedAPIRoutes.Path("/sessions/{id}/positions").HandlerFunc(s.handleSessionPositions).Methods(http.MethodPost)

	return router
}
