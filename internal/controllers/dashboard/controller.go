// Package dashboard implements the browser-facing API of the swap-station
// dashboard. Each browser session gets its own store, scenario manager and
// playback engine; the handlers translate HTTP requests into operations on
// those engines and the WebSocket endpoint streams playback frames back.
package dashboard

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/gridswap/swapdash/internal/log"
	"github.com/gridswap/swapdash/internal/playback"
	"github.com/gridswap/swapdash/internal/scenario"
	"github.com/gridswap/swapdash/internal/simclient"
	"github.com/gridswap/swapdash/internal/store"
	"github.com/gridswap/swapdash/internal/types"
	"github.com/gridswap/swapdash/pkg/config"
)

// Controller represents the dashboard API controller
type Controller struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	dashConfig     config.DashboardData
	Server         http.Server
	simClient      *simclient.Client
	archiveChan    chan<- types.RunRecord
	sessions       *SessionRegistry
	logger         *zap.SugaredLogger
	handlers       *Handlers
}

// NewController creates a new dashboard API controller
func NewController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider,
	dc *config.DashboardData, client *simclient.Client, archiveChan chan<- types.RunRecord,
	logger *zap.SugaredLogger) (*Controller, error) {

	ctrl := &Controller{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		simClient:      client,
		archiveChan:    archiveChan,
		logger:         logger,
	}

	if dc != nil {
		ctrl.dashConfig = *dc
	}

	if ctrl.dashConfig.ListenAddr == "" {
		logger.Info("dashboard listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		ctrl.dashConfig.ListenAddr = "0.0.0.0"
	}
	if ctrl.dashConfig.Port == 0 {
		logger.Info("dashboard port not provided; defaulting to 8080")
		ctrl.dashConfig.Port = 8080
	}

	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %v", err)
	}

	baseInterval := playback.DefaultBaseInterval
	if cfgData.Playback.BaseIntervalMS > 0 {
		baseInterval = time.Duration(cfgData.Playback.BaseIntervalMS) * time.Millisecond
	}

	ctrl.sessions = NewSessionRegistry(
		func(st *store.Store) *scenario.Manager {
			return scenario.NewManager(st, client, archiveChan, logger)
		},
		func() *playback.Engine {
			return playback.NewEngine(baseInterval)
		},
	)
	ctrl.sessions.StartJanitor(ctx, wg)

	ctrl.handlers = NewHandlers(ctrl)

	router := ctrl.setupRouter()
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", ctrl.dashConfig.ListenAddr, ctrl.dashConfig.Port)
	ctrl.Server.Handler = ctrl.corsHandler(router)

	return ctrl, nil
}

// StartController starts the dashboard API server
func (c *Controller) StartController() error {
	log.Info("Starting dashboard controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		c.logger.Infof("Dashboard API server starting on %s", c.Server.Addr)

		var err error
		if c.dashConfig.TLSCertPath != "" && c.dashConfig.TLSKeyPath != "" {
			err = c.Server.ListenAndServeTLS(c.dashConfig.TLSCertPath, c.dashConfig.TLSKeyPath)
		} else {
			err = c.Server.ListenAndServe()
		}

		if err != http.ErrServerClosed {
			log.Errorf("Dashboard API server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the dashboard API server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(c.loggingMiddleware)

	router.HandleFunc("/api/sessions", c.handlers.CreateSession).Methods("POST")

	// Endpoints below operate on a session identified by X-Session-ID.
	api := router.PathPrefix("/api").Subrouter()
	api.Use(c.sessionMiddleware)

	api.HandleFunc("/login", c.handlers.Login).Methods("POST")
	api.HandleFunc("/logout", c.handlers.Logout).Methods("POST")
	api.HandleFunc("/state", c.handlers.GetState).Methods("GET")
	api.HandleFunc("/notifications", c.handlers.TakeNotifications).Methods("GET")

	api.HandleFunc("/stations", c.handlers.GetStations).Methods("GET")
	api.HandleFunc("/stations", c.handlers.CreateStation).Methods("POST")
	api.HandleFunc("/stations/{id}", c.handlers.UpdateStation).Methods("PATCH")
	api.HandleFunc("/stations/{id}", c.handlers.DeleteStation).Methods("DELETE")

	api.HandleFunc("/interventions/pending", c.handlers.GetPendingInterventions).Methods("GET")
	api.HandleFunc("/interventions/pending", c.handlers.AddPendingIntervention).Methods("POST")
	api.HandleFunc("/interventions/pending/{index}", c.handlers.RemovePendingIntervention).Methods("DELETE")
	api.HandleFunc("/interventions/active", c.handlers.GetActiveInterventions).Methods("GET")

	api.HandleFunc("/run", c.handlers.RunSimulation).Methods("POST")
	api.HandleFunc("/run/state", c.handlers.GetRunState).Methods("GET")
	api.HandleFunc("/baseline/run", c.handlers.RunBaseline).Methods("POST")

	api.HandleFunc("/suggestions", c.handlers.GetSuggestions).Methods("GET")
	api.HandleFunc("/suggestions/apply", c.handlers.ApplySuggestion).Methods("POST")

	api.HandleFunc("/picking", c.handlers.GetPicking).Methods("GET")
	api.HandleFunc("/picking/start", c.handlers.StartPicking).Methods("POST")
	api.HandleFunc("/picking/click", c.handlers.MapClicked).Methods("POST")
	api.HandleFunc("/picking/consume", c.handlers.ConsumePicked).Methods("POST")
	api.HandleFunc("/picking/cancel", c.handlers.CancelPicking).Methods("POST")

	api.HandleFunc("/playback", c.handlers.GetPlayback).Methods("GET")
	api.HandleFunc("/playback/play", c.handlers.PlaybackPlay).Methods("POST")
	api.HandleFunc("/playback/pause", c.handlers.PlaybackPause).Methods("POST")
	api.HandleFunc("/playback/seek", c.handlers.PlaybackSeek).Methods("POST")
	api.HandleFunc("/playback/reset", c.handlers.PlaybackReset).Methods("POST")
	api.HandleFunc("/playback/speed", c.handlers.PlaybackCycleSpeed).Methods("POST")

	api.HandleFunc("/view/kpis", c.handlers.GetKPIComparison).Methods("GET")
	api.HandleFunc("/view/costs", c.handlers.GetCostComparison).Methods("GET")
	api.HandleFunc("/view/stations", c.handlers.GetStationComparison).Methods("GET")
	api.HandleFunc("/view/markers", c.handlers.GetStationMarkers).Methods("GET")
	api.HandleFunc("/view/validation", c.handlers.GetBaselineValidation).Methods("GET")

	api.HandleFunc("/ws", c.handlers.SessionWebSocket).Methods("GET")

	return router
}

// corsHandler wraps the router in CORS middleware when origins are
// configured.
func (c *Controller) corsHandler(router *mux.Router) http.Handler {
	origins := c.dashConfig.CORSAllowedOrigins
	if len(origins) == 0 {
		return router
	}
	return ghandlers.CORS(
		ghandlers.AllowedOrigins(origins),
		ghandlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		ghandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Session-ID"}),
		ghandlers.AllowCredentials(),
	)(router)
}

type sessionKeyType struct{}

var sessionKey sessionKeyType

// sessionMiddleware resolves the session named by the X-Session-ID header
// and rejects requests without one.
func (c *Controller) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Session-ID")
		if id == "" {
			id = r.URL.Query().Get("session")
		}
		if id == "" {
			c.handlers.formatter.WriteError(w, http.StatusBadRequest, "missing session ID", nil)
			return
		}
		session, ok := c.sessions.Get(id)
		if !ok {
			c.handlers.formatter.WriteError(w, http.StatusNotFound, "unknown or expired session", nil)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, session)
		// A logged-in session's token rides the request context so every
		// upstream simulation service call carries it.
		if _, token := session.Store.Session(); token != "" {
			ctx = simclient.WithAuthToken(ctx, token)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *Session {
	s, _ := r.Context().Value(sessionKey).(*Session)
	return s
}

// loggingMiddleware records requests into the shared HTTP log buffer.
func (c *Controller) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.LogHTTPRequest(r.Method, r.URL.Path, rec.status, time.Since(start), rec.size, r.RemoteAddr, nil)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// Hijack passes through to the underlying writer so the WebSocket upgrade
// works behind the logging middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}
