// Package management implements the token-authenticated management API:
// configuration inspection, run-history queries, log access and token
// rotation. It listens on localhost by default and is separate from the
// browser-facing dashboard API.
package management

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/gridswap/swapdash/internal/log"
	"github.com/gridswap/swapdash/internal/storage"
	"github.com/gridswap/swapdash/pkg/config"
)

// Controller represents the management API controller
type Controller struct {
	ctx              context.Context
	wg               *sync.WaitGroup
	configProvider   config.ConfigProvider
	managementConfig config.ManagementAPIData
	Server           http.Server
	archive          storage.ArchiveReader
	logger           *zap.SugaredLogger
	handlers         *Handlers

	tokenMu sync.RWMutex
	started time.Time
}

// NewController creates a new management API controller
func NewController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider,
	mc *config.ManagementAPIData, archive storage.ArchiveReader, logger *zap.SugaredLogger) (*Controller, error) {

	ctrl := &Controller{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		archive:        archive,
		logger:         logger,
		started:        time.Now(),
	}

	if mc != nil {
		ctrl.managementConfig = *mc
	}

	if ctrl.managementConfig.Port == 0 {
		logger.Info("management API port not specified; defaulting to 8081")
		ctrl.managementConfig.Port = 8081
	}
	if ctrl.managementConfig.ListenAddr == "" {
		logger.Info("management API listen-addr not provided; defaulting to 127.0.0.1 (localhost only)")
		ctrl.managementConfig.ListenAddr = "127.0.0.1"
	}

	if ctrl.managementConfig.AuthToken == "" {
		// No token configured: generate one and persist it so it survives
		// restarts.
		newToken := generateAuthToken()
		ctrl.managementConfig.AuthToken = newToken

		if err := configProvider.UpdateManagementToken(newToken); err != nil {
			logger.Errorf("Failed to save auth token: %v", err)
		}

		logger.Info("═══════════════════════════════════════════════════════════════")
		logger.Info("        NEW MANAGEMENT API ACCESS TOKEN GENERATED             ")
		logger.Info("═══════════════════════════════════════════════════════════════")
		logger.Infof("   Token: %s", newToken)
		logger.Info("   *** SAVE THIS TOKEN - IT WILL NOT CHANGE ON RESTART ***")
		logger.Info("═══════════════════════════════════════════════════════════════")
	}

	ctrl.handlers = NewHandlers(ctrl)

	router := ctrl.setupRouter()
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", ctrl.managementConfig.ListenAddr, ctrl.managementConfig.Port)
	ctrl.Server.Handler = router

	return ctrl, nil
}

// StartController starts the management API server
func (c *Controller) StartController() error {
	log.Info("Starting management API controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		c.logger.Infof("Management API server starting on %s", c.Server.Addr)

		var err error
		if c.managementConfig.Cert != "" && c.managementConfig.Key != "" {
			err = c.Server.ListenAndServeTLS(c.managementConfig.Cert, c.managementConfig.Key)
		} else {
			err = c.Server.ListenAndServe()
		}

		if err != http.ErrServerClosed {
			log.Errorf("Management API server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the management API server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// authToken returns the current token under the rotation lock.
func (c *Controller) authToken() string {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.managementConfig.AuthToken
}

// setAuthToken replaces the current token.
func (c *Controller) setAuthToken(token string) {
	c.tokenMu.Lock()
	c.managementConfig.AuthToken = token
	c.tokenMu.Unlock()
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.Use(c.loggingMiddleware)
	router.Use(c.corsMiddleware)

	// Authentication routes (no auth required)
	router.HandleFunc("/login", c.handlers.Login).Methods("POST")
	router.HandleFunc("/logout", c.handlers.Logout).Methods("POST")
	router.HandleFunc("/auth/status", c.handlers.GetAuthStatus).Methods("GET")

	// API routes (with authentication)
	api := router.PathPrefix("/api").Subrouter()
	api.Use(c.authMiddleware)

	api.HandleFunc("/status", c.handlers.GetStatus).Methods("GET")
	api.HandleFunc("/config", c.handlers.GetConfig).Methods("GET")

	api.HandleFunc("/runs", c.handlers.GetRunHistory).Methods("GET")

	api.HandleFunc("/logs", c.handlers.GetLogs).Methods("GET")

	api.HandleFunc("/utils/change-token", c.handlers.ChangeAdminToken).Methods("POST")

	return router
}

// loggingMiddleware logs all requests except for noisy endpoints
func (c *Controller) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		// Don't log requests to /api/logs to avoid cluttering the log viewer
		if r.RequestURI != "/api/logs" {
			c.logger.Infof("%s %s %s %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
		}
	})
}

// corsMiddleware adds CORS headers
func (c *Controller) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates the bearer token or session cookie
func (c *Controller) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := c.authToken()

		authHeader := r.Header.Get("Authorization")
		if authHeader != "" && authHeader == "Bearer "+token {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie("sd_session")
		if err == nil && cookie.Value == token {
			next.ServeHTTP(w, r)
			return
		}

		http.Error(w, "Authentication required", http.StatusUnauthorized)
	})
}
