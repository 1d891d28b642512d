package management

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gridswap/swapdash/internal/log"
	"github.com/gridswap/swapdash/pkg/config"
)

// Handlers contains the HTTP handlers for the management API
type Handlers struct {
	controller *Controller
}

// NewHandlers creates a new Handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
	}
}

// sendJSON sends a JSON response with optional status code
func (h *Handlers) sendJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response in JSON format
func (h *Handlers) sendError(w http.ResponseWriter, statusCode int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]interface{}{
		"error":     message,
		"status":    statusCode,
		"timestamp": time.Now().Unix(),
	}

	if err != nil {
		errorResponse["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(errorResponse)
}

// Login handles the login request and sets a session cookie
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Token string `json:"token"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.sendError(w, http.StatusBadRequest, "Invalid JSON payload", err)
		return
	}

	if request.Token == "" {
		h.sendError(w, http.StatusBadRequest, "Token is required", nil)
		return
	}

	if request.Token != h.controller.authToken() {
		h.sendError(w, http.StatusUnauthorized, "Invalid token", nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "sd_session",
		Value:    request.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7, // 7 days
	})

	h.sendJSON(w, map[string]interface{}{
		"success": true,
		"message": "Login successful",
	})
}

// Logout handles the logout request and clears the session cookie
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "sd_session",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	h.sendJSON(w, map[string]interface{}{
		"success": true,
		"message": "Logout successful",
	})
}

// GetAuthStatus checks if the current session is authenticated
func (h *Handlers) GetAuthStatus(w http.ResponseWriter, r *http.Request) {
	authenticated := false
	token := h.controller.authToken()

	if authHeader := r.Header.Get("Authorization"); authHeader == "Bearer "+token {
		authenticated = true
	}

	if !authenticated {
		cookie, err := r.Cookie("sd_session")
		if err == nil && cookie.Value == token {
			authenticated = true
		}
	}

	h.sendJSON(w, map[string]interface{}{
		"authenticated": authenticated,
	})
}

// GetStatus returns daemon health and uptime
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, map[string]interface{}{
		"status":          "ok",
		"uptime_seconds":  int(time.Since(h.controller.started).Seconds()),
		"archive_enabled": h.controller.archive != nil,
	})
}

// GetConfig returns the loaded configuration with the management token
// redacted
func (h *Handlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfgData, err := h.controller.configProvider.LoadConfig()
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to load configuration", err)
		return
	}

	redacted := *cfgData
	controllers := make([]config.ControllerData, len(cfgData.Controllers))
	copy(controllers, cfgData.Controllers)
	for i := range controllers {
		if controllers[i].ManagementAPI != nil {
			mc := *controllers[i].ManagementAPI
			mc.AuthToken = "REDACTED"
			controllers[i].ManagementAPI = &mc
		}
	}
	redacted.Controllers = controllers

	h.sendJSON(w, redacted)
}

// GetRunHistory returns recent archived runs for a project
func (h *Handlers) GetRunHistory(w http.ResponseWriter, r *http.Request) {
	if h.controller.archive == nil {
		h.sendError(w, http.StatusNotImplemented, "No readable archive backend configured", nil)
		return
	}

	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		h.sendError(w, http.StatusBadRequest, "project_id query parameter is required", nil)
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			h.sendError(w, http.StatusBadRequest, "limit must be an integer between 1 and 500", err)
			return
		}
		limit = parsed
	}

	runs, err := h.controller.archive.RecentRuns(r.Context(), projectID, limit)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to query run history", err)
		return
	}

	h.sendJSON(w, map[string]interface{}{
		"project_id": projectID,
		"runs":       runs,
	})
}

// GetLogs returns the buffered HTTP request log entries
func (h *Handlers) GetLogs(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, map[string]interface{}{
		"logs": log.GetHTTPLogBuffer().Entries(),
	})
}

// ChangeAdminToken rotates the management API token
func (h *Handlers) ChangeAdminToken(w http.ResponseWriter, r *http.Request) {
	newToken := generateAuthToken()

	if err := h.controller.configProvider.UpdateManagementToken(newToken); err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to persist new token", err)
		return
	}
	h.controller.setAuthToken(newToken)

	h.controller.logger.Info("management API token rotated")
	h.sendJSON(w, map[string]interface{}{
		"success": true,
		"token":   newToken,
	})
}
