package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"reelay/internal/api"
	"reelay/internal/config"
	"reelay/internal/logging"
	"reelay/internal/store"
	"reelay/internal/textutil"
)

type apiServer struct {
	bind      string
	logger    *slog.Logger
	daemon    *Daemon
	queueSvc  *api.QueueService
	statsSvc  *api.AnalyticsService
	dataStore *store.Store

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:      bind,
		logger:    logger,
		daemon:    d,
		queueSvc:  api.NewQueueService(d.store),
		statsSvc:  api.NewAnalyticsService(d.store),
		dataStore: d.store,
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/accounts", authMiddleware(token, srv.handleAccounts))
	mux.HandleFunc("/api/accounts/", authMiddleware(token, srv.handleAccount))
	mux.HandleFunc("/api/logs", authMiddleware(token, srv.handleLogs))
	mux.HandleFunc("/api/queue", authMiddleware(token, srv.handleQueue))
	mux.HandleFunc("/api/queue/", authMiddleware(token, srv.handleQueueItem))
	mux.HandleFunc("/api/alerts", authMiddleware(token, srv.handleAlerts))
	mux.HandleFunc("/api/alerts/", authMiddleware(token, srv.handleAlertItem))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		Scheduler:    api.FromSchedulerStatus(status.Scheduler),
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := api.FromSchedulerStatus(s.daemon.scheduler.Status(r.Context()))
	accounts := status.Accounts
	for i := range accounts {
		last, err := s.dataStore.LastPostTime(r.Context(), accounts[i].Handle)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		accounts[i].LastPostAt = last
	}
	s.writeJSON(w, http.StatusOK, api.AccountsResponse{Accounts: accounts})
}

// handleAccount serves /api/accounts/{handle}/items and
// /api/accounts/{handle}/analytics.
func (s *apiServer) handleAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/accounts/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	handle := strings.ToLower(parts[0])
	if _, ok := s.daemon.cfg.AccountByHandle(handle); !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown account %q", handle))
		return
	}

	switch parts[1] {
	case "items":
		items, err := s.statsSvc.Items(r.Context(), handle)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, items)
	case "analytics":
		summary, err := s.statsSvc.Summary(r.Context(), handle)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, summary)
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	account := strings.TrimSpace(query.Get("account"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = store.DefaultActivityLimit
	}

	entries, err := s.statsSvc.Activity(r.Context(), account, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.LogsResponse{Entries: entries})
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := s.queueSvc.List(r.Context(), r.URL.Query().Get("account"))
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.QueueListResponse{Items: items})
	case http.MethodPost:
		var req api.EnqueueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		item, err := s.queueSvc.Enqueue(r.Context(), req)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, api.QueueItemResponse{Item: *item})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleQueueItem serves GET /api/queue/{id} and POST /api/queue/{id}/status.
func (s *apiServer) handleQueueItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/queue/")
	parts := strings.Split(rest, "/")

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid queue item id")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		item, err := s.queueSvc.Describe(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if item == nil {
			s.writeError(w, http.StatusNotFound, "queue item not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.QueueItemResponse{Item: *item})
	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPost:
		var req api.QueueStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		item, err := s.queueSvc.SetStatus(r.Context(), id, req.Status)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if item == nil {
			s.writeError(w, http.StatusNotFound, "queue item not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.QueueItemResponse{Item: *item})
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *apiServer) handleAlerts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		alerts, err := s.dataStore.ListAlerts(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out := make([]api.Alert, 0, len(alerts))
		for _, alert := range alerts {
			out = append(out, api.FromAlert(alert))
		}
		s.writeJSON(w, http.StatusOK, api.AlertsResponse{Alerts: out})
	case http.MethodPost:
		var req api.CreateAlertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		alert, err := s.dataStore.CreateAlert(r.Context(), store.Alert{
			User:      req.User,
			Condition: req.Condition,
			Message:   textutil.NormalizeCaption(req.Message),
			Enabled:   req.Enabled,
		})
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, api.FromAlert(*alert))
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleAlertItem serves POST /api/alerts/{id}/enabled.
func (s *apiServer) handleAlertItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/alerts/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "enabled" || r.Method != http.MethodPost {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid alert id")
		return
	}
	var req api.AlertEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	alert, err := s.dataStore.SetAlertEnabled(r.Context(), id, req.Enabled)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if alert == nil {
		s.writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromAlert(*alert))
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, api.ErrInvalidRequest):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrQueueTransition):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
