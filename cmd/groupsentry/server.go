package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"groupsentry/internal/database"
	"groupsentry/internal/metrics"
	"groupsentry/internal/models"
	"groupsentry/internal/service"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxWebhookBodyBytes = 10 << 20

// ReportStore is the read-only storage surface behind the reporting
// endpoints.
type ReportStore interface {
	GetMessageHistory(ctx context.Context, sessionKey string, filter database.HistoryFilter) ([]models.Message, error)
	GetAlerts(ctx context.Context, clientID int64, limit, offset int) ([]models.Alert, error)
	GetLatestQREvent(ctx context.Context, sessionKey string) (*models.QREvent, error)
}

type Server struct {
	router     *mux.Router
	logger     *logrus.Logger
	dispatcher *service.Dispatcher
	matcher    *service.Matcher
	reports    ReportStore
	registry   *metrics.Registry
	cfg        models.ServerConfig
	server     *http.Server
}

func NewServer(cfg models.ServerConfig, dispatcher *service.Dispatcher, matcher *service.Matcher, reports ReportStore, registry *metrics.Registry, logger *logrus.Logger) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		logger:     logger,
		dispatcher: dispatcher,
		matcher:    matcher,
		reports:    reports,
		registry:   registry,
		cfg:        cfg,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	// Gateway webhook; non-POST requests get a 405 from the router.
	s.router.HandleFunc("/webhook/whatsapp", s.handleWebhook()).Methods(http.MethodPost)

	// External schedulers trigger matcher runs here.
	s.router.HandleFunc("/cron/alerts", s.handleRunMatcher()).Methods(http.MethodPost)

	// Read-only reporting surface for the administrative layer.
	s.router.HandleFunc("/sessions/{session}/messages", s.handleMessageHistory()).Methods(http.MethodGet)
	s.router.HandleFunc("/sessions/{session}/qrcode", s.handleLatestQRCode()).Methods(http.MethodGet)
	s.router.HandleFunc("/clients/{clientId}/alerts", s.handleAlerts()).Methods(http.MethodGet)
}

// Use wraps the router with middleware.
func (s *Server) Use(middleware ...mux.MiddlewareFunc) {
	s.router.Use(middleware...)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSec) * time.Second,
	}

	s.logger.Infof("Starting server on port %d", s.cfg.Port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.respondJSON(w, http.StatusOK, s.registry.Snapshot())
	}
}

func (s *Server) handleWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		if err := s.dispatcher.Dispatch(r.Context(), body); err != nil {
			// Every rejection, storage failures included, is reported to
			// the gateway as a client error with a descriptive message.
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Webhook received successfully."))
	}
}

func (s *Server) handleRunMatcher() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.matcher.Run(r.Context())
		if err != nil {
			s.logger.WithError(err).Error("Matcher run failed")
			http.Error(w, "matcher run failed", http.StatusInternalServerError)
			return
		}
		s.respondJSON(w, http.StatusOK, stats)
	}
}

func (s *Server) handleMessageHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := mux.Vars(r)["session"]
		query := r.URL.Query()

		filter := database.HistoryFilter{
			GroupID: query.Get("group"),
			Since:   query.Get("since"),
			Until:   query.Get("until"),
			Limit:   queryInt(query.Get("limit")),
			Offset:  queryInt(query.Get("offset")),
		}

		messages, err := s.reports.GetMessageHistory(r.Context(), session, filter)
		if err != nil {
			s.logger.WithError(err).Error("Failed to fetch message history")
			http.Error(w, "failed to fetch message history", http.StatusInternalServerError)
			return
		}
		if messages == nil {
			messages = []models.Message{}
		}
		s.respondJSON(w, http.StatusOK, messages)
	}
}

func (s *Server) handleLatestQRCode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := mux.Vars(r)["session"]

		event, err := s.reports.GetLatestQREvent(r.Context(), session)
		if err != nil {
			s.logger.WithError(err).Error("Failed to fetch QR event")
			http.Error(w, "failed to fetch QR event", http.StatusInternalServerError)
			return
		}
		if event == nil {
			http.Error(w, "no QR code recorded for session", http.StatusNotFound)
			return
		}
		s.respondJSON(w, http.StatusOK, event)
	}
}

func (s *Server) handleAlerts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := strconv.ParseInt(mux.Vars(r)["clientId"], 10, 64)
		if err != nil {
			http.Error(w, "invalid client id", http.StatusBadRequest)
			return
		}

		query := r.URL.Query()
		alerts, err := s.reports.GetAlerts(r.Context(), clientID,
			queryInt(query.Get("limit")), queryInt(query.Get("offset")))
		if err != nil {
			s.logger.WithError(err).Error("Failed to fetch alerts")
			http.Error(w, "failed to fetch alerts", http.StatusInternalServerError)
			return
		}
		if alerts == nil {
			alerts = []models.Alert{}
		}
		s.respondJSON(w, http.StatusOK, alerts)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func queryInt(value string) int {
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
