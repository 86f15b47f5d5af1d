package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	engagementledger "agora/contexts/civic-engagement/engagement-ledger"
	notificationservice "agora/contexts/civic-engagement/notification-service"
	_ "agora/internal/platform/httpserver/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	addr          string
	ledger        engagementledger.Module
	notifications notificationservice.Module
}

func New(
	ledger engagementledger.Module,
	notifications notificationservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:           http.NewServeMux(),
		logger:        logger,
		addr:          addr,
		ledger:        ledger,
		notifications: notifications,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/entities", s.handleCreateEntity)
	s.mux.HandleFunc("GET /api/entities", s.handleListEntities)
	s.mux.HandleFunc("GET /api/entities/{entity_id}", s.handleGetEntity)

	s.mux.HandleFunc("POST /api/entities/{entity_id}/upvote", s.handleUpvote)
	s.mux.HandleFunc("POST /api/entities/{entity_id}/downvote", s.handleDownvote)
	s.mux.HandleFunc("POST /api/entities/{entity_id}/sign", s.handleSign)
	s.mux.HandleFunc("POST /api/entities/{entity_id}/like", s.handleLike)

	s.mux.HandleFunc("POST /api/entities/{entity_id}/engagement", s.handleRecordEngagement)
	s.mux.HandleFunc("DELETE /api/entities/{entity_id}/engagement/{group}", s.handleRetractEngagement)
	s.mux.HandleFunc("GET /api/entities/{entity_id}/engagement", s.handleActorEngagement)
	s.mux.HandleFunc("GET /api/entities/{entity_id}/counts", s.handleCounts)

	s.mux.HandleFunc("POST /api/entities/{entity_id}/comments", s.handleAddComment)
	s.mux.HandleFunc("GET /api/entities/{entity_id}/comments", s.handleListComments)

	s.mux.HandleFunc("GET /api/notifications", s.handleListNotifications)
	s.mux.HandleFunc("POST /api/notifications/{notification_id}/read", s.handleMarkNotificationRead)
}

func (s *Server) decodeJSON(
	w http.ResponseWriter,
	r *http.Request,
	target any,
	writeError func(http.ResponseWriter, int, string, string),
) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
