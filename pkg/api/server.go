package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taranpreet09/Event-Management-System/pkg/auth"
	"github.com/taranpreet09/Event-Management-System/pkg/log"
	"github.com/taranpreet09/Event-Management-System/pkg/notify"
	"github.com/taranpreet09/Event-Management-System/pkg/realtime"
	"github.com/taranpreet09/Event-Management-System/pkg/version"
)

// Server is the HTTP surface of the serve process: the WebSocket upgrade
// endpoint, the broadcast producer endpoint and health. The full events and
// users REST API is served by the request tier and is not part of this
// process.
type Server struct {
	gateway  *realtime.Gateway
	producer *notify.Producer
	verifier auth.Verifier
	logger   *log.Logger
}

func NewServer(gateway *realtime.Gateway, producer *notify.Producer, verifier auth.Verifier) *Server {
	return &Server{
		gateway:  gateway,
		producer: producer,
		verifier: verifier,
		logger:   log.ForService("api"),
	}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", s.gateway.HandleWS)
	mux.HandleFunc("POST /api/broadcast", s.HandleCreateBroadcast)
	mux.HandleFunc("GET /health", s.HandleHealth)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:   error,
		Message: message,
	})
}

// bearerIdentity verifies the Authorization header.
func (s *Server) bearerIdentity(r *http.Request) (*auth.Identity, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}
	ident, err := s.verifier.Verify(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, false
	}
	return ident, true
}

// HandleCreateBroadcast enqueues a BROADCAST_MESSAGE job after validating
// the caller. Organizers only.
func (s *Server) HandleCreateBroadcast(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.bearerIdentity(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "unauthorized", "No valid token provided")
		return
	}
	if ident.Role != auth.RoleOrganizer {
		s.writeError(w, http.StatusForbidden, "forbidden", "Access denied: Organizers only")
		return
	}

	var req BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "Title and text are required")
		return
	}

	body := notify.BroadcastBody{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Text:        req.Text,
		OrganizerID: ident.ID,
	}
	if err := s.producer.EnqueueBroadcast(r.Context(), body); err != nil {
		s.logger.Errorf("enqueueing broadcast: %v", err)
		s.writeError(w, http.StatusInternalServerError, "internal", "Failed to enqueue broadcast")
		return
	}

	s.writeJSON(w, http.StatusAccepted, BroadcastResponse{
		Msg: "Broadcast message enqueued successfully",
		ID:  body.ID,
	})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	})
}

// CorsMiddleware answers preflight requests and sets permissive CORS
// headers for the app frontend.
func CorsMiddleware(next http.Handler) http.Handler {
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
