// Package server is the websocket front door: it upgrades client
// connections, authenticates their identity, and feeds inbound messages
// to the match coordinator through a bounded worker pool.
package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/tencard/match-backend/pkg/comms"
	"github.com/tencard/match-backend/pkg/match"
	"github.com/tencard/match-backend/pkg/protocol"
	"go.uber.org/zap"
)

type request struct {
	identity string
	data     []byte
}

// Server stores all connection dependencies for the websocket server.
type Server struct {
	log            *zap.Logger
	coordinator    *match.Coordinator
	socketUpgrader websocket.Upgrader
	requests       chan request
}

// NewServer constructs a Server and starts maxWorkers goroutines handling
// inbound socket requests.
func NewServer(
	log *zap.Logger,
	coordinator *match.Coordinator,
	checkOriginFunc func(r *http.Request) bool,
	maxWorkers int,
) *Server {
	s := &Server{
		log:            log,
		coordinator:    coordinator,
		socketUpgrader: websocket.Upgrader{CheckOrigin: checkOriginFunc},
		requests:       make(chan request, maxWorkers),
	}
	for i := 0; i < maxWorkers; i++ {
		go s.worker()
	}
	return s
}

// Handler returns the HTTP routes: the /match websocket endpoint and a
// health probe.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/match", s.matchHandler)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	return router
}

// Start serves until the listener fails.
func (s *Server) Start(port string) {
	s.log.Info("Started server on port " + port)
	if err := http.ListenAndServe(":"+port, s.Handler()); err != nil {
		s.log.Fatal("Server failed during ListenAndServe", zap.Error(err))
	}
}

// isValidIdentity accepts the UUID device identities the clients mint.
func isValidIdentity(identity string) bool {
	_, err := uuid.Parse(identity)
	return err == nil
}

// matchHandler upgrades an HTTP request to a socket connection and reads
// messages from it until the client goes away.
func (s *Server) matchHandler(w http.ResponseWriter, r *http.Request) {
	identity := r.URL.Query().Get("identity")
	if !isValidIdentity(identity) {
		http.Error(w, "invalid or missing identity", http.StatusBadRequest)
		return
	}

	socket, err := s.socketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("Unable to upgrade connection", zap.Error(err))
		return
	}
	conn := comms.NewSocketConn(socket)
	s.coordinator.HandleOpen(r.Context(), identity, conn)

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.coordinator.HandleError(conn, err)
			} else {
				s.coordinator.HandleClose(conn)
			}
			return
		}
		s.requests <- request{identity: identity, data: data}
	}
}

// worker drains the request channel, parsing and dispatching messages.
// Malformed messages are dropped here so they never reach a room.
func (s *Server) worker() {
	for req := range s.requests {
		msg, err := protocol.ParseInbound(req.data)
		if err != nil {
			s.log.Warn("Dropping inbound message",
				zap.String("identity", req.identity),
				zap.Error(err))
			continue
		}
		s.coordinator.Dispatch(context.Background(), req.identity, msg)
	}
}
