// Package server exposes the financial advisor over WebSocket. Each
// connection gets a session holding the conversation history; "query"
// messages run the advisor and return its structured answer.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/benchwise/finsight/advisor"
	"github.com/benchwise/finsight/core"
	"github.com/benchwise/finsight/logger"
)

// maxHistoryMessages bounds the per-session transcript kept in memory.
const maxHistoryMessages = 20

// Config configures the server.
type Config struct {
	// Advisor answers queries.
	Advisor *advisor.Advisor

	// AuthFunc validates requests and returns a user ID.
	// If nil, a default user ID is used (not recommended for production).
	AuthFunc func(r *http.Request) (userID string, err error)

	// Logger is the server's logger. Defaults to the standard logger
	// when unset.
	Logger *zerolog.Logger
}

// Server is the WebSocket chat server.
type Server struct {
	config   Config
	advisor  *advisor.Advisor
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

type session struct {
	ID      string
	UserID  string
	History []core.Message
}

// New creates a server with the given configuration.
func New(cfg Config) *Server {
	log := logger.New()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	return &Server{
		config:  cfg,
		advisor: cfg.Advisor,
		log:     log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in development
			},
		},
	}
}

// Handler returns an HTTP handler for WebSocket connections.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleWebSocket)
}

// Routes returns the full HTTP mux, including the health endpoint.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// Run starts the server on the given address.
func (s *Server) Run(addr string) error {
	s.log.Info().Str("addr", addr).Msg("starting advisor server")
	return http.ListenAndServe(addr, s.Routes())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := "default-user"
	if s.config.AuthFunc != nil {
		var err error
		userID, err = s.config.AuthFunc(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sess := &session{
		ID:     uuid.NewString(),
		UserID: userID,
	}
	ctx := logger.WithContext(r.Context(), s.log)

	s.log.Info().Str("session_id", sess.ID).Str("user_id", userID).Msg("websocket connected")
	s.send(conn, ServerMessage{Type: "session_started", SessionID: sess.ID})

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.log.Error().Err(err).Str("session_id", sess.ID).Msg("websocket read failed")
			}
			break
		}

		switch msg.Type {
		case "query":
			s.handleQuery(ctx, conn, sess, msg.Content)

		case "reset":
			sess.History = nil
			s.send(conn, ServerMessage{Type: "session_reset", SessionID: sess.ID})

		default:
			s.sendError(conn, fmt.Sprintf("Unknown message type: %s", msg.Type))
		}
	}
}

func (s *Server) handleQuery(ctx context.Context, conn *websocket.Conn, sess *session, content string) {
	if content == "" {
		s.sendError(conn, "Empty query")
		return
	}

	resp, err := s.advisor.Ask(ctx, sess.UserID, content, sess.History)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sess.ID).Msg("advisor query failed")
		s.sendError(conn, fmt.Sprintf("Query failed: %v", err))
		return
	}

	sess.History = append(sess.History,
		core.UserMessage(content),
		core.AssistantMessage(resp.Answer.Summary),
	)
	if len(sess.History) > maxHistoryMessages {
		sess.History = sess.History[len(sess.History)-maxHistoryMessages:]
	}

	s.send(conn, ServerMessage{Type: "answer", SessionID: sess.ID, Response: resp})
}

func (s *Server) send(conn *websocket.Conn, msg ServerMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		s.log.Error().Err(err).Msg("failed to send message")
	}
}

func (s *Server) sendError(conn *websocket.Conn, content string) {
	s.send(conn, ServerMessage{Type: "error", Content: content})
}
