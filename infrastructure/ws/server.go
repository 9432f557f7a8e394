// Package ws is the WebSocket transport of the real-time core: handshake
// authentication, connection admission, and the per-connection pumps.
package ws

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rakshit0960/PeerTalk/auth"
	"github.com/rakshit0960/PeerTalk/contract"
	"github.com/rakshit0960/PeerTalk/domain"
	"github.com/rakshit0960/PeerTalk/errors"
	"github.com/rakshit0960/PeerTalk/observability"
	"github.com/rakshit0960/PeerTalk/runtime"
)

// TokenVerifier is the credential-verification collaborator boundary:
// verify(token) -> identity | error.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type Config struct {
	BufferSize int
	WriteWait  time.Duration
	PongWait   time.Duration
}

// Server upgrades and admits client connections. Authentication happens
// once, at handshake time; a refused attempt never reaches the registry.
type Server struct {
	log         *slog.Logger
	verifier    TokenVerifier
	registry    contract.IRegistry
	router      *runtime.Router
	coordinator *runtime.Coordinator
	metrics     *observability.Metrics
	upgrader    websocket.Upgrader
	cfg         Config
}

func NewServer(log *slog.Logger, verifier TokenVerifier, registry contract.IRegistry,
	router *runtime.Router, coordinator *runtime.Coordinator,
	metrics *observability.Metrics, cfg Config) *Server {
	return &Server{
		log:         log,
		verifier:    verifier,
		registry:    registry,
		router:      router,
		coordinator: coordinator,
		metrics:     metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The browser client connects cross-origin in development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		cfg: cfg,
	}
}

// ServeHTTP authenticates the handshake and, on success, admits the
// connection with its identity attached for the rest of its life. It
// blocks in the read pump until the client goes away.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, err := s.verifier.Verify(bearerToken(r))
	if err != nil {
		s.metrics.AdmissionRefusals.Inc()
		s.log.Warn("admission refused", "remote", r.RemoteAddr, "error", err)
		http.Error(w, refusalText(err), http.StatusUnauthorized)
		return
	}

	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote its own response.
		s.log.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	conn := newConn(domain.ConnID(uuid.NewString()), claims.UserID, wsConn,
		s.log, s.cfg.BufferSize, s.cfg.WriteWait, s.cfg.PongWait)

	s.registry.Admit(conn.id, conn.user, conn)
	s.metrics.OpenConnections.Inc()
	s.log.Info("connection admitted", "conn", conn.id, "user", conn.user)

	go conn.writePump()
	conn.readPump(context.Background(), s)
}

// bearerToken pulls the credential from the Authorization header (raw or
// Bearer-prefixed, both forms exist in the wild) or, for browser clients
// that cannot set headers on a WebSocket, the token query parameter.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func refusalText(err error) string {
	if stderrors.Is(err, errors.ErrMissingCredential) {
		return errors.ErrMissingCredential.Error()
	}
	return errors.ErrInvalidToken.Error()
}
