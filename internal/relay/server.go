// Package relay implements the push side of the order-delivery relay.
// This file contains the connection-upgrade handler, the in-band message
// protocol, and the tenant fan-out.
package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tavolo/pos-relay/internal/config"
	"github.com/tavolo/pos-relay/internal/services"
)

// HeaderAPIKey is the credential header required on connection upgrades.
const HeaderAPIKey = "X-Api-Key"

// Event is one server→client frame. Every outbound frame carries at least a
// type; the remaining fields are filled per message kind.
type Event struct {
	Type      string `json:"type"`
	Tenant    string `json:"tenant,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

// clientFrame is the inbound tagged union. Extra fields are retained in Raw
// for audit logging.
type clientFrame struct {
	Type string `json:"type"`
}

// Server accepts push-channel connections scoped to one tenant, authenticates
// them, registers them, relays the small in-band control protocol, and cleans
// up on close.
//
// Authentication asymmetry (intentional, matching the platform's current
// design): only the tenant-level shared secret is accepted here; per-device
// keys are validated on the pull endpoint only. A device revoked individually
// can therefore still open a push connection with the shared tenant key.
type Server struct {
	Auth     *services.Authenticator
	Logs     *services.SyncLogger
	Registry *Registry
	Cfg      config.WSConfig

	upgrader websocket.Upgrader
}

// NewServer constructs a push server with its own registry.
func NewServer(auth *services.Authenticator, logs *services.SyncLogger, cfg config.WSConfig) *Server {
	return &Server{
		Auth:     auth,
		Logs:     logs,
		Registry: NewRegistry(),
		Cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Terminals are backend integrations, not browsers; origin
			// checks add nothing here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleConnection serves GET /ws/pos/:tenant. No connection is ever
// registered before authentication succeeds.
func (s *Server) HandleConnection(c *gin.Context) {
	tenant := c.Param("tenant")
	if tenant == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"code":    "bad_request",
			"message": "tenant is required",
		})
		return
	}

	apiKey := c.GetHeader(HeaderAPIKey)
	if apiKey == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code":    "unauthorized",
			"message": "missing API key",
		})
		return
	}

	id, err := s.Auth.Authenticate(c.Request.Context(), tenant, apiKey)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code":    "unauthorized",
			"message": "invalid API key",
		})
		return
	}

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote its own error response.
		log.Warn().Err(err).Str("tenant", tenant).Msg("websocket upgrade failed")
		return
	}

	conn := NewConn(ws, s.Cfg.WriteTimeout)
	s.Registry.Register(tenant, conn)
	log.Info().Str("tenant", tenant).Int("connections", s.Registry.Count(tenant)).Msg("pos terminal connected")

	if err := conn.WriteJSON(Event{
		Type:      "connected",
		Tenant:    tenant,
		Message:   "POS channel established",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		log.Warn().Err(err).Str("tenant", tenant).Msg("connected ack failed")
	}

	s.readLoop(tenant, id.Tenant.ID, conn)
}

// readLoop relays the in-band protocol until the transport closes, then
// unregisters the connection exactly once.
func (s *Server) readLoop(tenant, tenantID string, conn *Conn) {
	defer func() {
		s.Registry.Unregister(tenant, conn)
		_ = conn.Close()
		log.Info().Str("tenant", tenant).Msg("pos terminal disconnected")
	}()

	conn.ws.SetReadLimit(s.Cfg.ReadLimit)

	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("tenant", tenant).Msg("websocket read error")
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil || frame.Type == "" {
			// A single malformed frame never costs the connection.
			log.Debug().Str("tenant", tenant).Msg("ignoring malformed pos message")
			continue
		}

		switch frame.Type {
		case "ping":
			// Keepalive only: no heartbeat or audit side effects.
			if err := conn.WriteJSON(Event{
				Type:      "pong",
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			}); err != nil {
				log.Debug().Err(err).Str("tenant", tenant).Msg("pong write failed")
			}
		default:
			var payload map[string]any
			_ = json.Unmarshal(raw, &payload)
			s.Logs.Log(context.Background(), tenantID, "pos_"+frame.Type, payload, services.SyncStatusReceived)
		}
	}
}

// BroadcastToTenant serializes event once and attempts to send it to every
// connection currently registered for the tenant. Zero recipients is not an
// error: offline terminals are expected to catch up via the pull endpoint.
//
// Fire-and-forget: per-connection failures are counted and logged but never
// retried, and a failing connection never blocks delivery to the rest.
func (s *Server) BroadcastToTenant(tenant string, event any) (attempted, delivered int) {
	conns := s.Registry.Snapshot(tenant)
	if len(conns) == 0 {
		log.Debug().Str("tenant", tenant).Msg("broadcast with zero recipients")
		return 0, 0
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("tenant", tenant).Msg("broadcast event not serializable")
		return 0, 0
	}

	for _, conn := range conns {
		attempted++
		if err := conn.WriteRaw(data); err != nil {
			log.Warn().Err(err).Str("tenant", tenant).Msg("broadcast send failed")
			continue
		}
		delivered++
	}

	log.Info().
		Str("tenant", tenant).
		Int("attempted", attempted).
		Int("delivered", delivered).
		Msg("broadcast complete")
	return attempted, delivered
}
