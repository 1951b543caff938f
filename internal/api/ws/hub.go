// Package ws streams clarification signals to the patient surface over
// WebSocket, bridged from the Redis channel the correlator publishes to.
package ws

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	redisstore "github.com/sohamkundu27/AITelehealth/internal/store/redis"
)

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	pubsub *redisstore.PubSub
}

// NewHub creates a new WebSocket hub.
func NewHub(pubsub *redisstore.PubSub) *Hub {
	return &Hub{pubsub: pubsub}
}

// ServeClarifications handles WebSocket connections for one session's
// clarification stream. Subscribes to Redis channel "clarify:<sessionID>"
// and forwards trigger/dismiss signals as they are published. Delivery is
// best-effort; a dropped connection simply stops receiving.
func (h *Hub) ServeClarifications(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	channel := redisstore.ClarificationChannel(sessionID)

	messages, cleanup, err := h.pubsub.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
