package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for auction
// subscriptions.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(cm *ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
	}
}

// HandleAuctionConnection subscribes a client either to one lot
// (?lot_id=<uuid>) or to the cross-lot activity feed (?scope=feed).
func (h *WebSocketHandler) HandleAuctionConnection(w http.ResponseWriter, r *http.Request) {
	var scope string

	if lotIDStr := r.URL.Query().Get("lot_id"); lotIDStr != "" {
		lotID, err := uuid.Parse(lotIDStr)
		if err != nil {
			http.Error(w, "invalid lot_id format", http.StatusBadRequest)
			return
		}
		scope = LotScope(lotID)
	} else if r.URL.Query().Get("scope") == FeedScope {
		scope = FeedScope
	} else {
		http.Error(w, "lot_id or scope=feed is required", http.StatusBadRequest)
		return
	}

	// In production the user would come from a JWT or session.
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous"
	}

	if err := h.connectionManager.UpgradeConnection(w, r, userID, scope); err != nil {
		log.Error().
			Err(err).
			Str("scope", scope).
			Str("user_id", userID).
			Msg("websocket upgrade failed")
		return
	}
}

// HandleConnectionStats returns statistics about active connections.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	total, scopes := h.connectionManager.GetConnectionStats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"total_connections": total,
		"scopes":            scopes,
	})
}

// RegisterRoutes registers WebSocket routes with an HTTP mux.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/auction", h.HandleAuctionConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
