package livesync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
)

const (
	MessageTypeMatchUpdated = "MATCH_UPDATED"
	MessageTypeMatchCleared = "MATCH_CLEARED"
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	RoomID  string      `json:"room_id,omitempty"`
}

// MatchRoom names the hub room that carries one match's snapshots.
func MatchRoom(matchID int) string {
	return "match_" + strconv.Itoa(matchID)
}

// Hub fans match snapshots out to websocket spectators, one room per
// match. It retains the latest snapshot per room so that late subscribers
// receive the current state immediately on connect.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	logger *slog.Logger

	mu        sync.RWMutex
	rooms     map[string]map[*Client]bool
	snapshots map[string][]byte
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger,
		rooms:      make(map[string]map[*Client]bool),
		snapshots:  make(map[string][]byte),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.Room]; !ok {
				h.rooms[client.Room] = make(map[*Client]bool)
			}
			h.rooms[client.Room][client] = true
			snapshot := h.snapshots[client.Room]
			h.mu.Unlock()

			h.logger.Info("livesync client registered", slog.String("room", client.Room))
			if snapshot != nil {
				client.trySend(snapshot)
			}

		case client := <-h.Unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.Room]; ok {
				if _, okClient := clients[client]; okClient {
					client.closeSend()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, client.Room)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Info("livesync client unregistered", slog.String("room", client.Room))
		}
	}
}

// PublishMatch implements Notifier.
func (h *Hub) PublishMatch(ctx context.Context, update Update) error {
	room := MatchRoom(update.Stats.MatchID)
	message, err := json.Marshal(Message{
		Type:    MessageTypeMatchUpdated,
		Payload: update,
		RoomID:  room,
	})
	if err != nil {
		return fmt.Errorf("marshal livesync update: %w", err)
	}

	h.mu.Lock()
	h.snapshots[room] = message
	h.mu.Unlock()

	h.broadcast(room, message)
	return nil
}

// ClearMatch implements Notifier.
func (h *Hub) ClearMatch(ctx context.Context, matchID int) error {
	room := MatchRoom(matchID)
	message, err := json.Marshal(Message{
		Type:   MessageTypeMatchCleared,
		RoomID: room,
	})
	if err != nil {
		return fmt.Errorf("marshal livesync clear: %w", err)
	}

	h.mu.Lock()
	delete(h.snapshots, room)
	h.mu.Unlock()

	h.broadcast(room, message)
	return nil
}

func (h *Hub) broadcast(room string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		if !client.trySend(message) {
			h.logger.Warn("livesync client send buffer full, skipping",
				slog.String("room", room))
		}
	}
}
