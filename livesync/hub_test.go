package livesync

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()
	return hub
}

func newTestClient(hub *Hub, matchID int) *Client {
	return &Client{
		Hub:  hub,
		Send: make(chan []byte, 4),
		Room: MatchRoom(matchID),
	}
}

// register blocks until the hub has placed the client in its room, so a
// follow-up publish is guaranteed to reach it.
func register(t *testing.T, hub *Hub, client *Client) {
	t.Helper()
	hub.Register <- client
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		_, ok := hub.rooms[client.Room][client]
		hub.mu.RUnlock()
		if ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("client was never registered")
}

func receive(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case data := <-client.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a hub message")
		return Message{}
	}
}

func expectSilence(t *testing.T, client *Client) {
	t.Helper()
	select {
	case data := <-client.Send:
		t.Fatalf("unexpected message: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func testUpdate(matchID int) Update {
	return Update{
		Stats: MatchSnapshot{
			MatchID: matchID,
			Status:  "Ongoing",
			TeamA:   TeamSnapshot{ID: 1, Name: "Thunder", Score: 12},
			TeamB:   TeamSnapshot{ID: 2, Name: "Raiders", Score: 9},
		},
	}
}

func TestHub_BroadcastsToSubscribers(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(hub, 5)
	register(t, hub, client)

	require.NoError(t, hub.PublishMatch(context.Background(), testUpdate(5)))

	msg := receive(t, client)
	assert.Equal(t, MessageTypeMatchUpdated, msg.Type)
	assert.Equal(t, "match_5", msg.RoomID)
}

func TestHub_LateSubscriberGetsRetainedSnapshot(t *testing.T) {
	hub := newTestHub()
	require.NoError(t, hub.PublishMatch(context.Background(), testUpdate(5)))

	client := newTestClient(hub, 5)
	register(t, hub, client)

	msg := receive(t, client)
	assert.Equal(t, MessageTypeMatchUpdated, msg.Type)

	payload, err := json.Marshal(msg.Payload)
	require.NoError(t, err)
	var update Update
	require.NoError(t, json.Unmarshal(payload, &update))
	assert.Equal(t, 5, update.Stats.MatchID)
	assert.Equal(t, 12, update.Stats.TeamA.Score)
}

func TestHub_RoomsAreIsolated(t *testing.T) {
	hub := newTestHub()
	other := newTestClient(hub, 6)
	register(t, hub, other)

	require.NoError(t, hub.PublishMatch(context.Background(), testUpdate(5)))
	expectSilence(t, other)
}

func TestHub_ClearMatchDropsTheSnapshot(t *testing.T) {
	hub := newTestHub()
	ctx := context.Background()

	subscriber := newTestClient(hub, 5)
	register(t, hub, subscriber)
	require.NoError(t, hub.PublishMatch(ctx, testUpdate(5)))
	receive(t, subscriber)

	require.NoError(t, hub.ClearMatch(ctx, 5))
	msg := receive(t, subscriber)
	assert.Equal(t, MessageTypeMatchCleared, msg.Type)

	// Whoever connects after the clear starts from a blank room.
	late := newTestClient(hub, 5)
	register(t, hub, late)
	expectSilence(t, late)
}

func TestMatchRoom(t *testing.T) {
	assert.Equal(t, "match_17", MatchRoom(17))
}
