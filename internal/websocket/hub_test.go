package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		Hub:           hub,
		SessionID:     sessionID,
		Send:          make(chan []byte, 4),
		LastResetTime: time.Now(),
	}
}

func TestHub_RegisterAndPush(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newTestClient(hub, "session-1")
	hub.Register(client)

	require.Eventually(t, func() bool {
		return hub.IsSessionConnected("session-1")
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Push("session-1", map[string]string{"sku": "01-D-NA"}))

	select {
	case payload := <-client.Send:
		assert.Contains(t, string(payload), "01-D-NA")
	case <-time.After(time.Second):
		t.Fatal("expected a pushed payload")
	}
}

func TestHub_UnregisterTwiceKeepsOtherTabsAlive(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	tabA := newTestClient(hub, "session-1")
	tabB := newTestClient(hub, "session-1")
	hub.Register(tabA)
	hub.Register(tabB)

	require.Eventually(t, func() bool {
		return hub.ConnectionCount("session-1") == 2
	}, time.Second, 5*time.Millisecond)

	// The drop path and the read pump shutdown can both unregister the
	// same connection; the second pass must be a no-op.
	hub.Unregister(tabA)
	hub.Unregister(tabA)

	require.Eventually(t, func() bool {
		return hub.ConnectionCount("session-1") == 1
	}, time.Second, 5*time.Millisecond)

	// tabA's queue is closed exactly once
	require.Eventually(t, func() bool {
		select {
		case _, open := <-tabA.Send:
			return !open
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	// The hub goroutine survived and still serves the remaining tab
	require.NoError(t, hub.Push("session-1", map[string]string{"sku": "02-D-NA"}))
	select {
	case payload := <-tabB.Send:
		assert.Contains(t, string(payload), "02-D-NA")
	case <-time.After(time.Second):
		t.Fatal("expected the remaining tab to receive the push")
	}
}

func TestHub_UnregisterLastTabRemovesSession(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newTestClient(hub, "session-1")
	hub.Register(client)
	require.Eventually(t, func() bool {
		return hub.IsSessionConnected("session-1")
	}, time.Second, 5*time.Millisecond)

	hub.Unregister(client)
	require.Eventually(t, func() bool {
		return !hub.IsSessionConnected("session-1")
	}, time.Second, 5*time.Millisecond)
}
