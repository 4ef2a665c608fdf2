package render

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialPublisher(t *testing.T, p *Publisher) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(p.Handler))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestPublisherInitialSnapshot(t *testing.T) {
	buffer := NewPointBuffer()
	buffer.AddPoints(pts(1, 2, 3))
	p := NewPublisher(buffer, 10*time.Millisecond)

	conn := dialPublisher(t, p)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var snap BufferSnapshot
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, 3, snap.TotalPoints)
	assert.Equal(t, float32(1), snap.Points[0].X)
}

func TestPublisherSendsOnRenderRequest(t *testing.T) {
	buffer := NewPointBuffer()
	p := NewPublisher(buffer, 10*time.Millisecond)

	conn := dialPublisher(t, p)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var snap BufferSnapshot
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, 0, snap.TotalPoints)

	buffer.AddPoints(pts(5))
	p.RequestRender()

	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, 1, snap.TotalPoints)
}

func TestPublisherDetectsClientCloseWhenIdle(t *testing.T) {
	buffer := NewPointBuffer()
	p := NewPublisher(buffer, 10*time.Millisecond)

	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.Handler(w, r)
		close(done)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	var snap BufferSnapshot
	require.NoError(t, conn.ReadJSON(&snap))

	// No render request is pending, so no write will ever fail; the handler
	// must still notice the peer going away.
	require.NoError(t, conn.Close())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after client close")
	}
}

func TestPublisherQuietWhenIdle(t *testing.T) {
	buffer := NewPointBuffer()
	p := NewPublisher(buffer, 10*time.Millisecond)

	conn := dialPublisher(t, p)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var snap BufferSnapshot
	require.NoError(t, conn.ReadJSON(&snap))

	// No render request: nothing further arrives within a few intervals.
	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	err := conn.ReadJSON(&snap)
	assert.Error(t, err)
}
