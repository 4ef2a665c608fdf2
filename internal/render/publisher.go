package render

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/banshee-data/cloudview/internal/monitoring"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Publisher streams PointBuffer snapshots to websocket clients. Snapshots go
// out on a fixed cadence, but only when a render was requested since the
// previous send, so idle displays stay quiet.
type Publisher struct {
	buffer   *PointBuffer
	interval time.Duration
	version  atomic.Uint64
}

// NewPublisher creates a publisher over the given buffer. Interval <= 0
// defaults to 100ms.
func NewPublisher(buffer *PointBuffer, interval time.Duration) *Publisher {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Publisher{buffer: buffer, interval: interval}
}

// RequestRender marks the buffer dirty. Safe from any goroutine; wired as
// the display's render callback.
func (p *Publisher) RequestRender() {
	p.version.Add(1)
}

// Handler upgrades the request and streams snapshots until the client goes
// away.
func (p *Publisher) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	monitoring.Logf("Snapshot client connected from %s", r.RemoteAddr)

	// Clients never send data, but reading is the only way to notice a close
	// frame while the display is idle and no writes are happening.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// New clients get the current state immediately.
	sent := p.version.Load()
	if err := conn.WriteJSON(p.buffer.Snapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case <-ticker.C:
			v := p.version.Load()
			if v == sent {
				continue
			}
			sent = v
			if err := conn.WriteJSON(p.buffer.Snapshot()); err != nil {
				return // connection closed
			}
		}
	}
}
