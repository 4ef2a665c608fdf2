package source

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/cloudview/internal/cloud"
	"github.com/banshee-data/cloudview/internal/monitoring"
)

// UDPSourceConfig configures a UDP datagram source. Each datagram carries one
// encoded cloud frame.
type UDPSourceConfig struct {
	Address     string
	RcvBuf      int
	LogInterval time.Duration
	Handler     CloudHandler
}

// UDPSource listens for cloud frames on a UDP socket.
type UDPSource struct {
	address     string
	rcvBuf      int
	logInterval time.Duration
	buffer      []byte
	handler     CloudHandler

	// Written by the receive loop, read by the stats goroutine.
	frames  atomic.Uint64
	dropped atomic.Uint64

	mu    sync.Mutex
	laddr net.Addr
}

// NewUDPSource creates a UDP source with the provided configuration.
func NewUDPSource(cfg UDPSourceConfig) *UDPSource {
	if cfg.RcvBuf == 0 {
		cfg.RcvBuf = 8 << 20
	}
	if cfg.LogInterval == 0 {
		cfg.LogInterval = 30 * time.Second
	}
	return &UDPSource{
		address:     cfg.Address,
		rcvBuf:      cfg.RcvBuf,
		logInterval: cfg.LogInterval,
		buffer:      make([]byte, 1<<16), // max UDP datagram
		handler:     cfg.Handler,
	}
}

// Start begins receiving frames. Returns when the context is cancelled or an
// unrecoverable socket error occurs.
func (s *UDPSource) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", s.address)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP: %w", err)
	}
	defer conn.Close()

	s.mu.Lock()
	s.laddr = conn.LocalAddr()
	s.mu.Unlock()

	if err := conn.SetReadBuffer(s.rcvBuf); err != nil {
		monitoring.Logf("Warning: failed to set UDP receive buffer to %d bytes: %v (some OSes clamp buffer sizes)", s.rcvBuf, err)
	}

	monitoring.Logf("Listening for cloud frames on %s", s.address)
	go s.startStatsLogging(ctx)

	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("UDP cloud source shutting down")
			return ctx.Err()
		default:
			// Read deadline keeps the loop responsive to cancellation.
			if err := conn.SetReadDeadline(time.Now().Add(1 * time.Second)); err != nil {
				monitoring.Logf("Error setting read deadline: %v", err)
				continue
			}

			n, _, err := conn.ReadFromUDP(s.buffer)
			if err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue
				}
				monitoring.Logf("Error reading UDP datagram: %v", err)
				continue
			}

			// The decoder copies out of the reused receive buffer, so the
			// handler may retain the cloud.
			pc, err := cloud.DecodeFrame(s.buffer[:n])
			if err != nil {
				s.dropped.Add(1)
				monitoring.Logf("Dropping undecodable cloud frame: %v", err)
				continue
			}
			s.frames.Add(1)
			s.handler(pc)
		}
	}
}

func (s *UDPSource) startStatsLogging(ctx context.Context) {
	ticker := time.NewTicker(s.logInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			monitoring.Logf("UDP cloud source: %d frames received, %d dropped", s.frames.Load(), s.dropped.Load())
		}
	}
}

// LocalAddr returns the bound socket address once Start is listening, nil
// before that. Needed when listening on port 0.
func (s *UDPSource) LocalAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.laddr
}

// Stats returns the number of frames delivered and datagrams dropped.
func (s *UDPSource) Stats() (frames, dropped uint64) {
	return s.frames.Load(), s.dropped.Load()
}
