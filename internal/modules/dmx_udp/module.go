package dmxudp

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/stagelight/lumacast/internal/dmx"
)

// Sink consumes raw channel frames.
type Sink interface {
	Submit(values []int)
}

// Config configures the UDP frame receiver.
type Config struct {
	// Listen is the UDP bind address, e.g. "0.0.0.0:6454".
	Listen string
	// Address is the 1-based DMX start address of the fixture's first
	// channel within the received universe data.
	Address int
}

// Module receives DMX universe datagrams and feeds the fixture's channel
// window to the sink. Short datagrams are dropped; the sender owns pacing.
type Module struct {
	log    *zap.Logger
	sink   Sink
	config Config
	drops  atomic.Uint64

	mu   sync.Mutex
	conn net.PacketConn
}

// NewModule creates a UDP receiver module.
func NewModule(log *zap.Logger, sink Sink, cfg Config) (*Module, error) {
	if sink == nil {
		return nil, errors.New("sink required")
	}
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = "0.0.0.0:6454"
	}
	if cfg.Address <= 0 {
		cfg.Address = 1
	}
	if cfg.Address+dmx.FrameChannels-1 > 512 {
		return nil, errors.New("dmx address leaves no room for the channel window")
	}
	return &Module{log: log, sink: sink, config: cfg}, nil
}

// Run listens for datagrams until the context is cancelled.
func (m *Module) Run(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", m.config.Listen)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()

	m.log.Info("dmx udp listening",
		zap.String("listen", conn.LocalAddr().String()),
		zap.Int("address", m.config.Address))

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, 1024)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		m.handleDatagram(buf[:n])
	}
}

// LocalAddr returns the bound address once Run has started listening.
func (m *Module) LocalAddr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	return m.conn.LocalAddr()
}

// Drops returns the number of datagrams discarded for being too short.
func (m *Module) Drops() uint64 {
	return m.drops.Load()
}

func (m *Module) handleDatagram(data []byte) {
	start := m.config.Address - 1
	if len(data) < start+dmx.FrameChannels {
		m.log.Warn("short dmx datagram",
			zap.Int("bytes", len(data)),
			zap.Uint64("drops", m.drops.Add(1)))
		return
	}
	values := make([]int, dmx.FrameChannels)
	for i := range values {
		values[i] = int(data[start+i])
	}
	m.sink.Submit(values)
}
