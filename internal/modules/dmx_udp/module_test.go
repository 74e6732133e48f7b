package dmxudp

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type captureSink struct {
	mu     sync.Mutex
	frames [][]int
}

func (s *captureSink) Submit(values []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame := make([]int, len(values))
	copy(frame, values)
	s.frames = append(s.frames, frame)
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *captureSink) last() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func startModule(t *testing.T, sink Sink, address int) (*Module, net.Addr) {
	t.Helper()
	module, err := NewModule(zap.NewNop(), sink, Config{Listen: "127.0.0.1:0", Address: address})
	if err != nil {
		t.Fatalf("new module: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan error, 1)
	go func() { done <- module.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("module did not stop")
		}
	})

	deadline := time.Now().Add(2 * time.Second)
	for module.LocalAddr() == nil {
		if time.Now().After(deadline) {
			t.Fatalf("module never bound")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return module, module.LocalAddr()
}

func send(t *testing.T, addr net.Addr, payload []byte) {
	t.Helper()
	conn, err := net.Dial("udp", addr.String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestModuleDeliversChannelWindow(t *testing.T) {
	sink := &captureSink{}
	_, addr := startModule(t, sink, 1)

	send(t, addr, []byte{5, 0, 200, 255, 128, 128, 128, 128, 128, 0, 128, 128, 128})

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("no frame delivered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	frame := sink.last()
	if len(frame) != 13 {
		t.Fatalf("expected 13 channels, got %d", len(frame))
	}
	if frame[0] != 5 || frame[2] != 200 {
		t.Fatalf("unexpected frame %v", frame)
	}
}

func TestModuleAppliesStartAddress(t *testing.T) {
	sink := &captureSink{}
	_, addr := startModule(t, sink, 4)

	// Universe data with the fixture patched at address 4.
	payload := make([]byte, 32)
	payload[3] = 7
	payload[4] = 1
	send(t, addr, payload)

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("no frame delivered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	frame := sink.last()
	if frame[0] != 7 || frame[1] != 1 {
		t.Fatalf("unexpected frame %v", frame)
	}
}

func TestModuleDropsShortDatagrams(t *testing.T) {
	sink := &captureSink{}
	module, addr := startModule(t, sink, 1)

	send(t, addr, []byte{1, 2, 3})
	send(t, addr, []byte{5, 0, 0, 255, 128, 128, 128, 128, 128, 0, 128, 128, 128})

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("no frame delivered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if sink.count() != 1 {
		t.Fatalf("short datagram was delivered")
	}
	if sink.last()[0] != 5 {
		t.Fatalf("unexpected frame %v", sink.last())
	}
	if module.Drops() != 1 {
		t.Fatalf("expected 1 dropped datagram, got %d", module.Drops())
	}
}

func TestNewModuleValidation(t *testing.T) {
	if _, err := NewModule(zap.NewNop(), nil, Config{}); err == nil {
		t.Fatalf("expected error for nil sink")
	}
	if _, err := NewModule(zap.NewNop(), &captureSink{}, Config{Address: 505}); err == nil {
		t.Fatalf("expected error for address past universe end")
	}
}
