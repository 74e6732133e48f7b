//go:build integration
// +build integration

package integration

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/stagelight/lumacast/internal/adapters/mqtt"
	"github.com/stagelight/lumacast/internal/adapters/mqttserver"
	"github.com/stagelight/lumacast/internal/dmx"
	dmxudp "github.com/stagelight/lumacast/internal/modules/dmx_udp"
	embeddedmqtt "github.com/stagelight/lumacast/internal/modules/embedded_mqtt"
	"github.com/stagelight/lumacast/internal/modules/playback"
	"github.com/stagelight/lumacast/pkg/show"
)

type recordingPlayer struct {
	mu    sync.Mutex
	calls []string
}

func (p *recordingPlayer) record(call string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
	return nil
}

func (p *recordingPlayer) Load(source string) error       { return p.record("load:" + source) }
func (p *recordingPlayer) Play() error                    { return p.record("play") }
func (p *recordingPlayer) Pause() error                   { return p.record("pause") }
func (p *recordingPlayer) Resume() error                  { return p.record("resume") }
func (p *recordingPlayer) SetLoop(enabled bool) error     { return p.record(fmt.Sprintf("loop:%t", enabled)) }
func (p *recordingPlayer) Stop() error                    { return p.record("stop") }
func (p *recordingPlayer) SetVolume(volume float64) error { return p.record("volume") }
func (p *recordingPlayer) SetEffects(fx dmx.Effects) error {
	return p.record("effects")
}

func freePort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestDaemonEndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := zap.NewNop()

	// Embedded broker.
	brokerListen := freePort(t)
	broker, err := embeddedmqtt.NewModule(logger, embeddedmqtt.Config{
		Listen:         brokerListen,
		AllowAnonymous: true,
	})
	if err != nil {
		t.Fatalf("embedded mqtt: %v", err)
	}
	go broker.Run(ctx)
	waitForTCP(t, brokerListen)

	brokerURL := embeddedmqtt.BrokerURL(brokerListen, false)
	serverClient, err := mqttserver.NewClient(mqttserver.Options{
		BrokerURL: brokerURL,
		ClientID:  "lumacastd-it",
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("server client: %v", err)
	}

	// Playback node with a recording player and a real on-disk library.
	root := t.TempDir()
	makeLibrary(t, root)
	player := &recordingPlayer{}
	node, err := playback.NewModule(logger, serverClient, player, playback.Config{
		NodeID:    "lc:it",
		MediaRoot: root,
	})
	if err != nil {
		t.Fatalf("playback module: %v", err)
	}
	go node.Run(ctx)

	// UDP ingest feeding the playback node.
	ingest, err := dmxudp.NewModule(logger, node, dmxudp.Config{Listen: "127.0.0.1:0", Address: 1})
	if err != nil {
		t.Fatalf("dmx udp module: %v", err)
	}
	go ingest.Run(ctx)
	deadline := time.Now().Add(2 * time.Second)
	for ingest.LocalAddr() == nil {
		if time.Now().After(deadline) {
			t.Fatalf("udp module never bound")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// CLI-side client observing retained state.
	cli, err := mqtt.NewClient(mqtt.Options{
		BrokerURL: brokerURL,
		ClientID:  "lumacast-it",
		Timeout:   2 * time.Second,
	})
	if err != nil {
		t.Fatalf("cli client: %v", err)
	}
	defer cli.Disconnect()

	// A looping selection arrives over UDP.
	conn, err := net.Dial("udp", ingest.LocalAddr().String())
	if err != nil {
		t.Fatalf("dial udp: %v", err)
	}
	defer conn.Close()
	frame := []byte{1, 0, 200, 255, 128, 128, 128, 128, 128, 0, 128, 128, 128}

	var state show.StatusSnapshot
	deadline = time.Now().Add(5 * time.Second)
	for {
		if _, err := conn.Write(frame); err != nil {
			t.Fatalf("write frame: %v", err)
		}
		getCtx, getCancel := context.WithTimeout(ctx, time.Second)
		state, err = cli.GetState(getCtx, "lc:it")
		getCancel()
		if err == nil && state.Status == "looping" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("node never reached looping state: %+v err=%v", state, err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	if state.FileIndex != 1 || state.FolderIndex != 0 {
		t.Fatalf("unexpected target %+v", state)
	}
	if state.Source == "" {
		t.Fatalf("expected resolved source")
	}

	// Media root swap over the bus.
	next := t.TempDir()
	makeLibrary(t, next)
	envelope, err := show.NewCommand("config.set", show.ConfigSetBody{MediaRoot: next})
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	envelope.ID = "it-1"
	envelope.TS = time.Now().Unix()
	if err := cli.PublishCommand("lc:it", envelope); err != nil {
		t.Fatalf("publish command: %v", err)
	}

	deadline = time.Now().Add(5 * time.Second)
	for node.MediaRoot() != next {
		if time.Now().After(deadline) {
			t.Fatalf("media root never swapped")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func makeLibrary(t *testing.T, root string) {
	t.Helper()
	dir := filepath.Join(root, "0_show")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "clip1.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func waitForTCP(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("nothing listening at %s", addr)
}
