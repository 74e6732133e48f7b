package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/stagelight/lumacast/internal/adapters/mqttserver"
	"github.com/stagelight/lumacast/internal/lumacastd"
	dmxudp "github.com/stagelight/lumacast/internal/modules/dmx_udp"
	embeddedmqtt "github.com/stagelight/lumacast/internal/modules/embedded_mqtt"
	"github.com/stagelight/lumacast/internal/modules/playback"
	statusweb "github.com/stagelight/lumacast/internal/modules/status_web"
	"github.com/stagelight/lumacast/internal/player"
	"github.com/stagelight/lumacast/internal/player/gstreamer"
	"github.com/stagelight/lumacast/internal/player/vlc"
	"github.com/stagelight/lumacast/pkg/show"
)

func main() {
	var (
		configPath string
		broker     string
		nodeID     string
		topicBase  string
		mediaRoot  string
		logLevel   string
		logFormat  string
		logOutput  string
		dryRun     bool
	)

	defaultConfig, err := lumacastd.DefaultConfigPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	flag.StringVar(&configPath, "config", defaultConfig, "config file path")
	flag.StringVar(&broker, "broker", "", "MQTT broker URL override")
	flag.StringVar(&nodeID, "node-id", "", "node id override")
	flag.StringVar(&topicBase, "topic-base", "", "topic base override")
	flag.StringVar(&mediaRoot, "media-root", "", "media root override")
	flag.StringVar(&logLevel, "log-level", "", "log level override")
	flag.StringVar(&logFormat, "log-format", "", "log format override (json|console)")
	flag.StringVar(&logOutput, "log-output", "", "log output override (stdout|stderr)")
	flag.BoolVar(&dryRun, "dry-run", false, "validate config and exit")
	flag.Parse()

	cfg, err := lumacastd.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applyOverrides(&cfg, broker, nodeID, topicBase, mediaRoot, logLevel, logFormat, logOutput)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if dryRun {
		return
	}

	logger := lumacastd.NewLogger(lumacastd.LogConfig{
		Level:  cfg.Server.LogLevel,
		Format: cfg.Server.LogFormat,
		Output: cfg.Server.LogOutput,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	skipEmbedded := false
	if cfg.Modules.EmbeddedMQTT.Enabled && cfg.Server.Broker == embeddedBrokerURL(cfg) {
		if err := startEmbeddedBroker(ctx, cfg, logger, cancel); err != nil {
			logger.Error("embedded mqtt failed", zap.Error(err))
			os.Exit(1)
		}
		skipEmbedded = true
	}

	if cfg.Server.Broker == "" {
		logger.Error("broker is required")
		os.Exit(1)
	}
	logger.Info("lumacastd starting",
		zap.String("broker", cfg.Server.Broker),
		zap.String("node_id", cfg.Server.NodeID),
		zap.String("topic_base", cfg.Server.TopicBase),
		zap.String("media_root", cfg.Media.Root),
		zap.String("player", playerBackend(cfg)),
	)

	client, err := mqttserver.NewClient(mqttserver.Options{
		BrokerURL: cfg.Server.Broker,
		ClientID:  fmt.Sprintf("lumacastd-%d", time.Now().UnixNano()),
		Username:  cfg.Server.Auth.User,
		Password:  cfg.Server.Auth.Pass,
		TLSCA:     cfg.Server.TLS.CA,
		TLSCert:   cfg.Server.TLS.Cert,
		TLSKey:    cfg.Server.TLS.Key,
		Timeout:   2 * time.Second,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("mqtt connection failed", zap.Error(err))
		os.Exit(1)
	}

	modules, err := buildModules(cfg, client, logger, skipEmbedded)
	if err != nil {
		logger.Error("failed to build modules", zap.Error(err))
		os.Exit(1)
	}

	supervisor := lumacastd.Supervisor{Logger: logger}
	if err := supervisor.Run(ctx, modules); err != nil {
		logger.Error("supervisor error", zap.Error(err))
		os.Exit(1)
	}
}

func applyOverrides(cfg *lumacastd.Config, broker string, nodeID string, topicBase string, mediaRoot string, logLevel string, logFormat string, logOutput string) {
	if broker != "" {
		cfg.Server.Broker = broker
	}
	if nodeID != "" {
		cfg.Server.NodeID = nodeID
	}
	if topicBase != "" {
		cfg.Server.TopicBase = topicBase
	}
	if mediaRoot != "" {
		cfg.Media.Root = mediaRoot
	}
	if logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.Server.LogFormat = logFormat
	}
	if logOutput != "" {
		cfg.Server.LogOutput = logOutput
	}
	if cfg.Server.TopicBase == "" {
		cfg.Server.TopicBase = show.BaseTopic
	}
	if cfg.Server.NodeID == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "node"
		}
		cfg.Server.NodeID = "lc:" + host
	}
	if cfg.Server.Broker == "" && cfg.Modules.EmbeddedMQTT.Enabled {
		cfg.Server.Broker = embeddedBrokerURL(*cfg)
	}
}

func playerBackend(cfg lumacastd.Config) string {
	if cfg.Player.Backend == "" {
		return "vlc"
	}
	return cfg.Player.Backend
}

func newPlayer(cfg lumacastd.Config) (player.Player, error) {
	switch playerBackend(cfg) {
	case "gstreamer":
		return gstreamer.NewDriver(cfg.Player.GStreamer.Device)
	default:
		url := cfg.Player.VLC.URL
		if url == "" {
			url = "http://127.0.0.1:8080"
		}
		timeout := time.Duration(cfg.Player.VLC.TimeoutMS) * time.Millisecond
		return vlc.NewDriver(url, cfg.Player.VLC.Username, cfg.Player.VLC.Password, timeout)
	}
}

func buildModules(cfg lumacastd.Config, client *mqttserver.Client, logger *zap.Logger, skipEmbedded bool) ([]lumacastd.ModuleRunner, error) {
	modules := []lumacastd.ModuleRunner{}

	if cfg.Modules.EmbeddedMQTT.Enabled && !skipEmbedded {
		mod, err := embeddedmqtt.NewModule(logger.With(zap.String("module", "embedded_mqtt")), embeddedmqtt.Config{
			Listen:         cfg.Modules.EmbeddedMQTT.Listen,
			AllowAnonymous: cfg.Modules.EmbeddedMQTT.AllowAnonymous,
			Username:       cfg.Modules.EmbeddedMQTT.Username,
			Password:       cfg.Modules.EmbeddedMQTT.Password,
			TLSCA:          cfg.Modules.EmbeddedMQTT.TLSCA,
			TLSCert:        cfg.Modules.EmbeddedMQTT.TLSCert,
			TLSKey:         cfg.Modules.EmbeddedMQTT.TLSKey,
		})
		if err != nil {
			return nil, err
		}
		modules = append(modules, lumacastd.ModuleRunner{Name: "embedded_mqtt", Run: mod.Run})
	}

	backend, err := newPlayer(cfg)
	if err != nil {
		return nil, err
	}

	name := cfg.Server.Name
	if name == "" {
		name = "Playback"
	}
	pb, err := playback.NewModule(logger.With(zap.String("module", "playback")), client, backend, playback.Config{
		NodeID:        cfg.Server.NodeID,
		TopicBase:     cfg.Server.TopicBase,
		Name:          name,
		MediaRoot:     cfg.Media.Root,
		Depth:         cfg.DMX.Depth,
		FailMode:      cfg.DMX.FailMode,
		FailTimeoutMS: cfg.DMX.FailTimeoutMS,
	})
	if err != nil {
		return nil, err
	}
	modules = append(modules, lumacastd.ModuleRunner{Name: "playback", Run: pb.Run})

	du, err := dmxudp.NewModule(logger.With(zap.String("module", "dmx_udp")), pb, dmxudp.Config{
		Listen:  cfg.DMX.Listen,
		Address: cfg.DMX.Address,
	})
	if err != nil {
		return nil, err
	}
	modules = append(modules, lumacastd.ModuleRunner{Name: "dmx_udp", Run: du.Run})

	if cfg.Modules.StatusWeb.Enabled {
		sw, err := statusweb.NewModule(logger.With(zap.String("module", "status_web")), pb, statusweb.Config{
			Listen: cfg.Modules.StatusWeb.Listen,
		})
		if err != nil {
			return nil, err
		}
		modules = append(modules, lumacastd.ModuleRunner{Name: "status_web", Run: sw.Run})
	}

	return modules, nil
}

func embeddedBrokerURL(cfg lumacastd.Config) string {
	listen := cfg.Modules.EmbeddedMQTT.Listen
	if listen == "" {
		listen = "127.0.0.1:1883"
	}
	tlsEnabled := cfg.Modules.EmbeddedMQTT.TLSCert != "" || cfg.Modules.EmbeddedMQTT.TLSKey != "" || cfg.Modules.EmbeddedMQTT.TLSCA != ""
	return embeddedmqtt.BrokerURL(listen, tlsEnabled)
}

func startEmbeddedBroker(ctx context.Context, cfg lumacastd.Config, logger *zap.Logger, cancel context.CancelFunc) error {
	mod, err := embeddedmqtt.NewModule(logger.With(zap.String("module", "embedded_mqtt")), embeddedmqtt.Config{
		Listen:         cfg.Modules.EmbeddedMQTT.Listen,
		AllowAnonymous: cfg.Modules.EmbeddedMQTT.AllowAnonymous,
		Username:       cfg.Modules.EmbeddedMQTT.Username,
		Password:       cfg.Modules.EmbeddedMQTT.Password,
		TLSCA:          cfg.Modules.EmbeddedMQTT.TLSCA,
		TLSCert:        cfg.Modules.EmbeddedMQTT.TLSCert,
		TLSKey:         cfg.Modules.EmbeddedMQTT.TLSKey,
	})
	if err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- mod.Run(ctx)
	}()
	go func() {
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("embedded mqtt exited", zap.Error(err))
			cancel()
		}
	}()

	listen := cfg.Modules.EmbeddedMQTT.Listen
	if listen == "" {
		listen = "127.0.0.1:1883"
	}
	return waitForListen(listen, 3*time.Second)
}

func waitForListen(listen string, timeout time.Duration) error {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return err
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	addr := net.JoinHostPort(host, port)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("embedded mqtt not ready at %s", addr)
}
