package statusweb

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stagelight/lumacast/internal/library"
	"github.com/stagelight/lumacast/pkg/show"
)

// Node exposes the playback node surface served over HTTP.
type Node interface {
	Snapshot() show.StatusSnapshot
	SetMediaRoot(root string) error
	MediaRoot() string
}

// Config configures the status web module.
type Config struct {
	Listen string
}

// Module serves a small read-mostly HTTP API for operators: current status,
// the folder/file layout the DMX indices map onto, and media root swaps.
type Module struct {
	log    *zap.Logger
	node   Node
	config Config

	mu     sync.Mutex
	server *http.Server
	ln     net.Listener
}

// NewModule creates a status web module.
func NewModule(log *zap.Logger, node Node, cfg Config) (*Module, error) {
	if node == nil {
		return nil, errors.New("node required")
	}
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = "127.0.0.1:8089"
	}
	return &Module{log: log, node: node, config: cfg}, nil
}

// Run serves HTTP until the context is cancelled.
func (m *Module) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.config.Listen)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", m.handleStatus)
	mux.HandleFunc("/api/library", m.handleLibrary)
	mux.HandleFunc("/api/config", m.handleConfig)
	server := &http.Server{Handler: mux}

	m.mu.Lock()
	m.server = server
	m.ln = ln
	m.mu.Unlock()

	m.log.Info("status web listening", zap.String("listen", ln.Addr().String()))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = server.Shutdown(shutdownCtx)
		cancel()
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// LocalAddr returns the bound address once Run has started listening.
func (m *Module) LocalAddr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ln == nil {
		return nil
	}
	return m.ln.Addr()
}

func (m *Module) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, m.node.Snapshot())
}

type libraryFolder struct {
	Index int      `json:"index"`
	Name  string   `json:"name"`
	Files []string `json:"files"`
}

type libraryResponse struct {
	Root    string          `json:"root"`
	Folders []libraryFolder `json:"folders"`
}

func (m *Module) handleLibrary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	root := m.node.MediaRoot()
	var resolver library.Resolver
	names, err := resolver.Folders(root)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response := libraryResponse{Root: root, Folders: make([]libraryFolder, 0, len(names))}
	for i, name := range names {
		files, err := resolver.Files(root, name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		response.Folders = append(response.Folders, libraryFolder{Index: i, Name: name, Files: files})
	}
	writeJSON(w, response)
}

func (m *Module) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body show.ConfigSetBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := m.node.SetMediaRoot(body.MediaRoot); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m.log.Info("media root changed via http", zap.String("root", body.MediaRoot))
	writeJSON(w, map[string]string{"mediaRoot": body.MediaRoot})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
