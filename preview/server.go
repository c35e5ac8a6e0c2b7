package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/maps"

	"lautenbacher.net/pktleds/command"
	"lautenbacher.net/pktleds/config"
	"lautenbacher.net/pktleds/pixel"
)

const (
	clientQueue  = 8
	writeTimeout = 200 * time.Millisecond
)

// FrameMessage is the JSON form of one transmitted frame.
type FrameMessage struct {
	Seq uint64   `json:"seq"`
	RGB []string `json:"rgb"`
}

type PatternCount struct {
	Pattern string `json:"pattern"`
	Count   int    `json:"count"`
}

// HistorySource provides the recently dispatched commands.
type HistorySource interface {
	Entries() []command.Entry
}

type Options struct {
	Listen     string
	History    HistorySource
	ConfigFile string
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Server mirrors the strip in the browser. It is a Transmitter: every
// frame sent to the strip is also pushed to the connected WebSocket
// clients. Clients that can't keep up miss frames, the strip never
// waits for them.
type Server struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	last     FrameMessage
	opts     Options
	upgrader websocket.Upgrader
	http     *http.Server
	listener net.Listener
}

func NewServer(opts Options) *Server {
	inst := &Server{
		clients:  map[*client]struct{}{},
		opts:     opts,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
	inst.http = &http.Server{Handler: inst.Handler(), ReadHeaderTimeout: 5 * time.Second}
	return inst
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/frame", s.handleFrame)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/stats", s.handleStats)
	if s.opts.ConfigFile != "" {
		mux.Handle("/api/config", config.ConfigHandler(s.opts.ConfigFile))
	}
	return mux
}

// Start listens on the configured address and serves in the
// background.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Listen, err)
	}
	s.listener = l
	slog.Info("Preview listening", "address", l.Addr().String())
	go func() {
		if err := s.http.Serve(l); err != nil && err != http.ErrServerClosed {
			slog.Error("Preview server stopped", "error", err)
		}
	}()
	return nil
}

func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Clients returns the number of connected WebSocket clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func hex(p pixel.Pixel) string {
	return fmt.Sprintf("#%02x%02x%02x", p.Red, p.Green, p.Blue)
}

func (s *Server) Transmit(frame pixel.Frame) error {
	msg := FrameMessage{RGB: make([]string, len(frame))}
	for i, w := range frame {
		msg.RGB[i] = hex(pixel.Unpack(w))
	}

	s.mu.Lock()
	msg.Seq = s.last.Seq + 1
	s.last = msg
	data, err := json.Marshal(msg)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			slog.Debug("Preview client too slow, dropping frame", "client", c.conn.RemoteAddr().String(), "seq", msg.Seq)
		}
	}
	s.mu.Unlock()
	return nil
}

// Close disconnects all clients and stops the HTTP server.
func (s *Server) Close() error {
	s.mu.Lock()
	for c := range s.clients {
		s.drop(c)
	}
	s.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}

// drop must be called with mu held.
func (s *Server) drop(c *client) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("WebSocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientQueue)}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	if s.last.RGB != nil {
		if data, err := json.Marshal(s.last); err == nil {
			c.send <- data
		}
	}
	s.mu.Unlock()
	slog.Debug("Preview client connected", "client", conn.RemoteAddr().String())

	go s.writer(c)
	go func() {
		defer func() {
			s.mu.Lock()
			s.drop(c)
			s.mu.Unlock()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) writer(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Debug("Preview write failed", "error", err)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeTimeout))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()
	if last.RGB == nil {
		http.Error(w, "No frame transmitted yet", http.StatusNotFound)
		return
	}
	writeJSON(w, last)
}

func (s *Server) entries() []command.Entry {
	if s.opts.History == nil {
		return []command.Entry{}
	}
	return s.opts.History.Entries()
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.entries())
}

// handleStats counts the recent commands per pattern, sorted by
// pattern name.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts := map[string]int{}
	for _, e := range s.entries() {
		counts[e.Pattern]++
	}
	ret := []PatternCount{}
	for _, name := range slices.Sorted(maps.Keys(counts)) {
		ret = append(ret, PatternCount{Pattern: name, Count: counts[name]})
	}
	writeJSON(w, ret)
}
