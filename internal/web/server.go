// Package web serves the dashboard over HTTP: an HTML page, server-sent
// events, a websocket feed and Prometheus metrics.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/vadiminshakov/tickboard/config"
	"github.com/vadiminshakov/tickboard/internal/events"
	"github.com/vadiminshakov/tickboard/internal/metrics"
	"github.com/vadiminshakov/tickboard/pkg/retrier"
	"go.uber.org/zap"
)

const (
	heartbeatInterval = 30 * time.Second
	wsWriteTimeout    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WidgetInfo describes a widget on /widgets.
type WidgetInfo struct {
	Name     string      `json:"name"`
	Kind     events.Kind `json:"kind"`
	Interval string      `json:"interval"`
}

// Server exposes the dashboard streams. Every client gets the latest board
// of each widget on connect, then live updates from the bus.
type Server struct {
	addr    string
	logger  *zap.Logger
	bus     *events.Broadcaster[events.Message]
	metrics *metrics.Registry
	widgets []WidgetInfo
	known   map[string]struct{}
	router  *mux.Router
	updates chan events.Message

	mu     sync.RWMutex
	latest map[string]events.Message
}

// NewServer creates a server for the configured widgets. reg may be nil.
// The server subscribes to bus right away, so boards published before Start
// are buffered and served to the first clients.
func NewServer(addr string, logger *zap.Logger, bus *events.Broadcaster[events.Message], reg *metrics.Registry, widgets []config.Widget) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		addr:    addr,
		logger:  logger,
		bus:     bus,
		metrics: reg,
		known:   make(map[string]struct{}, len(widgets)),
		latest:  make(map[string]events.Message, len(widgets)),
		updates: bus.Subscribe(),
	}
	for _, w := range widgets {
		s.widgets = append(s.widgets, WidgetInfo{Name: w.Name, Kind: w.Kind, Interval: w.Interval.String()})
		s.known[w.Name] = struct{}{}
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/widgets", s.handleWidgets).Methods(http.MethodGet)
	r.HandleFunc("/widgets/{widget}", s.handleWidget).Methods(http.MethodGet)
	r.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)
	r.HandleFunc("/stream/{widget}", s.handleStream).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebsocket).Methods(http.MethodGet)
	r.Handle("/metrics", reg.Handler()).Methods(http.MethodGet)
	s.router = r

	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
// Binding the address is retried while the port is busy.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	go s.track(ctx)

	r := retrier.New(
		retrier.WithMaxRetries(5),
		retrier.WithOnRetry(func(attempt int, err error, wait time.Duration) {
			s.logger.Warn("listen failed, retrying",
				zap.String("addr", s.addr), zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
		}),
	)
	ln, err := retrier.DoWithData(r, ctx, func(ctx context.Context) (net.Listener, error) {
		var lc net.ListenConfig
		return lc.Listen(ctx, "tcp", s.addr)
	})
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}

	server := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// track keeps the latest message per widget for newly connected clients.
func (s *Server) track(ctx context.Context) {
	ch := s.updates
	defer s.bus.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.remember(msg)
		}
	}
}

func (s *Server) remember(msg events.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.latest[msg.Widget]; ok && cur.Seq > msg.Seq {
		return
	}
	s.latest[msg.Widget] = msg
}

// snapshot returns the latest messages for widget, or for all widgets when empty.
func (s *Server) snapshot(widget string) []events.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]events.Message, 0, len(s.latest))
	for name, msg := range s.latest {
		if widget == "" || name == widget {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Widget < out[j].Widget })
	return out
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"widgets": len(s.widgets),
		"clients": s.bus.Subscribers(),
	})
}

func (s *Server) handleWidgets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.widgets)
}

func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	widget := mux.Vars(r)["widget"]
	if _, ok := s.known[widget]; !ok {
		http.Error(w, "unknown widget", http.StatusNotFound)
		return
	}

	latest := s.snapshot(widget)
	if len(latest) == 0 {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, latest[0])
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	widget := mux.Vars(r)["widget"]
	if widget != "" {
		if _, ok := s.known[widget]; !ok {
			http.Error(w, "unknown widget", http.StatusNotFound)
			return
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// subscribe before reading the snapshot so no update falls in between
	ch := s.bus.Subscribe()
	defer s.bus.Unsubscribe(ch)
	defer s.metrics.ClientConnected()()

	send := func(msg events.Message) error {
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "event: %s\n", msg.Kind)
		fmt.Fprintf(w, "id: %d\n", msg.Seq)
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		return nil
	}

	for _, msg := range s.snapshot(widget) {
		if err := send(msg); err != nil {
			s.logger.Error("stream initial send", zap.Error(err))
			return
		}
	}

	// send a comment heartbeat so proxies keep connection
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if widget != "" && msg.Widget != widget {
				continue
			}
			if err := send(msg); err != nil {
				s.logger.Error("stream send", zap.String("widget", msg.Widget), zap.Error(err))
			}
		}
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ch := s.bus.Subscribe()
	defer s.bus.Unsubscribe(ch)
	defer s.metrics.ClientConnected()()

	// the client sends nothing, reading only detects the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(msg events.Message) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(msg)
	}

	for _, msg := range s.snapshot("") {
		if err := write(msg); err != nil {
			return
		}
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := write(msg); err != nil {
				s.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
