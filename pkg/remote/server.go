package remote

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/reflow-ui/reflow/internal/config"
	"github.com/reflow-ui/reflow/pkg/metrics"
	"github.com/reflow-ui/reflow/pkg/reactive"
	"github.com/reflow-ui/reflow/pkg/renderer"
	"github.com/reflow-ui/reflow/pkg/scheduler"
	"github.com/reflow-ui/reflow/pkg/vdom"
)

// pingInterval must stay below the read deadline so an idle but healthy
// connection keeps renewing it.
const pingInterval = 30 * time.Second

// App builds the root vnode for one session. Each session gets its own
// runtime, so per-session reactive state lives in the closure.
type App func(rt *reactive.Runtime) *vdom.VNode

// Server serves one reflow application over websocket sessions. Every
// session owns an independent runtime, renderer, and remote host.
type Server struct {
	app      App
	cfg      *config.Config
	logger   *slog.Logger
	met      *metrics.Metrics
	upgrader websocket.Upgrader
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the structured logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithServerMetrics attaches a collector set shared by all sessions.
func WithServerMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) {
		s.met = m
	}
}

// NewServer creates a server for app using cfg's timeouts.
func NewServer(app App, cfg *config.Config, opts ...ServerOption) *Server {
	s := &Server{
		app: app,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "remote.server")
	}
	return s
}

// Routes returns the router exposing the session endpoint at /ws.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/ws", s.handleWS)
	return r
}

// wsSink serializes frame writes onto one connection and renews the
// write deadline per frame.
type wsSink struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	timeout time.Duration
}

func (w *wsSink) WriteFrame(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.SetWriteDeadline(time.Now().Add(w.timeout)); err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (w *wsSink) writeControl(messageType int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(messageType, nil, time.Now().Add(w.timeout))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sink := &wsSink{conn: conn, timeout: s.cfg.Serve.WriteTimeout}
	host := NewHost(sink,
		WithLogger(s.logger.With("component", "remote.host")),
		WithMetrics(s.met),
	)

	schedOpts := []scheduler.Option{}
	if s.met != nil {
		schedOpts = append(schedOpts, scheduler.WithFlushObserver(func(jobs int) {
			s.met.FlushesTotal.Inc()
			s.met.JobsFlushed.Add(float64(jobs))
		}))
	}
	rtOpts := []reactive.Option{
		reactive.WithLogger(s.logger.With("component", "reactive")),
		reactive.WithScheduler(scheduler.New(schedOpts...)),
	}
	if s.met != nil {
		rtOpts = append(rtOpts, reactive.WithWatchObserver(func(delta int) {
			s.met.ActiveWatchers.Add(float64(delta))
		}))
	}
	rt := reactive.New(rtOpts...)
	rend := renderer.New(host, rt,
		renderer.WithLogger(s.logger.With("component", "renderer")),
		renderer.WithMetrics(s.met),
	)

	root := s.app(rt)
	rend.Mount(r.Context(), root, host.Root())
	if err := host.Flush(); err != nil {
		s.logger.Error("initial flush failed", "error", err)
		return
	}
	s.logger.Info("session started", "remote", conn.RemoteAddr().String())
	defer func() {
		rend.Unmount(root)
		s.logger.Info("session ended", "remote", conn.RemoteAddr().String())
	}()

	conn.SetReadLimit(FrameHeaderSize + MaxPayloadSize)
	resetReadDeadline := func() {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.Serve.ReadTimeout))
	}
	resetReadDeadline()
	conn.SetPongHandler(func(string) error {
		resetReadDeadline()
		return nil
	})

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sink.writeControl(websocket.PingMessage); err != nil {
					return
				}
			case <-stop:
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("read failed", "error", err)
			}
			return
		}
		resetReadDeadline()

		frame, err := DecodeFrame(data)
		if err != nil {
			s.logger.Warn("dropping malformed frame", "error", err)
			continue
		}

		switch frame.Type {
		case FrameEvent:
			if err := s.handleEvent(host, rt, frame.Payload); err != nil {
				s.logger.Warn("event handling failed", "error", err)
			}
		case FramePing:
			// Client-level liveness probe; the read deadline reset above
			// is the whole effect.
		default:
			s.logger.Warn("unexpected frame", "type", frame.Type.String())
		}
	}
}

// handleEvent dispatches one client event, runs the resulting reactive
// jobs, and ships the accumulated mutations.
func (s *Server) handleEvent(host *Host, rt *reactive.Runtime, payload []byte) error {
	if err := host.HandleEventFrame(payload); err != nil {
		return err
	}
	for rt.Scheduler().HasPending() {
		rt.Scheduler().Flush()
	}
	return host.Flush()
}
