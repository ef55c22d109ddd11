package statusws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/phinze/inviscam/internal/coordinator"
)

// Service is the service the server reports on and drives.
type Service interface {
	Snapshot() coordinator.Status
	// Subscribe calls fn with every new status until cancelled.
	Subscribe(fn func(coordinator.Status)) (cancel func())
	// Command runs cmd and reports whether it was accepted.
	Command(ctx context.Context, cmd Command) error
}

// Command is an inbound client request:
//
//	{"type":"action","action":"take_picture"}
//	{"type":"start","profile":"mirror"}
//	{"type":"stop"}
type Command struct {
	Type    string `json:"type"`
	Action  string `json:"action,omitempty"`
	Profile string `json:"profile,omitempty"`
	Force   bool   `json:"force,omitempty"`
}

// envelope is the wire format of every outbound frame.
type envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

type commandResult struct {
	Command string `json:"command"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

func marshalEnvelope(typ string, data any) ([]byte, error) {
	now := time.Now().UTC()
	return json.Marshal(envelope{Type: typ, Ts: &now, Data: data})
}

// Server serves /ws, /status and /preview.mjpeg.
type Server struct {
	logger  *slog.Logger
	hub     *Hub
	svc     Service
	preview *Stream
}

// ServerConfig configures a Server.
type ServerConfig struct {
	Hub HubConfig
}

// NewServer constructs a server. preview may be nil when no frames are
// streamed.
func NewServer(svc Service, preview *Stream, cfg ServerConfig, logger *slog.Logger) *Server {
	logger = logger.With("component", "statusws")
	return &Server{
		logger:  logger,
		hub:     NewHub(logger, cfg.Hub),
		svc:     svc,
		preview: preview,
	}
}

// Hub returns the client hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/status", s.handleStatus)
	if s.preview != nil {
		mux.HandleFunc("/preview.mjpeg", s.preview.Handler)
	}
	return mux
}

// Broadcast runs the hub and forwards status changes to it until ctx is
// canceled.
func (s *Server) Broadcast(ctx context.Context) {
	cancel := s.svc.Subscribe(func(st coordinator.Status) {
		msg, err := marshalEnvelope("status", st)
		if err != nil {
			s.logger.Warn("ws broadcaster marshal failed", "error", err)
			return
		}
		s.hub.BroadcastBytes(msg)
	})
	defer cancel()
	s.hub.Run(ctx)
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("status server: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("status server listening", "addr", ln.Addr().String())

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		// Preview streams end when ctx does.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go s.Broadcast(ctx)

	errCh := make(chan error, 1)
	go func() {
		// Serve returns http.ErrServerClosed on Shutdown; treat that as clean exit.
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("status server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("status server shutdown: %w", err)
		}
		<-errCh
		return nil

	case err := <-errCh:
		return err
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.svc.Snapshot()); err != nil {
		s.logger.Warn("writing status", "error", err)
	}
}

// handleWS upgrades and registers a client, then sends status_init.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn, r.RemoteAddr, s.logger)
	client.onMessage = s.handleMessage

	// Queue the snapshot before registering so it is the first frame.
	if msg, err := marshalEnvelope("status_init", s.svc.Snapshot()); err == nil {
		client.send <- msg
	}
	s.hub.register <- client

	// The pumps outlive the request context; the hub and connection errors
	// end them.
	go client.writePump()
	go client.readPump()
}

func (s *Server) handleMessage(c *Client, msg []byte) {
	var cmd Command
	res := commandResult{}
	if err := json.Unmarshal(msg, &cmd); err != nil {
		res.Error = "invalid command: " + err.Error()
	} else {
		res.Command = cmd.Type
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := s.svc.Command(ctx, cmd)
		cancel()
		if err != nil {
			res.Error = err.Error()
		} else {
			res.OK = true
		}
	}
	if res.Error != "" {
		s.logger.Info("ws command rejected", "remote_addr", c.remoteAddr, "command", res.Command, "error", res.Error)
	}
	out, err := marshalEnvelope("command_result", res)
	if err != nil {
		return
	}
	c.Send(out)
}
