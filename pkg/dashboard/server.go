package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gwillem/algae/internal/log"
	"github.com/gwillem/algae/pkg/intake"
)

// Commander accepts operator requests. teleop.Controller satisfies it.
type Commander interface {
	RequestMode(m intake.Mode)
	Idle()
}

// Snapshot is the JSON body of /api/telemetry and of every websocket frame.
type Snapshot struct {
	Session string             `json:"session"`
	Updated time.Time          `json:"updated"`
	Values  map[string]float64 `json:"values"`
}

// ModeResponse acknowledges a mode request.
type ModeResponse struct {
	Mode string `json:"mode"`
}

// ErrResponse renders an API error.
type ErrResponse struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	StatusText     string `json:"status"`
	ErrorText      string `json:"error,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// ErrInvalidRequest is returned for unparseable requests.
func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

// Server serves the telemetry table and forwards mode requests.
type Server struct {
	table    *Table
	cmd      Commander
	session  string
	upgrader websocket.Upgrader
	router   chi.Router
	log      *slog.Logger
}

// NewServer builds the routes. Each server gets a fresh session id so
// clients can tell a restarted intake from a reconnect.
func NewServer(table *Table, cmd Commander) *Server {
	s := &Server{
		table:   table,
		cmd:     cmd,
		session: uuid.NewString(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.log = log.With("component", "dashboard", "session", s.session)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/telemetry", s.handleTelemetry)
		r.Post("/mode/{mode}", s.handleMode)
		r.Post("/idle", s.handleIdle)
	})
	r.Get("/ws", s.handleWS)

	s.router = r
	return s
}

// Session returns the server's session id.
func (s *Server) Session() string {
	return s.session
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("dashboard listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) snapshot() Snapshot {
	values, updated := s.table.Snapshot()
	return Snapshot{Session: s.session, Updated: updated, Values: values}
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.snapshot())
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	m, err := intake.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	s.cmd.RequestMode(m)
	s.log.Debug("mode requested", "mode", m, "remote", r.RemoteAddr)
	render.JSON(w, r, ModeResponse{Mode: m.String()})
}

func (s *Server) handleIdle(w http.ResponseWriter, r *http.Request) {
	s.cmd.Idle()
	render.NoContent(w, r)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	updates, unsubscribe := s.table.Subscribe()
	defer unsubscribe()

	// Reads only detect the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(s.snapshot()); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-updates:
			conn.SetWriteDeadline(time.Now().Add(time.Second))
			if err := conn.WriteJSON(s.snapshot()); err != nil {
				s.log.Debug("websocket write", "error", err)
				return
			}
		}
	}
}
