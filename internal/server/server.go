// Package server exposes tables over HTTP and websockets. Clients join a
// table's lobby, submit commands, and receive a state message after every
// change, with other players' hole cards hidden.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/lox/homegame/internal/lobby"
	"github.com/lox/homegame/internal/table"
)

const shutdownTimeout = 5 * time.Second

// Room pairs a table with the lobby that seats its players.
type Room struct {
	Table *table.Table
	Lobby *lobby.Lobby
}

// Info summarises the room for listings.
func (r *Room) Info() TableInfo {
	snap := r.Table.Snapshot()
	return TableInfo{
		ID:          r.Table.ID(),
		Players:     len(r.Lobby.Members()),
		HandNumber:  snap.HandNumber,
		InProgress:  snap.InProgress(),
		SmallBlind:  snap.SmallBlind,
		BigBlind:    snap.BigBlind,
		TurnSeconds: snap.TurnSeconds,
	}
}

// Server serves the rooms it was created with.
type Server struct {
	addr      string
	rooms     map[string]*Room
	upgrader  websocket.Upgrader
	logger    *log.Logger
	accessLog io.Writer

	mu          sync.RWMutex
	connections map[*Connection]struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithAccessLog sets where combined-format access logs go. Default stdout.
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) { s.accessLog = w }
}

// NewServer creates a server listening on addr.
func NewServer(addr string, rooms []*Room, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		addr:  addr,
		rooms: make(map[string]*Room, len(rooms)),
		upgrader: websocket.Upgrader{
			// Cross-origin policy is enforced by the CORS handler.
			CheckOrigin:     func(*http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger.WithPrefix("server"),
		accessLog:   os.Stdout,
		connections: make(map[*Connection]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, r := range rooms {
		s.rooms[r.Table.ID()] = r
	}
	return s
}

// Handler returns the HTTP routes wrapped in recovery, CORS and access
// logging.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/tables", s.handleListTables).Methods(http.MethodGet)
	r.HandleFunc("/tables/{id}", s.handleGetTable).Methods(http.MethodGet)
	r.HandleFunc("/tables/{id}/ws", s.handleWebSocket)

	c := cors.New(cors.Options{
		AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With"},
		AllowedMethods: []string{http.MethodGet},
	})
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel})))
	return handlers.CombinedLoggingHandler(s.accessLog, recovery(c.Handler(r)))
}

// Run runs every table and serves HTTP until ctx is cancelled or either
// fails.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, room := range s.rooms {
		g.Go(func() error {
			if err := room.Table.Run(ctx); err != nil {
				return fmt.Errorf("table %s: %w", room.Table.ID(), err)
			}
			return nil
		})
	}

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		s.logger.Info("Starting server", "addr", s.addr, "tables", len(s.rooms))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.closeConnections()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) room(r *http.Request) (*Room, bool) {
	room, ok := s.rooms[mux.Vars(r)["id"]]
	return room, ok
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "OK")
}

func (s *Server) handleListTables(w http.ResponseWriter, _ *http.Request) {
	tables := make([]TableInfo, 0, len(s.rooms))
	for _, room := range s.rooms {
		tables = append(tables, room.Info())
	}
	slices.SortFunc(tables, func(a, b TableInfo) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	writeJSON(w, http.StatusOK, tables)
}

// handleGetTable returns the table as a spectator sees it.
func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	room, ok := s.room(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorData{Code: "not_found", Message: "no such table"})
		return
	}
	writeJSON(w, http.StatusOK, StateData{
		Table:   room.Table.Snapshot().For(""),
		Members: room.Lobby.Members(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	room, ok := s.room(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, room, s, s.logger)
	s.register(client)
	client.Start()

	go func() {
		<-client.ctx.Done()
		s.unregister(client)
	}()
}

func (s *Server) register(c *Connection) {
	s.mu.Lock()
	s.connections[c] = struct{}{}
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "table", c.room.Table.ID(), "conn", c.id, "total", total)
}

func (s *Server) unregister(c *Connection) {
	s.mu.Lock()
	delete(s.connections, c)
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client disconnected", "table", c.room.Table.ID(), "conn", c.id, "participant", c.Participant(), "total", total)
}

func (s *Server) closeConnections() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.connections {
		_ = c.Close()
	}
}

// refresh sends the current state to every connection watching room. Lobby
// changes do not pass through the table, so they are pushed from here.
func (s *Server) refresh(room *Room) {
	snap := room.Table.Snapshot()
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.connections {
		if c.room == room {
			c.sendState(snap, "")
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
