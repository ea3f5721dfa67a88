package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/homegame/internal/game"
	"github.com/lox/homegame/internal/table"
	"github.com/lox/homegame/poker"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Time allowed for a command to pass through the table
	commandTimeout = 10 * time.Second
)

// ErrConnectionClosed is returned when sending to a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// Connection is one websocket client watching a room. Once it has joined,
// its commands act for that participant.
type Connection struct {
	id     string
	conn   *websocket.Conn
	room   *Room
	server *Server
	send   chan *Message
	logger *log.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu          sync.RWMutex
	participant string
}

// NewConnection wraps conn for room.
func NewConnection(conn *websocket.Conn, room *Room, server *Server, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	return &Connection{
		id:     id,
		conn:   conn,
		room:   room,
		server: server,
		send:   make(chan *Message, 64),
		logger: logger.WithPrefix("conn").With("conn", id, "table", room.Table.ID()),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins handling the connection.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
	go c.watch()
}

// Close closes the connection.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// Participant returns the joined participant, or "" for a spectator.
func (c *Connection) Participant() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.participant
}

func (c *Connection) setParticipant(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.participant = id
}

// SendMessage queues msg for the client. A client that cannot keep up is
// disconnected.
func (c *Connection) SendMessage(msg *Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// watch forwards every published snapshot to the client.
func (c *Connection) watch() {
	updates, stop := c.room.Table.Subscribe()
	defer stop()
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return
			}
			c.sendState(snap, "")
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) sendState(snap table.Snapshot, requestID string) {
	you := c.Participant()
	msg, err := NewMessage(MessageTypeState, StateData{
		You:     you,
		Table:   snap.For(you),
		Members: c.room.Lobby.Members(),
	})
	if err != nil {
		c.logger.Error("Failed to create state message", "error", err)
		return
	}
	msg.RequestID = requestID
	_ = c.SendMessage(msg)
}

func (c *Connection) sendError(requestID, code, message string) {
	msg, err := NewMessage(MessageTypeError, ErrorData{Code: code, Message: message})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	msg.RequestID = requestID
	_ = c.SendMessage(msg)
}

func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			var syntax *json.SyntaxError
			if errors.As(err, &syntax) {
				c.sendError("", CodeInvalidMessage, "malformed message")
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Debug("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "participant", c.Participant())

	ctx, cancel := context.WithTimeout(c.ctx, commandTimeout)
	defer cancel()

	switch msg.Type {
	case MessageTypeJoin:
		var data JoinData
		if !c.decode(msg, &data) {
			return
		}
		c.handleJoin(ctx, msg.RequestID, data)

	case MessageTypeLeave:
		c.handleLeave(ctx, msg.RequestID)

	case MessageTypeStartHand:
		if !c.joined(msg.RequestID) {
			return
		}
		c.reply(msg.RequestID)(c.room.Table.StartHand(ctx))

	case MessageTypeAction:
		var data ActionData
		if !c.decode(msg, &data) || !c.joined(msg.RequestID) {
			return
		}
		action, err := game.ParseAction(data.Action, data.Amount)
		if err != nil {
			c.fail(msg.RequestID, err)
			return
		}
		c.reply(msg.RequestID)(c.room.Table.Act(ctx, c.Participant(), action))

	case MessageTypeSetBoard:
		var data SetBoardData
		if !c.decode(msg, &data) || !c.joined(msg.RequestID) {
			return
		}
		board, err := poker.ParseTokens(data.Cards)
		if err != nil {
			c.fail(msg.RequestID, err)
			return
		}
		c.logger.Warn("Board override requested", "participant", c.Participant(), "cards", data.Cards)
		c.reply(msg.RequestID)(c.room.Table.SetBoard(ctx, board))

	case MessageTypeSettings:
		var data SettingsData
		if !c.decode(msg, &data) || !c.joined(msg.RequestID) {
			return
		}
		c.reply(msg.RequestID)(c.room.Table.UpdateSettings(ctx, table.Settings{
			SmallBlind:   data.SmallBlind,
			BigBlind:     data.BigBlind,
			TurnDuration: time.Duration(data.TurnSeconds) * time.Second,
		}))

	default:
		c.sendError(msg.RequestID, CodeUnknownType, "unknown message type: "+msg.Type.String())
	}
}

func (c *Connection) decode(msg *Message, v any) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		c.sendError(msg.RequestID, CodeInvalidMessage, "failed to parse "+msg.Type.String()+" data")
		return false
	}
	return true
}

func (c *Connection) joined(requestID string) bool {
	if c.Participant() == "" {
		c.sendError(requestID, CodeNotJoined, "join the table first")
		return false
	}
	return true
}

// reply answers a table command with the resulting state or the error.
func (c *Connection) reply(requestID string) func(table.Snapshot, error) {
	return func(snap table.Snapshot, err error) {
		if err != nil {
			c.fail(requestID, err)
			return
		}
		c.sendState(snap, requestID)
	}
}

func (c *Connection) fail(requestID string, err error) {
	code := errorCode(err)
	if code == CodeInternal {
		c.logger.Error("Command failed", "participant", c.Participant(), "error", err)
	}
	c.sendError(requestID, code, err.Error())
}

func (c *Connection) handleJoin(ctx context.Context, requestID string, data JoinData) {
	member, err := c.room.Lobby.Join(ctx, data.ParticipantID, data.Name)
	if err != nil {
		c.fail(requestID, err)
		return
	}
	c.setParticipant(member.ID)
	c.logger.Info("Joined", "participant", member.ID, "seat", member.Seat, "stack", member.Stack)
	c.sendState(c.room.Table.Snapshot(), requestID)
	c.server.refresh(c.room)
}

func (c *Connection) handleLeave(ctx context.Context, requestID string) {
	id := c.Participant()
	if id == "" {
		c.sendError(requestID, CodeNotJoined, "not joined")
		return
	}
	if err := c.room.Lobby.Leave(ctx, id); err != nil {
		c.fail(requestID, err)
		return
	}
	c.setParticipant("")
	c.logger.Info("Left", "participant", id)
	c.sendState(c.room.Table.Snapshot(), requestID)
	c.server.refresh(c.room)
}
