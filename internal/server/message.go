package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/lox/homegame/internal/game"
	"github.com/lox/homegame/internal/lobby"
	"github.com/lox/homegame/internal/showdown"
	"github.com/lox/homegame/internal/store"
	"github.com/lox/homegame/internal/table"
	"github.com/lox/homegame/poker"
)

// Message is the envelope for every websocket frame in either direction.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a message with the current timestamp.
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server

type JoinData struct {
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
}

type ActionData struct {
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

type SetBoardData struct {
	Cards []string `json:"cards"`
}

type SettingsData struct {
	SmallBlind  int `json:"smallBlind"`
	BigBlind    int `json:"bigBlind"`
	TurnSeconds int `json:"turnSeconds"`
}

// Server → Client

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StateData is one viewer's picture of the table.
type StateData struct {
	You     string         `json:"you,omitempty"`
	Table   table.Snapshot `json:"table"`
	Members []lobby.Member `json:"members"`
}

// TableInfo summarises a table for listings.
type TableInfo struct {
	ID          string `json:"id"`
	Players     int    `json:"players"`
	HandNumber  int    `json:"handNumber"`
	InProgress  bool   `json:"inProgress"`
	SmallBlind  int    `json:"smallBlind"`
	BigBlind    int    `json:"bigBlind"`
	TurnSeconds int    `json:"turnSeconds"`
}

// Error codes sent to clients.
const (
	CodeInvalidMessage   = "invalid_message"
	CodeUnknownType      = "unknown_message_type"
	CodeNotJoined        = "not_joined"
	CodeIllegalAction    = "illegal_action"
	CodeNotEnoughPlayers = "not_enough_players"
	CodeHandInProgress   = "hand_in_progress"
	CodeInvalidSettings  = "invalid_settings"
	CodeInvalidBoard     = "invalid_board"
	CodeTableFull        = "table_full"
	CodeNotSeated        = "not_seated"
	CodeInvalidName      = "invalid_name"
	CodeConflict         = "conflict"
	CodeUnavailable      = "unavailable"
	CodeInternal         = "internal_error"
)

// errorCode maps an error from the table, lobby or engine to a client code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrIllegalAction):
		return CodeIllegalAction
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return CodeNotEnoughPlayers
	case errors.Is(err, table.ErrHandInProgress):
		return CodeHandInProgress
	case errors.Is(err, table.ErrInvalidSettings):
		return CodeInvalidSettings
	case errors.Is(err, poker.ErrInvalidCard),
		errors.Is(err, showdown.ErrDuplicateCard),
		errors.Is(err, showdown.ErrInvalidBoard):
		return CodeInvalidBoard
	case errors.Is(err, lobby.ErrTableFull):
		return CodeTableFull
	case errors.Is(err, lobby.ErrNotSeated):
		return CodeNotSeated
	case errors.Is(err, lobby.ErrInvalidName):
		return CodeInvalidName
	case errors.Is(err, store.ErrVersionConflict):
		return CodeConflict
	case errors.Is(err, table.ErrClosed):
		return CodeUnavailable
	default:
		return CodeInternal
	}
}
