package protocol

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/Alexyali/rtc-signal-server/domain"
)

// Handler routes inbound frames to directory operations by event type.
type Handler struct {
	directory domain.Directory
	routes    map[string]func(domain.Connection, domain.Frame, []byte)
}

func NewHandler(d domain.Directory) *Handler {
	h := &Handler{directory: d}
	h.routes = map[string]func(domain.Connection, domain.Frame, []byte){
		"join":    h.join,
		"leave":   h.leave,
		"message": h.message,
	}
	return h
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var frame domain.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		slog.Warn("invalid frame", "connection", conn.ID(), "error", err)
		return
	}

	route, ok := h.routes[frame.Type]
	if !ok {
		slog.Warn("unknown event type", "connection", conn.ID(), "type", frame.Type)
		return
	}
	route(conn, frame, data)
}

func (h *Handler) join(conn domain.Connection, frame domain.Frame, _ []byte) {
	if err := h.directory.Join(conn, frame.UserID, frame.RoomID); err != nil {
		h.reject(conn, err)
	}
}

func (h *Handler) leave(conn domain.Connection, frame domain.Frame, _ []byte) {
	if err := h.directory.Leave(conn, frame.UserID, frame.RoomID); err != nil {
		h.reject(conn, err)
	}
}

// message frames are relayed verbatim, payload and all.
func (h *Handler) message(conn domain.Connection, frame domain.Frame, data []byte) {
	h.directory.Relay(conn, frame.RoomID, data)
}

func (h *Handler) reject(conn domain.Connection, err error) {
	if !errors.Is(err, domain.ErrValidation) {
		slog.Error("directory operation failed", "connection", conn.ID(), "error", err)
		return
	}
	resp, merr := json.Marshal(domain.Event{Type: "error", Message: err.Error()})
	if merr != nil {
		return
	}
	conn.Send(resp)
}
