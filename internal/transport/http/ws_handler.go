package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"quiz-arena-service/internal/app"
	"quiz-arena-service/internal/domain"
)

const writeWait = 10 * time.Second

type WSHandler struct {
	arena    *app.ArenaService
	hub      *app.Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(arena *app.ArenaService, hub *app.Hub, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		arena:  arena,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinQueuePayload struct {
	PlayerName string `json:"playerName"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

type submitAnswerPayload struct {
	RoomID         string `json:"roomId"`
	QuestionIndex  int    `json:"questionIndex"`
	SelectedAnswer *int   `json:"selectedAnswer"`
	TimeRemaining  int    `json:"timeRemaining"`
}

type powerUpPayload struct {
	RoomID string `json:"roomId"`
	Kind   string `json:"kind"`
}

type answerPayload struct {
	SelectedAnswer *int `json:"selectedAnswer"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the arena use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	name := r.URL.Query().Get("name")
	if playerID == "" {
		http.Error(w, "missing playerId", http.StatusBadRequest)
		return
	}
	if name == "" {
		name = playerID
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "player_id", playerID, "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe(playerID)
	defer cancel()

	send := make(chan app.Message, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer: gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write failed", "player_id", playerID, "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case msg, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- msg:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	h.logger.Info("player connected", "player_id", playerID)
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(r.Context(), playerID, name, inbound); err != nil {
			if reply, ok := h.errorReply(playerID, inbound.Type, err); ok {
				select {
				case send <- reply:
				case <-writerDone:
				}
			}
		}
	}
	h.logger.Info("player disconnected", "player_id", playerID)

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone

	// other sockets of the same player keep the room and queue entry alive
	cancel()
	if !h.hub.Connected(playerID) {
		h.arena.Disconnect(context.WithoutCancel(r.Context()), playerID)
	}
}

func (h *WSHandler) dispatch(ctx context.Context, playerID, name string, in inboundMessage) error {
	switch in.Type {
	case domain.MsgJoinQueue:
		var p joinQueuePayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		if p.PlayerName == "" {
			p.PlayerName = name
		}
		return h.arena.JoinQueue(ctx, domain.QueueEntry{
			PlayerID:   playerID,
			PlayerName: p.PlayerName,
			Category:   p.Category,
			Difficulty: p.Difficulty,
		})
	case domain.MsgLeaveQueue:
		return h.arena.LeaveQueue(ctx, playerID)
	case domain.MsgSubmitAnswer:
		var p submitAnswerPayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		if p.SelectedAnswer == nil {
			return errInvalidPayload
		}
		_, err := h.arena.SubmitRoomAnswer(ctx, p.RoomID, playerID, p.QuestionIndex, *p.SelectedAnswer, p.TimeRemaining)
		return err
	case domain.MsgUsePowerUp:
		var p powerUpPayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		_, err := h.arena.UsePowerUp(ctx, p.RoomID, playerID, p.Kind)
		return err
	case domain.MsgStartSession:
		var p app.StartRequest
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		_, err := h.arena.StartSession(ctx, playerID, p)
		return err
	case domain.MsgAnswer:
		var p answerPayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		if p.SelectedAnswer == nil {
			return errInvalidPayload
		}
		_, _, err := h.arena.Answer(ctx, playerID, *p.SelectedAnswer)
		return err
	case domain.MsgNext:
		_, err := h.arena.Next(ctx, playerID)
		return err
	case domain.MsgQuit:
		return h.arena.Quit(ctx, playerID)
	default:
		return errUnsupported
	}
}

var (
	errUnsupported    = &domain.Error{Kind: domain.KindValidation, Msg: "unsupported message type"}
	errInvalidPayload = &domain.Error{Kind: domain.KindValidation, Msg: "invalid payload"}
)

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errInvalidPayload
	}
	return nil
}

// errorReply turns err into an error message. Out-of-turn actions and lookups
// of rooms, sessions or queue entries that are already gone are not reported.
func (h *WSHandler) errorReply(playerID, msgType string, err error) (app.Message, bool) {
	switch domain.KindOf(err) {
	case domain.KindState, domain.KindNotFound:
		h.logger.Debug("ignored client action", "player_id", playerID, "type", msgType, "error", err)
		return app.Message{}, false
	case domain.KindUnknown:
		h.logger.Error("client action failed", "player_id", playerID, "type", msgType, "error", err)
	}
	payload := app.ErrorPayload(err)
	payload["request"] = msgType
	return app.Message{Type: domain.MsgError, Payload: payload}, true
}
