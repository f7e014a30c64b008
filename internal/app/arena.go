package app

import (
	"context"
	"errors"
	"log/slog"

	"quiz-arena-service/internal/content"
	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/matchmaking"
	"quiz-arena-service/internal/multiplayer"
	"quiz-arena-service/internal/powerup"
	"quiz-arena-service/internal/session"
)

// Notifier pushes a message to a connected player.
type Notifier interface {
	Notify(playerID, msgType string, payload any)
}

const (
	QueueWaiting = "waiting"
	QueueMatched = "matched"
	QueueLeft    = "left"
)

// QueueStatus is the queue-status payload.
type QueueStatus struct {
	Status     string `json:"status"`
	Category   string `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Waiting    int    `json:"waiting,omitempty"`
}

// StartRequest asks for a solo run.
type StartRequest struct {
	Mode       string `json:"mode"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

type Config struct {
	// QuestionCount is the set size for multiplayer rooms and the default for solo runs.
	QuestionCount int
}

// ArenaService routes player commands to matchmaking, solo sessions and
// multiplayer rooms.
type ArenaService struct {
	cfg      Config
	queue    *matchmaking.Queue
	sessions *session.Manager
	rooms    *multiplayer.Coordinator
	content  content.Generator
	notifier Notifier
	logger   *slog.Logger
}

func NewArenaService(cfg Config, queue *matchmaking.Queue, sessions *session.Manager, rooms *multiplayer.Coordinator, gen content.Generator, notifier Notifier, logger *slog.Logger) *ArenaService {
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = content.DefaultCount
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ArenaService{
		cfg:      cfg,
		queue:    queue,
		sessions: sessions,
		rooms:    rooms,
		content:  gen,
		notifier: notifier,
		logger:   logger,
	}
}

// JoinQueue enqueues the player. A compatible waiting player is paired
// immediately and a room is created for both; otherwise the player is told
// to wait.
func (s *ArenaService) JoinQueue(ctx context.Context, entry domain.QueueEntry) error {
	if _, busy := s.rooms.RoomOf(entry.PlayerID); busy {
		return domain.ErrAlreadyInRoom
	}
	pairing, err := s.queue.Enqueue(entry)
	if err != nil {
		return err
	}
	if pairing == nil {
		s.notifier.Notify(entry.PlayerID, domain.MsgQueueStatus, QueueStatus{
			Status:     QueueWaiting,
			Category:   entry.Category,
			Difficulty: entry.Difficulty,
			Waiting:    s.queue.Len(),
		})
		return nil
	}

	questions, err := content.Load(ctx, s.content, content.Request{
		Subject:    pairing.First.Category,
		Difficulty: pairing.First.Difficulty,
		Mode:       domain.ModeMultiplayer,
		Count:      s.cfg.QuestionCount,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "match content failed", "first", pairing.First.PlayerID, "second", pairing.Second.PlayerID, "error", err)
		s.notifier.Notify(pairing.First.PlayerID, domain.MsgError, ErrorPayload(err))
		return err
	}
	if _, err := s.rooms.CreateRoom(ctx, *pairing, questions); err != nil {
		s.notifier.Notify(pairing.First.PlayerID, domain.MsgError, ErrorPayload(err))
		return err
	}
	return nil
}

// LeaveQueue removes a waiting player. Leaving when not queued reports
// domain.ErrQueueEntryNotFound.
func (s *ArenaService) LeaveQueue(_ context.Context, playerID string) error {
	if !s.queue.Leave(playerID) {
		return domain.ErrQueueEntryNotFound
	}
	s.notifier.Notify(playerID, domain.MsgQueueStatus, QueueStatus{Status: QueueLeft})
	return nil
}

// SubmitRoomAnswer records a multiplayer answer. Submissions for rooms that
// already finished are treated as ignored.
func (s *ArenaService) SubmitRoomAnswer(ctx context.Context, roomID, playerID string, questionIndex, selected, timeRemaining int) (bool, error) {
	ok, err := s.rooms.SubmitAnswer(ctx, roomID, playerID, questionIndex, selected, timeRemaining)
	if err != nil && multiplayer.IsRecoverable(err) {
		return false, nil
	}
	return ok, err
}

// UsePowerUp applies kind to the player's active room when there is one, and
// to their solo session otherwise.
func (s *ArenaService) UsePowerUp(ctx context.Context, roomID, playerID, kind string) (powerup.Effect, error) {
	k, err := powerup.ParseKind(kind)
	if err != nil {
		return powerup.Effect{}, err
	}
	if roomID == "" {
		roomID, _ = s.rooms.RoomOf(playerID)
	}
	if roomID != "" {
		return s.rooms.UsePowerUp(ctx, roomID, playerID, k)
	}
	return s.sessions.UsePowerUp(ctx, playerID, k)
}

func (s *ArenaService) StartSession(ctx context.Context, playerID string, req StartRequest) (domain.SessionSnapshot, error) {
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	if mode == domain.ModeMultiplayer {
		return domain.SessionSnapshot{}, domain.ErrInvalidMode
	}
	count := req.Count
	if count <= 0 {
		count = s.cfg.QuestionCount
	}
	return s.sessions.StartSession(ctx, playerID, mode, content.Request{
		Subject:    req.Category,
		Difficulty: req.Difficulty,
		Count:      count,
	})
}

func (s *ArenaService) Answer(ctx context.Context, playerID string, selected int) (domain.Answer, bool, error) {
	return s.sessions.SubmitAnswer(ctx, playerID, selected)
}

func (s *ArenaService) Next(ctx context.Context, playerID string) (bool, error) {
	return s.sessions.Advance(ctx, playerID)
}

func (s *ArenaService) Quit(ctx context.Context, playerID string) error {
	return s.sessions.Quit(ctx, playerID)
}

func (s *ArenaService) SessionSnapshot(ctx context.Context, playerID string) (domain.SessionSnapshot, error) {
	return s.sessions.Snapshot(ctx, playerID)
}

// Disconnect drops the player from the queue and forfeits their room. A solo
// session keeps running on server timers.
func (s *ArenaService) Disconnect(ctx context.Context, playerID string) {
	s.queue.OnDisconnect(playerID)
	s.rooms.Disconnect(ctx, playerID)
}

// ErrorPayload is the error message body sent to clients. Only sentinel
// messages are exposed.
func ErrorPayload(err error) map[string]string {
	msg := "internal error"
	var e *domain.Error
	if errors.As(err, &e) {
		msg = e.Msg
	}
	return map[string]string{
		"kind":    domain.KindOf(err).String(),
		"message": msg,
	}
}
