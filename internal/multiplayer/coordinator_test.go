package multiplayer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/event"
	"quiz-arena-service/internal/matchmaking"
	"quiz-arena-service/internal/powerup"
	"quiz-arena-service/internal/timer"
)

type message struct {
	playerID string
	msgType  string
	payload  any
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []message
}

func (n *recordingNotifier) Notify(playerID, msgType string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message{playerID: playerID, msgType: msgType, payload: payload})
}

func (n *recordingNotifier) to(playerID string) []message {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []message
	for _, m := range n.messages {
		if m.playerID == playerID {
			out = append(out, m)
		}
	}
	return out
}

func (n *recordingNotifier) types(playerID string) []string {
	var out []string
	for _, m := range n.to(playerID) {
		out = append(out, m.msgType)
	}
	return out
}

func (n *recordingNotifier) last(playerID, msgType string) (any, bool) {
	msgs := n.to(playerID)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].msgType == msgType {
			return msgs[i].payload, true
		}
	}
	return nil, false
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) completions() []domain.Completion {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Completion
	for _, e := range p.events {
		if c, ok := e.(domain.EventSessionCompleted); ok {
			out = append(out, c.Completion)
		}
	}
	return out
}

type fakeRegistry struct {
	mu    sync.Mutex
	rooms map[string][2]string
}

func (r *fakeRegistry) Register(_ context.Context, roomID string, players [2]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[roomID] = players
	return nil
}

func (r *fakeRegistry) Unregister(_ context.Context, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, roomID)
	return nil
}

func (r *fakeRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

func battleQuestions(n int) []domain.Question {
	out := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Question{
			ID:                 string(rune('a' + i)),
			Text:               "q",
			Options:            []string{"w", "x", "y", "z"},
			CorrectAnswerIndex: 1,
			Explanation:        "because",
			Category:           "science",
			Points:             100,
			TimeLimitSeconds:   3,
		})
	}
	return out
}

func pairing() matchmaking.Pairing {
	return matchmaking.Pairing{
		First:  domain.QueueEntry{PlayerID: "alice", PlayerName: "Alice", Category: "science", Difficulty: "easy"},
		Second: domain.QueueEntry{PlayerID: "bob", PlayerName: "Bob", Category: "science", Difficulty: "easy"},
	}
}

type fixture struct {
	coord     *Coordinator
	notifier  *recordingNotifier
	publisher *recordingPublisher
	registry  *fakeRegistry
	tickers   *timer.ManualFactory
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
		registry:  &fakeRegistry{rooms: make(map[string][2]string)},
		tickers:   timer.NewManualFactory(),
	}
	f.coord = NewCoordinator(
		Config{StartingCoins: 100, RevealSeconds: 1},
		powerup.NewCatalog(powerup.Config{}),
		f.notifier,
		f.publisher,
		WithTickerFactory(f.tickers.New),
		WithRegistry(f.registry),
	)
	t.Cleanup(f.coord.Shutdown)
	return f
}

func (f fixture) start(t *testing.T, n int) (string, *timer.Manual) {
	t.Helper()
	roomID, err := f.coord.CreateRoom(context.Background(), pairing(), battleQuestions(n))
	require.NoError(t, err)
	tk, ok := f.tickers.Next(time.Second)
	require.True(t, ok)
	return roomID, tk
}

func (f fixture) sync(t *testing.T, roomID string) Snapshot {
	t.Helper()
	snap, err := f.coord.Snapshot(context.Background(), roomID)
	require.NoError(t, err)
	return snap
}

func (f fixture) waitClosed(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool { return f.coord.Active() == 0 }, time.Second, 10*time.Millisecond)
}

func TestCoordinatorGameFound(t *testing.T) {
	f := newFixture(t)
	roomID, _ := f.start(t, 2)

	for _, id := range []string{"alice", "bob"} {
		payload, ok := f.notifier.last(id, domain.MsgGameFound)
		require.True(t, ok, id)
		found := payload.(GameFound)
		assert.Equal(t, roomID, found.RoomID)
		assert.Len(t, found.Questions, 2)
		assert.Equal(t, 100, found.Coins)
		assert.Equal(t, map[powerup.Kind]int{
			powerup.FiftyFifty:   75,
			powerup.DoublePoints: 60,
			powerup.Hint:         25,
		}, found.PowerUps)
	}
	aliceFound, _ := f.notifier.last("alice", domain.MsgGameFound)
	assert.Equal(t, "bob", aliceFound.(GameFound).Opponent.ID)

	got, ok := f.coord.RoomOf("bob")
	require.True(t, ok)
	assert.Equal(t, roomID, got)
	assert.Equal(t, 1, f.registry.len())

	_, err := f.coord.CreateRoom(context.Background(), pairing(), battleQuestions(1))
	assert.ErrorIs(t, err, domain.ErrAlreadyInRoom)

	_, err = f.coord.CreateRoom(context.Background(), matchmaking.Pairing{
		First:  domain.QueueEntry{PlayerID: "carol"},
		Second: domain.QueueEntry{PlayerID: "dave"},
	}, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyQuestionSet)
}

func TestCoordinatorFullBattle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roomID, tk := f.start(t, 2)

	ok, err := f.coord.SubmitAnswer(ctx, roomID, "alice", 0, 1, 2)
	require.NoError(t, err)
	require.True(t, ok)

	_, seen := f.notifier.last("bob", domain.MsgOpponentAnswered)
	assert.True(t, seen, "bob must learn alice answered")

	ok, err = f.coord.SubmitAnswer(ctx, roomID, "alice", 0, 2, 2)
	require.NoError(t, err)
	assert.False(t, ok, "duplicate answer is ignored")

	ok, err = f.coord.SubmitAnswer(ctx, roomID, "bob", 1, 1, 2)
	require.NoError(t, err)
	assert.False(t, ok, "answer for a future question is ignored")

	ok, err = f.coord.SubmitAnswer(ctx, "", "bob", 0, 3, 2)
	require.NoError(t, err)
	require.True(t, ok)

	snap := f.sync(t, roomID)
	assert.Equal(t, domain.RoomRoundResolved, snap.State)

	payload, ok := f.notifier.last("bob", domain.MsgQuestionResults)
	require.True(t, ok)
	results := payload.(QuestionResults)
	assert.Equal(t, 1, results.CorrectAnswer)
	assert.Equal(t, "because", results.Explanation)
	require.Len(t, results.Results, 2)
	assert.True(t, results.Results[0].IsCorrect)
	assert.Equal(t, 100, results.Results[0].PointsAwarded)
	assert.False(t, results.Results[1].IsCorrect)

	require.True(t, tk.Tick())
	snap = f.sync(t, roomID)
	assert.Equal(t, domain.RoomInProgress, snap.State)
	assert.Equal(t, 1, snap.CurrentIndex)
	next, ok := f.notifier.last("alice", domain.MsgNextQuestion)
	require.True(t, ok)
	assert.Equal(t, 1, next.(NextQuestion).QuestionIndex)

	ok, err = f.coord.SubmitAnswer(ctx, roomID, "alice", 1, 1, 2)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = f.coord.SubmitAnswer(ctx, roomID, "bob", 1, 1, 2)
	require.NoError(t, err)
	require.True(t, ok)

	require.True(t, tk.Tick())
	f.waitClosed(t)

	payload, ok = f.notifier.last("alice", domain.MsgGameFinished)
	require.True(t, ok)
	finished := payload.(GameFinished)
	assert.Equal(t, "alice", finished.Winner)
	assert.False(t, finished.Tie)
	assert.Equal(t, ReasonCompleted, finished.Reason)
	require.Len(t, finished.Players, 2)
	assert.Equal(t, 200, finished.Players[0].Score)
	assert.Equal(t, 100, finished.Players[1].Score)

	completions := f.publisher.completions()
	require.Len(t, completions, 2)
	for _, c := range completions {
		assert.Equal(t, roomID, c.RunID)
		assert.Equal(t, domain.ModeMultiplayer, c.Mode)
		assert.Equal(t, 2, c.QuestionsAnswered)
	}
	assert.Equal(t, 0, f.registry.len())

	_, err = f.coord.SubmitAnswer(ctx, roomID, "alice", 1, 1, 0)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.True(t, IsRecoverable(err))
}

func TestCoordinatorSharedTimeoutAndTie(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roomID, tk := f.start(t, 1)

	for i := 0; i < 3; i++ {
		require.True(t, tk.Tick())
	}
	snap := f.sync(t, roomID)
	assert.Equal(t, domain.RoomRoundResolved, snap.State)

	ok, err := f.coord.SubmitAnswer(ctx, roomID, "alice", 0, 1, 0)
	require.NoError(t, err)
	assert.False(t, ok, "answer after the shared timeout is ignored")

	payload, ok := f.notifier.last("alice", domain.MsgQuestionResults)
	require.True(t, ok)
	for _, a := range payload.(QuestionResults).Results {
		assert.True(t, a.TimedOut)
		assert.Equal(t, 0, a.PointsAwarded)
	}

	require.True(t, tk.Tick())
	f.waitClosed(t)

	payload, ok = f.notifier.last("bob", domain.MsgGameFinished)
	require.True(t, ok)
	finished := payload.(GameFinished)
	assert.True(t, finished.Tie)
	assert.Empty(t, finished.Winner)
}

func TestCoordinatorDisconnect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roomID, tk := f.start(t, 3)

	f.coord.Disconnect(ctx, "bob")
	<-tk.Stopped()
	f.waitClosed(t)

	assert.Equal(t, []string{
		domain.MsgGameFound,
		domain.MsgOpponentDisconnected,
		domain.MsgGameFinished,
	}, f.notifier.types("alice"))

	payload, _ := f.notifier.last("alice", domain.MsgGameFinished)
	finished := payload.(GameFinished)
	assert.Equal(t, "alice", finished.Winner)
	assert.Equal(t, ReasonDisconnected, finished.Reason)

	completions := f.publisher.completions()
	require.Len(t, completions, 1)
	assert.Equal(t, "alice", completions[0].PlayerID)

	_, found := f.coord.RoomOf("alice")
	assert.False(t, found)
	_, err := f.coord.Snapshot(ctx, roomID)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	f.coord.Disconnect(ctx, "alice")
}

func TestCoordinatorPowerUps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roomID, _ := f.start(t, 2)

	_, err := f.coord.UsePowerUp(ctx, roomID, "alice", powerup.TimeFreeze)
	assert.ErrorIs(t, err, domain.ErrUnavailableInMode)
	_, err = f.coord.UsePowerUp(ctx, roomID, "alice", powerup.ExtraLife)
	assert.ErrorIs(t, err, domain.ErrUnavailableInMode)

	effect, err := f.coord.UsePowerUp(ctx, roomID, "alice", powerup.FiftyFifty)
	require.NoError(t, err)
	assert.Equal(t, 0, effect.RemovedOption)
	assert.Equal(t, 25, effect.CoinsLeft)

	_, err = f.coord.UsePowerUp(ctx, roomID, "alice", powerup.FiftyFifty)
	assert.ErrorIs(t, err, domain.ErrAlreadyUsedOnQuestion)

	_, err = f.coord.UsePowerUp(ctx, roomID, "alice", powerup.Hint)
	require.NoError(t, err)
	_, err = f.coord.UsePowerUp(ctx, roomID, "alice", powerup.Hint)
	assert.ErrorIs(t, err, domain.ErrInsufficientCoins)

	_, err = f.coord.UsePowerUp(ctx, roomID, "mallory", powerup.Hint)
	assert.ErrorIs(t, err, domain.ErrPlayerNotInRoom)

	_, err = f.coord.UsePowerUp(ctx, roomID, "bob", powerup.DoublePoints)
	require.NoError(t, err)
	ok, err := f.coord.SubmitAnswer(ctx, roomID, "bob", 0, 1, 1)
	require.NoError(t, err)
	require.True(t, ok)

	snap := f.sync(t, roomID)
	assert.Equal(t, 0, snap.Players[0].Coins)
	assert.Equal(t, 200, snap.Players[1].Score)

	_, err = f.coord.UsePowerUp(ctx, roomID, "bob", powerup.Hint)
	assert.ErrorIs(t, err, domain.ErrQuestionClosed)
}
