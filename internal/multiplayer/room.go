package multiplayer

import (
	"context"
	"log/slog"
	"time"

	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/event"
	"quiz-arena-service/internal/powerup"
	"quiz-arena-service/internal/scoring"
	"quiz-arena-service/internal/timer"
)

// Notifier pushes a message to a connected player.
type Notifier interface {
	Notify(playerID, msgType string, payload any)
}

type Player struct {
	ID   string `json:"playerId"`
	Name string `json:"playerName"`
}

// PlayerResult is one player's standing in a room.
type PlayerResult struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"playerName"`
	Score     int    `json:"score"`
	Correct   int    `json:"correctAnswers"`
	Answered  int    `json:"questionsAnswered"`
	Lives     int    `json:"lives"`
	Streak    int    `json:"streak"`
	Coins     int    `json:"coins"`
	Connected bool   `json:"connected"`
}

type GameFound struct {
	RoomID     string                  `json:"roomId"`
	Opponent   Player                  `json:"opponent"`
	Category   string                  `json:"category"`
	Difficulty string                  `json:"difficulty"`
	Questions  []domain.PublicQuestion `json:"questions"`
	Coins      int                     `json:"coins"`
	PowerUps   map[powerup.Kind]int    `json:"powerUps"`
}

type OpponentAnswered struct {
	PlayerID      string `json:"playerId"`
	QuestionIndex int    `json:"questionIndex"`
}

type QuestionResults struct {
	QuestionIndex int             `json:"questionIndex"`
	Results       []domain.Answer `json:"results"`
	CorrectAnswer int             `json:"correctAnswer"`
	Explanation   string          `json:"explanation"`
	Players       []PlayerResult  `json:"players"`
}

type NextQuestion struct {
	QuestionIndex    int                   `json:"questionIndex"`
	Question         domain.PublicQuestion `json:"question"`
	TimeLimitSeconds int                   `json:"timeLimitSeconds"`
}

const (
	ReasonCompleted    = "completed"
	ReasonDisconnected = "opponent-disconnected"
)

type GameFinished struct {
	Winner  string         `json:"winner,omitempty"`
	Tie     bool           `json:"tie"`
	Reason  string         `json:"reason"`
	Players []PlayerResult `json:"players"`
}

type OpponentDisconnected struct {
	PlayerID string `json:"playerId"`
}

// Snapshot is a read-only view of a room.
type Snapshot struct {
	RoomID         string           `json:"roomId"`
	State          domain.RoomState `json:"state"`
	CurrentIndex   int              `json:"currentIndex"`
	TotalQuestions int              `json:"totalQuestions"`
	TimeRemaining  int              `json:"timeRemaining"`
	Players        []PlayerResult   `json:"players"`
}

type contestant struct {
	Player
	economy    *powerup.State
	score      int
	lives      int
	streak     int
	bestStreak int
	correct    int
	answered   int
	removed    []int
	connected  bool
}

type (
	submitCmd struct {
		playerID      string
		questionIndex int
		selected      int
		timeRemaining int
		reply         chan submitResult
	}
	submitResult struct {
		accepted bool
		err      error
	}
	powerUpCmd struct {
		playerID string
		kind     powerup.Kind
		reply    chan powerUpResult
	}
	powerUpResult struct {
		effect powerup.Effect
		err    error
	}
	disconnectCmd struct {
		playerID string
		reply    chan struct{}
	}
	snapshotCmd struct {
		reply chan Snapshot
	}
)

// Room runs one two player battle on its own goroutine:
// Matched -> InProgress -> (RoundResolved -> InProgress)* -> Finished.
type Room struct {
	id         string
	category   string
	difficulty string
	questions  []domain.Question
	players    [2]*contestant

	state     domain.RoomState
	current   int
	answers   map[int]map[string]domain.Answer
	countdown *timer.Countdown
	reveal    *timer.Countdown

	revealSeconds   int
	catalog         *powerup.Catalog
	now             func() time.Time
	startedAt       time.Time
	questionStarted time.Time

	ticker   timer.Ticker
	notifier Notifier
	events   event.Publisher
	logger   *slog.Logger
	inbox    chan any
	done     chan struct{}
	onExit   func(*Room)
}

type roomParams struct {
	id            string
	category      string
	difficulty    string
	players       [2]Player
	questions     []domain.Question
	startingCoins int
	revealSeconds int
	catalog       *powerup.Catalog
	clock         func() time.Time
	ticker        timer.Ticker
	notifier      Notifier
	events        event.Publisher
	logger        *slog.Logger
}

func newRoom(p roomParams) *Room {
	r := &Room{
		id:            p.id,
		category:      p.category,
		difficulty:    p.difficulty,
		questions:     append([]domain.Question(nil), p.questions...),
		state:         domain.RoomMatched,
		answers:       make(map[int]map[string]domain.Answer),
		countdown:     timer.NewCountdown(),
		reveal:        timer.NewCountdown(),
		revealSeconds: p.revealSeconds,
		catalog:       p.catalog,
		now:           p.clock,
		ticker:        p.ticker,
		notifier:      p.notifier,
		events:        p.events,
		logger:        p.logger.With("room_id", p.id),
		inbox:         make(chan any),
		done:          make(chan struct{}),
	}
	for i, pl := range p.players {
		r.players[i] = &contestant{
			Player:    pl,
			economy:   powerup.NewState(p.startingCoins),
			lives:     domain.ModeMultiplayer.InitialLives(),
			connected: true,
		}
	}
	r.countdown.OnExpire(func() { r.resolve() })
	r.reveal.OnExpire(func() { r.advance() })
	return r
}

func (r *Room) ID() string { return r.id }

func (r *Room) PlayerIDs() [2]string {
	return [2]string{r.players[0].ID, r.players[1].ID}
}

func (r *Room) Done() <-chan struct{} { return r.done }

func (r *Room) gameFound(forIdx int) GameFound {
	opp := r.players[1-forIdx]
	return GameFound{
		RoomID:     r.id,
		Opponent:   opp.Player,
		Category:   r.category,
		Difficulty: r.difficulty,
		Questions:  domain.PublicQuestions(r.questions),
		Coins:      r.players[forIdx].economy.Coins,
		PowerUps:   r.catalog.Prices(domain.ModeMultiplayer),
	}
}

func (r *Room) Run(ctx context.Context) {
	defer func() {
		r.countdown.Cancel()
		r.reveal.Cancel()
		r.ticker.Stop()
		close(r.done)
		if r.onExit != nil {
			r.onExit(r)
		}
	}()

	r.startedAt = r.now()
	r.state = domain.RoomInProgress
	r.beginQuestion()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "room stopped", "state", r.state)
			return
		case cmd := <-r.inbox:
			r.handle(ctx, cmd)
		case <-r.ticker.C():
			switch r.state {
			case domain.RoomInProgress:
				r.countdown.Tick()
			case domain.RoomRoundResolved:
				r.reveal.Tick()
			}
		}

		if r.state == domain.RoomFinished {
			return
		}
	}
}

func (r *Room) handle(ctx context.Context, cmd any) {
	switch c := cmd.(type) {
	case submitCmd:
		ok, err := r.submit(c)
		c.reply <- submitResult{accepted: ok, err: err}
	case powerUpCmd:
		effect, err := r.usePowerUp(ctx, c.playerID, c.kind)
		c.reply <- powerUpResult{effect: effect, err: err}
	case disconnectCmd:
		r.disconnect(c.playerID)
		close(c.reply)
	case snapshotCmd:
		c.reply <- r.snapshot()
	}
}

func (r *Room) player(id string) (int, *contestant) {
	for i, p := range r.players {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

func (r *Room) beginQuestion() {
	for _, p := range r.players {
		p.removed = nil
	}
	r.questionStarted = r.now()
	r.countdown.Start(r.questions[r.current].TimeLimit(domain.ModeMultiplayer))
}

// submit ignores duplicates, stale question indexes and answers outside InProgress.
func (r *Room) submit(c submitCmd) (bool, error) {
	idx, p := r.player(c.playerID)
	if p == nil {
		return false, domain.ErrPlayerNotInRoom
	}
	if r.state != domain.RoomInProgress || c.questionIndex != r.current {
		return false, nil
	}
	if _, done := r.answers[r.current][p.ID]; done {
		return false, nil
	}

	remaining := r.countdown.Remaining()
	if c.timeRemaining >= 0 && c.timeRemaining < remaining {
		remaining = c.timeRemaining
	}
	r.record(p, c.selected, remaining, false)
	r.notifier.Notify(r.players[1-idx].ID, domain.MsgOpponentAnswered, OpponentAnswered{
		PlayerID:      p.ID,
		QuestionIndex: r.current,
	})

	if len(r.answers[r.current]) == len(r.players) {
		r.resolve()
	}
	return true, nil
}

func (r *Room) record(p *contestant, selected, remaining int, timedOut bool) {
	q := r.questions[r.current]
	isCorrect := !timedOut && scoring.IsCorrect(q, selected)
	outcome := scoring.ScoreAnswer(q, isCorrect, p.economy.ConsumeDoublePoints(), p.streak)

	p.score += outcome.PointsAwarded
	p.streak = outcome.NewStreak
	if p.streak > p.bestStreak {
		p.bestStreak = p.streak
	}
	p.lives = scoring.ApplyLives(p.lives, outcome.LivesDelta)
	p.answered++
	if isCorrect {
		p.correct++
	}

	if r.answers[r.current] == nil {
		r.answers[r.current] = make(map[string]domain.Answer, len(r.players))
	}
	r.answers[r.current][p.ID] = domain.Answer{
		QuestionIndex:       r.current,
		PlayerID:            p.ID,
		SelectedIndex:       selected,
		SubmittedAtOffsetMs: r.now().Sub(r.questionStarted).Milliseconds(),
		TimeRemaining:       remaining,
		IsCorrect:           isCorrect,
		PointsAwarded:       outcome.PointsAwarded,
		TimedOut:            timedOut,
	}
}

// resolve closes the current round. Players without an answer time out.
func (r *Room) resolve() {
	if r.state != domain.RoomInProgress {
		return
	}
	r.countdown.Cancel()
	for _, p := range r.players {
		if _, done := r.answers[r.current][p.ID]; !done {
			r.record(p, -1, 0, true)
		}
	}
	r.state = domain.RoomRoundResolved

	q := r.questions[r.current]
	results := make([]domain.Answer, 0, len(r.players))
	for _, p := range r.players {
		results = append(results, r.answers[r.current][p.ID])
	}
	r.broadcast(domain.MsgQuestionResults, QuestionResults{
		QuestionIndex: r.current,
		Results:       results,
		CorrectAnswer: q.CorrectAnswerIndex,
		Explanation:   q.Explanation,
		Players:       r.standings(),
	})
	r.reveal.Start(r.revealSeconds)
}

func (r *Room) advance() {
	if r.state != domain.RoomRoundResolved {
		return
	}
	if r.current >= len(r.questions)-1 {
		r.finish(ReasonCompleted, "")
		return
	}
	r.current++
	r.state = domain.RoomInProgress
	r.beginQuestion()
	q := r.questions[r.current]
	r.broadcast(domain.MsgNextQuestion, NextQuestion{
		QuestionIndex:    r.current,
		Question:         q.Public(),
		TimeLimitSeconds: q.TimeLimit(domain.ModeMultiplayer),
	})
}

func (r *Room) disconnect(playerID string) {
	idx, p := r.player(playerID)
	if p == nil || r.state == domain.RoomFinished || !p.connected {
		return
	}
	p.connected = false
	remaining := r.players[1-idx]
	r.notifier.Notify(remaining.ID, domain.MsgOpponentDisconnected, OpponentDisconnected{PlayerID: playerID})
	r.finish(ReasonDisconnected, remaining.ID)
}

// finish ends the room. A non-empty winner overrides the score comparison.
func (r *Room) finish(reason, winner string) {
	r.countdown.Cancel()
	r.reveal.Cancel()
	r.state = domain.RoomFinished

	a, b := r.players[0], r.players[1]
	tie := false
	if winner == "" {
		switch {
		case a.score > b.score:
			winner = a.ID
		case b.score > a.score:
			winner = b.ID
		default:
			tie = true
		}
	}
	r.broadcast(domain.MsgGameFinished, GameFinished{
		Winner:  winner,
		Tie:     tie,
		Reason:  reason,
		Players: r.standings(),
	})

	ctx := context.Background()
	elapsed := int(r.now().Sub(r.startedAt).Seconds())
	for _, p := range r.players {
		if !p.connected {
			continue
		}
		r.events.Publish(ctx, domain.EventSessionCompleted{Completion: domain.Completion{
			RunID:             r.id,
			PlayerID:          p.ID,
			Mode:              domain.ModeMultiplayer,
			Category:          r.category,
			Score:             p.score,
			QuestionsAnswered: p.answered,
			CorrectAnswers:    p.correct,
			TimeTakenSec:      elapsed,
			Streak:            p.bestStreak,
		}})
	}
	r.events.Publish(ctx, domain.EventMatchFinished{
		RoomID:       r.id,
		Winner:       winner,
		Tie:          tie,
		Disconnected: reason == ReasonDisconnected,
	})
	r.logger.InfoContext(ctx, "room finished", "reason", reason, "winner", winner, "tie", tie)
}

func (r *Room) usePowerUp(ctx context.Context, playerID string, kind powerup.Kind) (powerup.Effect, error) {
	_, p := r.player(playerID)
	if p == nil {
		return powerup.Effect{}, domain.ErrPlayerNotInRoom
	}
	target := powerup.Target{Mode: domain.ModeMultiplayer, Lives: p.lives}
	if r.state == domain.RoomInProgress {
		target.Question = r.questions[r.current]
		_, done := r.answers[r.current][p.ID]
		target.Open = !done
	}
	effect, err := r.catalog.Use(kind, p.economy, target)
	if err != nil {
		return powerup.Effect{}, err
	}
	if effect.RemovedOption >= 0 {
		p.removed = append(p.removed, effect.RemovedOption)
	}

	r.notifier.Notify(p.ID, domain.MsgPowerUpApplied, effect)
	r.events.Publish(ctx, domain.EventPowerUpUsed{PlayerID: p.ID, Kind: string(kind), Cost: effect.Cost, Mode: domain.ModeMultiplayer})
	r.events.Publish(ctx, domain.EventCoinsUpdated{PlayerID: p.ID, Balance: effect.CoinsLeft})
	return effect, nil
}

func (r *Room) broadcast(msgType string, payload any) {
	for _, p := range r.players {
		if p.connected {
			r.notifier.Notify(p.ID, msgType, payload)
		}
	}
}

func (r *Room) standings() []PlayerResult {
	out := make([]PlayerResult, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, PlayerResult{
			PlayerID:  p.ID,
			Name:      p.Name,
			Score:     p.score,
			Correct:   p.correct,
			Answered:  p.answered,
			Lives:     p.lives,
			Streak:    p.streak,
			Coins:     p.economy.Coins,
			Connected: p.connected,
		})
	}
	return out
}

func (r *Room) snapshot() Snapshot {
	return Snapshot{
		RoomID:         r.id,
		State:          r.state,
		CurrentIndex:   r.current,
		TotalQuestions: len(r.questions),
		TimeRemaining:  r.countdown.Remaining(),
		Players:        r.standings(),
	}
}

func (r *Room) send(ctx context.Context, cmd any) error {
	select {
	case r.inbox <- cmd:
		return nil
	case <-r.done:
		return domain.ErrRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}
