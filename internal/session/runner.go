package session

import (
	"context"
	"log/slog"

	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/event"
	"quiz-arena-service/internal/powerup"
	"quiz-arena-service/internal/timer"
)

// Notifier pushes a message to a connected player. Delivery is best effort;
// a disconnected player simply misses messages.
type Notifier interface {
	Notify(playerID, msgType string, payload any)
}

// Results is the payload of session-results.
type Results struct {
	Completion domain.Completion      `json:"completion"`
	Snapshot   domain.SessionSnapshot `json:"snapshot"`
}

type (
	answerCmd struct {
		selected int
		reply    chan answerResult
	}
	answerResult struct {
		answer   domain.Answer
		accepted bool
	}
	advanceCmd struct {
		reply chan bool
	}
	powerUpCmd struct {
		kind  powerup.Kind
		reply chan powerUpResult
	}
	powerUpResult struct {
		effect powerup.Effect
		err    error
	}
	snapshotCmd struct {
		reply chan domain.SessionSnapshot
	}
	quitCmd struct {
		reply chan struct{}
	}
)

// Runner owns a Session on its own goroutine. Commands and ticks are handled
// in one loop, so an answer racing a timeout is decided by arrival order.
type Runner struct {
	session  *Session
	inbox    chan any
	ticker   timer.Ticker
	notifier Notifier
	events   event.Publisher
	logger   *slog.Logger
	done     chan struct{}
	onExit   func(*Runner)
}

func newRunner(s *Session, ticker timer.Ticker, notifier Notifier, events event.Publisher, logger *slog.Logger) *Runner {
	return &Runner{
		session:  s,
		inbox:    make(chan any),
		ticker:   ticker,
		notifier: notifier,
		events:   events,
		logger:   logger.With("session_id", s.ID(), "player_id", s.PlayerID()),
		done:     make(chan struct{}),
	}
}

// Done is closed when the runner exits.
func (r *Runner) Done() <-chan struct{} { return r.done }

func (r *Runner) Run(ctx context.Context) {
	defer func() {
		r.ticker.Stop()
		close(r.done)
		if r.onExit != nil {
			r.onExit(r)
		}
	}()

	r.emitState()
	for {
		select {
		case <-ctx.Done():
			r.session.Quit()
			return
		case cmd := <-r.inbox:
			if quit := r.handle(ctx, cmd); quit {
				r.logger.InfoContext(ctx, "session quit", "score", r.session.Score())
				return
			}
		case <-r.ticker.C():
			if r.session.Tick() && r.session.State() != domain.SessionResults {
				r.emitState()
			}
		}

		if r.session.State() == domain.SessionResults {
			r.complete(ctx)
			return
		}
	}
}

func (r *Runner) handle(ctx context.Context, cmd any) bool {
	switch c := cmd.(type) {
	case answerCmd:
		answer, ok := r.session.SubmitAnswer(c.selected)
		c.reply <- answerResult{answer: answer, accepted: ok}
		if ok {
			r.emitState()
		}
	case advanceCmd:
		ok := r.session.Advance()
		c.reply <- ok
		if ok && r.session.State() != domain.SessionResults {
			r.emitState()
		}
	case powerUpCmd:
		effect, err := r.session.UsePowerUp(c.kind)
		c.reply <- powerUpResult{effect: effect, err: err}
		if err != nil {
			r.logger.DebugContext(ctx, "power-up rejected", "kind", c.kind, "error", err)
			return false
		}
		r.notifier.Notify(r.session.PlayerID(), domain.MsgPowerUpApplied, effect)
		r.emitState()
		r.events.Publish(ctx, domain.EventPowerUpUsed{
			PlayerID: r.session.PlayerID(),
			Kind:     string(effect.Kind),
			Cost:     effect.Cost,
			Mode:     r.session.Mode(),
		})
		r.events.Publish(ctx, domain.EventCoinsUpdated{PlayerID: r.session.PlayerID(), Balance: effect.CoinsLeft})
	case snapshotCmd:
		c.reply <- r.session.Snapshot()
	case quitCmd:
		r.session.Quit()
		close(c.reply)
		return true
	}
	return false
}

func (r *Runner) emitState() {
	r.notifier.Notify(r.session.PlayerID(), domain.MsgSessionState, r.session.Snapshot())
}

func (r *Runner) complete(ctx context.Context) {
	completion, _ := r.session.Completion()
	snap := r.session.Snapshot()
	r.notifier.Notify(r.session.PlayerID(), domain.MsgSessionState, snap)
	r.notifier.Notify(r.session.PlayerID(), domain.MsgSessionResults, Results{Completion: completion, Snapshot: snap})
	r.events.Publish(ctx, domain.EventSessionCompleted{Completion: completion})
	r.logger.InfoContext(ctx, "session completed",
		"mode", completion.Mode,
		"score", completion.Score,
		"correct", completion.CorrectAnswers,
		"answered", completion.QuestionsAnswered,
	)
}

func (r *Runner) send(ctx context.Context, cmd any) error {
	select {
	case r.inbox <- cmd:
		return nil
	case <-r.done:
		return domain.ErrSessionNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitAnswer reports false when the answer was ignored.
func (r *Runner) SubmitAnswer(ctx context.Context, selected int) (domain.Answer, bool, error) {
	reply := make(chan answerResult, 1)
	if err := r.send(ctx, answerCmd{selected: selected, reply: reply}); err != nil {
		return domain.Answer{}, false, err
	}
	res := <-reply
	return res.answer, res.accepted, nil
}

// Advance skips the rest of the reveal delay.
func (r *Runner) Advance(ctx context.Context) (bool, error) {
	reply := make(chan bool, 1)
	if err := r.send(ctx, advanceCmd{reply: reply}); err != nil {
		return false, err
	}
	return <-reply, nil
}

func (r *Runner) UsePowerUp(ctx context.Context, kind powerup.Kind) (powerup.Effect, error) {
	reply := make(chan powerUpResult, 1)
	if err := r.send(ctx, powerUpCmd{kind: kind, reply: reply}); err != nil {
		return powerup.Effect{}, err
	}
	res := <-reply
	return res.effect, res.err
}

func (r *Runner) Snapshot(ctx context.Context) (domain.SessionSnapshot, error) {
	reply := make(chan domain.SessionSnapshot, 1)
	if err := r.send(ctx, snapshotCmd{reply: reply}); err != nil {
		return domain.SessionSnapshot{}, err
	}
	return <-reply, nil
}

// Quit abandons the run. No completion is published.
func (r *Runner) Quit(ctx context.Context) error {
	reply := make(chan struct{})
	if err := r.send(ctx, quitCmd{reply: reply}); err != nil {
		return err
	}
	<-reply
	return nil
}
