package session

import (
	"time"

	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/powerup"
	"quiz-arena-service/internal/scoring"
	"quiz-arena-service/internal/timer"
)

// Session is the single player state machine:
// Menu -> Loading -> Playing -> (AnswerReveal -> Playing)* -> Results.
// It is not safe for concurrent use; a Runner owns it.
type Session struct {
	id       string
	playerID string
	mode     domain.Mode
	category string

	catalog       *powerup.Catalog
	economy       *powerup.State
	revealSeconds int
	now           func() time.Time

	state      domain.SessionState
	questions  []domain.Question
	current    int
	score      int
	lives      int
	streak     int
	bestStreak int
	correct    int
	answered   int
	answers    map[int]domain.Answer
	removed    []int

	countdown       *timer.Countdown
	reveal          *timer.Countdown
	startedAt       time.Time
	questionStarted time.Time
	finishedAt      time.Time
}

// Params configures a new Session.
type Params struct {
	ID            string
	PlayerID      string
	Mode          domain.Mode
	Category      string
	Catalog       *powerup.Catalog
	StartingCoins int
	RevealSeconds int
	Clock         func() time.Time
}

func New(p Params) *Session {
	if p.Clock == nil {
		p.Clock = time.Now
	}
	if p.Catalog == nil {
		p.Catalog = powerup.NewCatalog(powerup.Config{})
	}
	if p.Mode == "" {
		p.Mode = domain.ModeClassic
	}
	s := &Session{
		id:            p.ID,
		playerID:      p.PlayerID,
		mode:          p.Mode,
		category:      p.Category,
		catalog:       p.Catalog,
		economy:       powerup.NewState(p.StartingCoins),
		revealSeconds: p.RevealSeconds,
		now:           p.Clock,
		state:         domain.SessionMenu,
		answers:       make(map[int]domain.Answer),
		countdown:     timer.NewCountdown(),
		reveal:        timer.NewCountdown(),
	}
	s.countdown.OnExpire(func() { s.OnTimeout() })
	s.reveal.OnExpire(func() { s.Advance() })
	return s
}

func (s *Session) ID() string                 { return s.id }
func (s *Session) PlayerID() string           { return s.playerID }
func (s *Session) Mode() domain.Mode          { return s.mode }
func (s *Session) State() domain.SessionState { return s.state }
func (s *Session) CurrentIndex() int          { return s.current }
func (s *Session) Score() int                 { return s.score }
func (s *Session) Lives() int                 { return s.lives }
func (s *Session) Streak() int                { return s.streak }
func (s *Session) Coins() int                 { return s.economy.Coins }

// MarkLoading moves Menu -> Loading while content is fetched.
func (s *Session) MarkLoading() bool {
	if s.state != domain.SessionMenu {
		return false
	}
	s.state = domain.SessionLoading
	return true
}

// Abort returns a Loading session to Menu after a content failure.
func (s *Session) Abort() {
	if s.state == domain.SessionLoading {
		s.state = domain.SessionMenu
	}
}

// Start begins play on questions.
func (s *Session) Start(questions []domain.Question) error {
	if s.state != domain.SessionMenu && s.state != domain.SessionLoading {
		return domain.ErrSessionStarted
	}
	if err := domain.ValidateQuestions(questions); err != nil {
		return err
	}
	s.questions = append([]domain.Question(nil), questions...)
	if s.category == "" {
		s.category = questions[0].Category
	}
	s.current = 0
	s.score = 0
	s.streak = 0
	s.bestStreak = 0
	s.correct = 0
	s.answered = 0
	s.lives = s.mode.InitialLives()
	s.startedAt = s.now()
	s.state = domain.SessionPlaying
	s.beginQuestion()
	return nil
}

func (s *Session) beginQuestion() {
	s.removed = nil
	s.questionStarted = s.now()
	s.countdown.Start(s.questions[s.current].TimeLimit(s.mode))
}

// SubmitAnswer records the player's answer to the current question. Answers
// outside Playing or after one was recorded are ignored and return false.
func (s *Session) SubmitAnswer(selectedIndex int) (domain.Answer, bool) {
	if s.state != domain.SessionPlaying {
		return domain.Answer{}, false
	}
	if _, done := s.answers[s.current]; done {
		return domain.Answer{}, false
	}
	return s.record(selectedIndex, false), true
}

// OnTimeout scores the current question as a wrong answer worth zero points.
func (s *Session) OnTimeout() bool {
	if s.state != domain.SessionPlaying {
		return false
	}
	if _, done := s.answers[s.current]; done {
		return false
	}
	s.record(-1, true)
	return true
}

func (s *Session) record(selectedIndex int, timedOut bool) domain.Answer {
	q := s.questions[s.current]
	remaining := s.countdown.Remaining()
	if timedOut {
		remaining = 0
	}
	s.countdown.Cancel()

	isCorrect := !timedOut && scoring.IsCorrect(q, selectedIndex)
	armed := s.economy.ConsumeDoublePoints()
	outcome := scoring.ScoreAnswer(q, isCorrect, armed, s.streak)

	s.score += outcome.PointsAwarded
	s.streak = outcome.NewStreak
	if s.streak > s.bestStreak {
		s.bestStreak = s.streak
	}
	s.lives = scoring.ApplyLives(s.lives, outcome.LivesDelta)
	s.answered++
	if isCorrect {
		s.correct++
	}

	answer := domain.Answer{
		QuestionIndex:       s.current,
		PlayerID:            s.playerID,
		SelectedIndex:       selectedIndex,
		SubmittedAtOffsetMs: s.now().Sub(s.questionStarted).Milliseconds(),
		TimeRemaining:       remaining,
		IsCorrect:           isCorrect,
		PointsAwarded:       outcome.PointsAwarded,
		TimedOut:            timedOut,
	}
	s.answers[s.current] = answer
	s.state = domain.SessionAnswerReveal
	s.reveal.Start(s.revealSeconds)
	return answer
}

// Advance leaves AnswerReveal. It ends the run after the last question or when
// an eliminating mode runs out of lives.
func (s *Session) Advance() bool {
	if s.state != domain.SessionAnswerReveal {
		return false
	}
	s.reveal.Cancel()

	last := s.current >= len(s.questions)-1
	if last || (s.mode.Eliminates() && s.lives == 0) {
		s.state = domain.SessionResults
		s.finishedAt = s.now()
		return true
	}
	s.current++
	s.state = domain.SessionPlaying
	s.beginQuestion()
	return true
}

// Tick advances the active countdown by one second and reports whether the
// state changed.
func (s *Session) Tick() bool {
	before, idx := s.state, s.current
	switch s.state {
	case domain.SessionPlaying:
		s.countdown.Tick()
	case domain.SessionAnswerReveal:
		s.reveal.Tick()
	}
	return before != s.state || idx != s.current
}

// Quit stops the countdowns. The session is discarded afterwards.
func (s *Session) Quit() {
	s.countdown.Cancel()
	s.reveal.Cancel()
}

// UsePowerUp spends coins on kind for the current question.
func (s *Session) UsePowerUp(kind powerup.Kind) (powerup.Effect, error) {
	target := powerup.Target{Mode: s.mode, Lives: s.lives}
	if s.state == domain.SessionPlaying {
		target.Question = s.questions[s.current]
		_, done := s.answers[s.current]
		target.Open = !done
	}
	effect, err := s.catalog.Use(kind, s.economy, target)
	if err != nil {
		return powerup.Effect{}, err
	}
	if effect.ExtraSeconds > 0 {
		s.countdown.Extend(effect.ExtraSeconds)
	}
	if effect.LivesDelta != 0 {
		s.lives = scoring.ApplyLives(s.lives, effect.LivesDelta)
	}
	if effect.RemovedOption >= 0 {
		s.removed = append(s.removed, effect.RemovedOption)
	}
	return effect, nil
}

// Snapshot is the client view. The answer and explanation are included only
// once the current question is revealed.
func (s *Session) Snapshot() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		SessionID:         s.id,
		PlayerID:          s.playerID,
		Mode:              s.mode,
		State:             s.state,
		CurrentIndex:      s.current,
		TotalQuestions:    len(s.questions),
		Score:             s.score,
		Lives:             s.lives,
		Streak:            s.streak,
		Coins:             s.economy.Coins,
		DoublePointsArmed: s.economy.DoublePointsArmed,
		TimeRemaining:     s.countdown.Remaining(),
	}
	if len(s.questions) == 0 {
		return snap
	}
	q := s.questions[s.current]
	pub := q.Public()
	snap.Question = &pub
	snap.RemovedOptions = append([]int(nil), s.removed...)
	if a, ok := s.answers[s.current]; ok {
		answer := a
		snap.LastAnswer = &answer
		correct := q.CorrectAnswerIndex
		snap.CorrectAnswer = &correct
		snap.Explanation = q.Explanation
		snap.TimeRemaining = a.TimeRemaining
	}
	return snap
}

// Completion summarizes the run once it reached Results.
func (s *Session) Completion() (domain.Completion, bool) {
	if s.state != domain.SessionResults {
		return domain.Completion{}, false
	}
	return domain.Completion{
		RunID:             s.id,
		PlayerID:          s.playerID,
		Mode:              s.mode,
		Category:          s.category,
		Score:             s.score,
		QuestionsAnswered: s.answered,
		CorrectAnswers:    s.correct,
		TimeTakenSec:      int(s.finishedAt.Sub(s.startedAt).Seconds()),
		Streak:            s.bestStreak,
	}, true
}
