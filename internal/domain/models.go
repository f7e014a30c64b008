package domain

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects the lives and time rules of a quiz run.
type Mode string

const (
	ModeClassic     Mode = "classic"
	ModeSpeed       Mode = "speed"
	ModeSurvival    Mode = "survival"
	ModeMultiplayer Mode = "multiplayer"
)

// ParseMode accepts a mode name in any case.
func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case ModeClassic, ModeSpeed, ModeSurvival, ModeMultiplayer:
		return m, nil
	case "":
		return ModeClassic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
	}
}

// InitialLives is 3 for Survival and 1 otherwise.
func (m Mode) InitialLives() int {
	if m == ModeSurvival {
		return 3
	}
	return 1
}

// Eliminates reports whether running out of lives ends the run.
func (m Mode) Eliminates() bool {
	return m == ModeSurvival || m == ModeMultiplayer
}

// DefaultTimeLimit applies to questions that carry no limit of their own.
func (m Mode) DefaultTimeLimit() int {
	if m == ModeSpeed {
		return 10
	}
	return 30
}

// Question is a multiple choice question. It is immutable once a run starts and
// never leaves the server with its answer before the reveal.
type Question struct {
	ID                 string   `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
	Difficulty         string   `json:"difficulty"`
	Category           string   `json:"category"`
	Points             int      `json:"points"`
	TimeLimitSeconds   int      `json:"timeLimitSeconds"`
}

// Validate checks the fields a run depends on.
func (q Question) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidQuestion)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: question %s needs at least 2 options", ErrInvalidQuestion, q.ID)
	}
	if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(q.Options) {
		return fmt.Errorf("%w: question %s answer index %d out of range", ErrInvalidQuestion, q.ID, q.CorrectAnswerIndex)
	}
	if q.Points < 0 || q.TimeLimitSeconds < 0 {
		return fmt.Errorf("%w: question %s has negative points or time limit", ErrInvalidQuestion, q.ID)
	}
	return nil
}

// TimeLimit returns the question's limit, falling back to the mode default.
func (q Question) TimeLimit(mode Mode) int {
	if q.TimeLimitSeconds > 0 {
		return q.TimeLimitSeconds
	}
	return mode.DefaultTimeLimit()
}

// Public strips the answer and explanation.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:               q.ID,
		Text:             q.Text,
		Options:          append([]string(nil), q.Options...),
		Difficulty:       q.Difficulty,
		Category:         q.Category,
		Points:           q.Points,
		TimeLimitSeconds: q.TimeLimitSeconds,
	}
}

// ValidateQuestions rejects an empty set or any malformed question.
func ValidateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return ErrEmptyQuestionSet
	}
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PublicQuestions converts a question list for clients.
func PublicQuestions(questions []Question) []PublicQuestion {
	out := make([]PublicQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.Public())
	}
	return out
}

// PublicQuestion is the client-safe view of a Question.
type PublicQuestion struct {
	ID               string   `json:"id"`
	Text             string   `json:"text"`
	Options          []string `json:"options"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Points           int      `json:"points"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
}

// Answer is the single recorded response of a player to a question.
type Answer struct {
	QuestionIndex       int    `json:"questionIndex"`
	PlayerID            string `json:"playerId"`
	SelectedIndex       int    `json:"selectedIndex"`
	SubmittedAtOffsetMs int64  `json:"submittedAtOffsetMs"`
	TimeRemaining       int    `json:"timeRemaining"`
	IsCorrect           bool   `json:"isCorrect"`
	PointsAwarded       int    `json:"pointsAwarded"`
	TimedOut            bool   `json:"timedOut"`
}

// QueueEntry is a player waiting for an opponent.
type QueueEntry struct {
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Category   string    `json:"category"`
	Difficulty string    `json:"difficulty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// SessionState is a state of the single player state machine.
type SessionState string

const (
	SessionMenu         SessionState = "menu"
	SessionLoading      SessionState = "loading"
	SessionPlaying      SessionState = "playing"
	SessionAnswerReveal SessionState = "answer_reveal"
	SessionResults      SessionState = "results"
)

// RoomState is a state of the two player battle.
type RoomState string

const (
	RoomMatched       RoomState = "matched"
	RoomInProgress    RoomState = "in_progress"
	RoomRoundResolved RoomState = "round_resolved"
	RoomFinished      RoomState = "finished"
)

// SessionSnapshot is what a client renders for a solo run.
type SessionSnapshot struct {
	SessionID         string          `json:"sessionId"`
	PlayerID          string          `json:"playerId"`
	Mode              Mode            `json:"mode"`
	State             SessionState    `json:"state"`
	CurrentIndex      int             `json:"currentIndex"`
	TotalQuestions    int             `json:"totalQuestions"`
	Question          *PublicQuestion `json:"question,omitempty"`
	Score             int             `json:"score"`
	Lives             int             `json:"lives"`
	Streak            int             `json:"streak"`
	Coins             int             `json:"coins"`
	DoublePointsArmed bool            `json:"doublePointsArmed"`
	RemovedOptions    []int           `json:"removedOptions,omitempty"`
	TimeRemaining     int             `json:"timeRemaining"`
	LastAnswer        *Answer         `json:"lastAnswer,omitempty"`
	CorrectAnswer     *int            `json:"correctAnswer,omitempty"`
	Explanation       string          `json:"explanation,omitempty"`
}

// Completion summarizes a finished run for the stats service.
type Completion struct {
	// RunID is the session or room id. With PlayerID it identifies the
	// completion so a retried delivery is recorded once.
	RunID             string `json:"runId"`
	PlayerID          string `json:"playerId"`
	Mode              Mode   `json:"mode"`
	Category          string `json:"category"`
	Score             int    `json:"score"`
	QuestionsAnswered int    `json:"questionsAnswered"`
	CorrectAnswers    int    `json:"correctAnswers"`
	TimeTakenSec      int    `json:"timeTakenSec"`
	Streak            int    `json:"streak"`
}
