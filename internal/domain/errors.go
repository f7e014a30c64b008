package domain

import "errors"

// Kind groups errors by how callers are expected to react to them.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation covers malformed input such as an empty or broken question set.
	KindValidation
	// KindEconomy covers rejected power-up purchases; coins are never debited.
	KindEconomy
	// KindState covers out-of-turn actions. Callers recover these locally.
	KindState
	// KindTransport covers failures talking to content or stats collaborators.
	KindTransport
	// KindNotFound covers lookups of rooms, queue entries and sessions that are gone.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindEconomy:
		return "economy"
	case KindState:
		return "state"
	case KindTransport:
		return "transport"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a sentinel error tagged with a Kind. Compare with errors.Is.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// KindOf reports the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

var (
	// ErrEmptyQuestionSet is returned when a session or room is started without questions.
	ErrEmptyQuestionSet = newError(KindValidation, "question set is empty")
	// ErrInvalidQuestion indicates a question is missing its id, options or a valid answer index.
	ErrInvalidQuestion = newError(KindValidation, "invalid question")
	// ErrInvalidMode indicates an unknown quiz mode.
	ErrInvalidMode = newError(KindValidation, "invalid quiz mode")
	// ErrInvalidQueueEntry indicates a queue request without a player id.
	ErrInvalidQueueEntry = newError(KindValidation, "invalid queue entry")
	// ErrInvalidPlayer indicates a request without a player id.
	ErrInvalidPlayer = newError(KindValidation, "player id is required")
	// ErrRequestRejected indicates a collaborator refused a request as malformed. Not retried.
	ErrRequestRejected = newError(KindValidation, "request rejected")

	ErrInsufficientCoins     = newError(KindEconomy, "insufficient coins")
	ErrAlreadyUsedOnQuestion = newError(KindEconomy, "power-up already used on this question")
	ErrAlreadyArmed          = newError(KindEconomy, "double points already armed")
	ErrQuestionClosed        = newError(KindEconomy, "question is no longer open")
	ErrUnknownPowerUp        = newError(KindEconomy, "unknown power-up")
	ErrLivesAtMax            = newError(KindEconomy, "lives already at maximum")
	ErrUnavailableInMode     = newError(KindEconomy, "power-up unavailable in this mode")

	ErrAlreadyQueued  = newError(KindState, "player already queued")
	ErrAlreadyInRoom  = newError(KindState, "player already in a room")
	ErrSessionStarted = newError(KindState, "session already started")

	ErrContentUnavailable = newError(KindTransport, "quiz content unavailable")
	ErrStatsUnavailable   = newError(KindTransport, "stats service unavailable")

	ErrRoomNotFound       = newError(KindNotFound, "room not found")
	ErrQueueEntryNotFound = newError(KindNotFound, "queue entry not found")
	ErrSessionNotFound    = newError(KindNotFound, "session not found")
	ErrPlayerNotInRoom    = newError(KindNotFound, "player not in room")
)
