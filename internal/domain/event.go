package domain

// Bus event names.
const (
	EventNameSessionStarted   = "session.started"
	EventNameSessionCompleted = "session.completed"
	EventNameCoinsUpdated     = "coins.updated"
	EventNamePowerUpUsed      = "powerup.used"
	EventNameMatchCreated     = "match.created"
	EventNameMatchFinished    = "match.finished"
)

type EventSessionStarted struct {
	SessionID string
	PlayerID  string
	Mode      Mode
}

func (EventSessionStarted) Name() string { return EventNameSessionStarted }

// EventSessionCompleted is published once per player when a run reaches its results.
type EventSessionCompleted struct {
	Completion Completion
}

func (EventSessionCompleted) Name() string { return EventNameSessionCompleted }

type EventCoinsUpdated struct {
	PlayerID string
	Balance  int
}

func (EventCoinsUpdated) Name() string { return EventNameCoinsUpdated }

type EventPowerUpUsed struct {
	PlayerID string
	Kind     string
	Cost     int
	Mode     Mode
}

func (EventPowerUpUsed) Name() string { return EventNamePowerUpUsed }

type EventMatchCreated struct {
	RoomID  string
	Players [2]string
}

func (EventMatchCreated) Name() string { return EventNameMatchCreated }

type EventMatchFinished struct {
	RoomID       string
	Winner       string
	Tie          bool
	Disconnected bool
}

func (EventMatchFinished) Name() string { return EventNameMatchFinished }

// Real-time message types exchanged with clients.
const (
	MsgJoinQueue    = "join-multiplayer-queue"
	MsgLeaveQueue   = "leave-queue"
	MsgSubmitAnswer = "submit-answer"
	MsgUsePowerUp   = "use-power-up"
	MsgStartSession = "start-session"
	MsgAnswer       = "answer"
	MsgNext         = "next"
	MsgQuit         = "quit"

	MsgQueueStatus          = "queue-status"
	MsgGameFound            = "game-found"
	MsgOpponentAnswered     = "opponent-answered"
	MsgQuestionResults      = "question-results"
	MsgNextQuestion         = "next-question"
	MsgGameFinished         = "game-finished"
	MsgOpponentDisconnected = "opponent-disconnected"
	MsgSessionState         = "session-state"
	MsgSessionResults       = "session-results"
	MsgPowerUpApplied       = "power-up-applied"
	MsgAchievements         = "achievements-unlocked"
	MsgError                = "error"
)
