package powerup

import (
	"fmt"
	"strings"

	"quiz-arena-service/internal/domain"
)

type Kind string

const (
	TimeFreeze   Kind = "time_freeze"
	FiftyFifty   Kind = "fifty_fifty"
	ExtraLife    Kind = "extra_life"
	DoublePoints Kind = "double_points"
	Hint         Kind = "hint"
)

// TimeFreezeSeconds is added to the running countdown by TimeFreeze.
const TimeFreezeSeconds = 10

var defaultCosts = map[Kind]int{
	TimeFreeze:   50,
	FiftyFifty:   75,
	ExtraLife:    100,
	DoublePoints: 60,
	Hint:         25,
}

const defaultHint = "Read every option carefully and rule out the ones you know are wrong."

var defaultHints = map[string]string{
	"science":    "Think about the underlying principle rather than the specific example.",
	"history":    "Place the events on a timeline before choosing.",
	"geography":  "Picture the map and the neighbouring regions.",
	"math":       "Estimate the magnitude first, then check the exact value.",
	"literature": "Recall the author's era and genre.",
	"technology": "Consider which option was possible at the time.",
}

// ParseKind accepts both snake_case and camelCase names.
func ParseKind(raw string) (Kind, error) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(strings.TrimSpace(raw)))
	switch key {
	case "timefreeze":
		return TimeFreeze, nil
	case "fiftyfifty", "5050":
		return FiftyFifty, nil
	case "extralife":
		return ExtraLife, nil
	case "doublepoints":
		return DoublePoints, nil
	case "hint":
		return Hint, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownPowerUp, raw)
}

// Config overrides catalog defaults. Zero costs fall back to the default price.
type Config struct {
	Costs    map[Kind]int
	MaxLives int
	Hints    map[string]string
}

// Catalog prices power-ups and applies their effects.
type Catalog struct {
	costs    map[Kind]int
	maxLives int
	hints    map[string]string
}

func NewCatalog(c Config) *Catalog {
	costs := make(map[Kind]int, len(defaultCosts))
	for k, v := range defaultCosts {
		costs[k] = v
	}
	for k, v := range c.Costs {
		if _, ok := costs[k]; ok && v > 0 {
			costs[k] = v
		}
	}
	hints := make(map[string]string, len(defaultHints)+len(c.Hints))
	for k, v := range defaultHints {
		hints[k] = v
	}
	for k, v := range c.Hints {
		hints[strings.ToLower(k)] = v
	}
	return &Catalog{costs: costs, maxLives: c.MaxLives, hints: hints}
}

// Cost returns the price of kind and whether it exists.
func (c *Catalog) Cost(kind Kind) (int, bool) {
	cost, ok := c.costs[kind]
	return cost, ok
}

// Prices returns the price list of the kinds usable in mode.
func (c *Catalog) Prices(mode domain.Mode) map[Kind]int {
	out := make(map[Kind]int, len(c.costs))
	for k, v := range c.costs {
		if Available(k, mode) {
			out[k] = v
		}
	}
	return out
}

// Available reports whether kind can be bought in mode. Rooms share one
// countdown and play every question regardless of lives.
func Available(kind Kind, mode domain.Mode) bool {
	if mode != domain.ModeMultiplayer {
		return true
	}
	return kind != TimeFreeze && kind != ExtraLife
}

// State is the per-player wallet and power-up flags of one session or room.
type State struct {
	Coins             int
	DoublePointsArmed bool
	FiftyFiftyUsedFor map[string]struct{}
}

func NewState(coins int) *State {
	return &State{Coins: coins, FiftyFiftyUsedFor: make(map[string]struct{})}
}

// ConsumeDoublePoints disarms double points and reports whether it was armed.
func (s *State) ConsumeDoublePoints() bool {
	armed := s.DoublePointsArmed
	s.DoublePointsArmed = false
	return armed
}

// Target describes the question a power-up is used on.
type Target struct {
	Question domain.Question
	// Open is false once the question was answered or the run is not playing.
	Open  bool
	Lives int
	Mode  domain.Mode
}

// Effect tells the owner what to apply after a successful purchase.
type Effect struct {
	Kind              Kind   `json:"kind"`
	Cost              int    `json:"cost"`
	CoinsLeft         int    `json:"coins"`
	RemovedOption     int    `json:"removedOption"`
	ExtraSeconds      int    `json:"extraSeconds,omitempty"`
	LivesDelta        int    `json:"livesDelta,omitempty"`
	Hint              string `json:"hint,omitempty"`
	DoublePointsArmed bool   `json:"doublePointsArmed,omitempty"`
}

// Use validates and applies kind against st. On error st is untouched.
func (c *Catalog) Use(kind Kind, st *State, target Target) (Effect, error) {
	cost, ok := c.costs[kind]
	if !ok {
		return Effect{}, domain.ErrUnknownPowerUp
	}
	if !target.Open {
		return Effect{}, domain.ErrQuestionClosed
	}

	if !Available(kind, target.Mode) {
		return Effect{}, domain.ErrUnavailableInMode
	}

	effect := Effect{Kind: kind, Cost: cost, RemovedOption: -1}
	switch kind {
	case TimeFreeze:
		effect.ExtraSeconds = TimeFreezeSeconds
	case FiftyFifty:
		if _, used := st.FiftyFiftyUsedFor[target.Question.ID]; used {
			return Effect{}, domain.ErrAlreadyUsedOnQuestion
		}
		effect.RemovedOption = removableOption(target.Question)
		if effect.RemovedOption < 0 {
			return Effect{}, domain.ErrInvalidQuestion
		}
	case ExtraLife:
		if c.maxLives > 0 && target.Lives >= c.maxLives {
			return Effect{}, domain.ErrLivesAtMax
		}
		effect.LivesDelta = 1
	case DoublePoints:
		if st.DoublePointsArmed {
			return Effect{}, domain.ErrAlreadyArmed
		}
		effect.DoublePointsArmed = true
	case Hint:
		effect.Hint = c.hintFor(target.Question.Category)
	}

	if st.Coins < cost {
		return Effect{}, domain.ErrInsufficientCoins
	}

	st.Coins -= cost
	switch kind {
	case FiftyFifty:
		if st.FiftyFiftyUsedFor == nil {
			st.FiftyFiftyUsedFor = make(map[string]struct{})
		}
		st.FiftyFiftyUsedFor[target.Question.ID] = struct{}{}
	case DoublePoints:
		st.DoublePointsArmed = true
	}
	effect.CoinsLeft = st.Coins
	return effect, nil
}

// removableOption picks the lowest-index wrong option so replays are deterministic.
func removableOption(q domain.Question) int {
	for i := range q.Options {
		if i != q.CorrectAnswerIndex {
			return i
		}
	}
	return -1
}

func (c *Catalog) hintFor(category string) string {
	if h, ok := c.hints[strings.ToLower(strings.TrimSpace(category))]; ok {
		return h
	}
	return defaultHint
}
