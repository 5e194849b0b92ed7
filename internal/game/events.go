package game

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventKind string

const (
	EventGuessCorrect   EventKind = "guess_correct"
	EventGuessIncorrect EventKind = "guess_incorrect"
	EventAlreadyFound   EventKind = "already_found"
	EventHintUsed       EventKind = "hint_used"
	EventGameCompleted  EventKind = "game_completed"
	EventGameOver       EventKind = "game_over"
)

// Event is an outward notification for the UI layer.
type Event struct {
	Kind     EventKind `json:"kind"`
	GameID   string    `json:"gameId"`
	ItemIDs  []string  `json:"itemIds,omitempty"`
	Points   int       `json:"points,omitempty"`
	Fragment string    `json:"fragment,omitempty"`
	Reason   string    `json:"reason,omitempty"`
}

type EventSink interface {
	Emit(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) Emit(e Event) { f(e) }

// LogSink writes events to the global zerolog logger.
type LogSink struct {
	PlayerID string
}

func (s LogSink) Emit(e Event) {
	var ev *zerolog.Event
	switch e.Kind {
	case EventGameOver, EventGameCompleted:
		ev = log.Info()
	default:
		ev = log.Debug()
	}
	ev.Str("playerId", s.PlayerID).
		Str("gameId", e.GameID).
		Str("event", string(e.Kind)).
		Strs("itemIds", e.ItemIDs).
		Int("points", e.Points).
		Str("reason", e.Reason).
		Msg("game event")
}
