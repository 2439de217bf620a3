/*
Package events
File: events.go
Description:
    Domain events emitted by the engine after every state mutation.
    The engine never renders anything itself; a Notifier (the websocket Hub
    in production) receives the events and decides what the player sees or hears.
*/

package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type describes the kind of domain event.
type Type string

const (
	Clicked             Type = "clicked"
	ProducerPurchased   Type = "producer_purchased"
	ProducerSold        Type = "producer_sold"
	UpgradePurchased    Type = "upgrade_purchased"
	MutationUnlocked    Type = "mutation_unlocked"
	TickAdvanced        Type = "tick_advanced"
	MarketUpdated       Type = "market_updated"
	SharesTraded        Type = "shares_traded"
	AchievementUnlocked Type = "achievement_unlocked"
	ApocalypseRequested Type = "apocalypse_requested"
	ApocalypseCancelled Type = "apocalypse_cancelled"
	ApocalypseExecuted  Type = "apocalypse_executed"
	SaveLoaded          Type = "save_loaded"
	OfflineProgress     Type = "offline_progress"
	Info                Type = "info"
)

// Event is a single fire-and-forget notification.
type Event struct {
	ID      string    `json:"id"`
	Type    Type      `json:"type"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}

// New stamps an event with a fresh id.
func New(t Type, at time.Time, payload any) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    t,
		At:      at,
		Payload: payload,
	}
}

// Notifier receives domain events. Implementations must not call back into the engine.
type Notifier interface {
	Notify(Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(Event) {}

// Recorder keeps every event in memory. ConfirmApocalypse buffers draft events in one
// until the commit; tests use it to observe the engine.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType filters recorded events by type.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Reset forgets all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
