package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened to a progress record.
const (
	// Identity events
	EventProgressCreated EventType = "progress.created"

	// XP events
	EventXPGained EventType = "progress.xp_gained"
	EventLevelUp  EventType = "progress.level_up"

	// Token economy events
	EventTokensStaked   EventType = "progress.tokens_staked"
	EventStakeWithdrawn EventType = "progress.stake_withdrawn"

	// Course events
	EventCourseEnrolled  EventType = "course.enrolled"
	EventCourseCompleted EventType = "course.completed"
	EventRewardClaimed   EventType = "course.reward_claimed"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	// For the progression ledger this is always the wallet address.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// EventHandler processes a single domain event.
type EventHandler interface {
	// Handle processes the event. Errors are logged by the bus, never
	// propagated back to the operation that emitted the event.
	Handle(event Event) error

	// InterestedIn returns the event types this handler wants to receive.
	// An empty slice means all events.
	InterestedIn() []EventType
}

// EventPublisher publishes domain events to interested handlers.
type EventPublisher interface {
	Publish(event Event) error
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc struct {
	Types []EventType
	Fn    func(event Event) error
}

// Handle implements EventHandler.
func (h EventHandlerFunc) Handle(event Event) error {
	return h.Fn(event)
}

// InterestedIn implements EventHandler.
func (h EventHandlerFunc) InterestedIn() []EventType {
	return h.Types
}
