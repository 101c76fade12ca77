package store

import "context"

// EventStoreInterface defines the interface for event stores
type EventStoreInterface interface {
	// Append stores one event for the aggregate iff the aggregate is still
	// at expectedVersion, otherwise it fails with ErrVersionConflict.
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any, expectedVersion int) (*Event, error)

	// GetEvents returns all events for an aggregate, version-ordered
	GetEvents(aggregateID string) []Event

	// GetAllEvents returns every stored event (used for replay)
	GetAllEvents() []Event

	// GetEventsFromVersion returns the events appended after fromVersion
	GetEventsFromVersion(ctx context.Context, aggregateID string, fromVersion int) []Event

	// GetSnapshot returns the latest snapshot for an aggregate, nil if none
	GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error)

	// SaveSnapshot stores a snapshot
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
}
