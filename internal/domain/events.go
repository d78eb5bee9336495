package domain

import "time"

// Collection names a logical document collection.
type Collection string

const (
	CollectionGifts         Collection = "gifts"
	CollectionContributions Collection = "contributions"
)

// ChangeOp is the kind of mutation that produced a change event.
type ChangeOp string

const (
	OpCreated ChangeOp = "created"
	OpUpdated ChangeOp = "updated"
	OpDeleted ChangeOp = "deleted"
)

// ChangeEvent announces a committed mutation of one record.
type ChangeEvent struct {
	Collection Collection `json:"collection"`
	Op         ChangeOp   `json:"op"`
	ID         string     `json:"id"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// RoutingKey returns the topic routing key, e.g. "contribution.updated".
func (e ChangeEvent) RoutingKey() string {
	switch e.Collection {
	case CollectionGifts:
		return "gift." + string(e.Op)
	default:
		return "contribution." + string(e.Op)
	}
}

// NewChangeEvent stamps a change event with the current time.
func NewChangeEvent(collection Collection, op ChangeOp, id string) ChangeEvent {
	return ChangeEvent{Collection: collection, Op: op, ID: id, OccurredAt: time.Now().UTC()}
}
