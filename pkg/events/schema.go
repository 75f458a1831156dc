package events

// EventType defines the type of event
type EventType string

const (
	EventTypeProviderUpserted EventType = "provider.upserted"
	EventTypeProviderDeleted  EventType = "provider.deleted"
	EventTypeProviderMatched  EventType = "provider.matched"
	EventTypeFeePropagated    EventType = "provider.fee_propagated"
)
