package model

import "time"

// EventType names a link lifecycle transition.
type EventType string

const (
	EventLinkCreated     EventType = "created"
	EventLinkDeactivated EventType = "deactivated"
	EventLinkReactivated EventType = "reactivated"
)

// LinkEvent is published whenever a link is created or changes state.
// Secret keys are never part of an event.
type LinkEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Key       string    `json:"key"`
	TargetURL string    `json:"target_url"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	LinkStreamName     = "LINKS"
	LinkStreamSubjects = "links.>"
	LinkConsumerName   = "link-audit"
	LinkStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)

// Subject is the JetStream subject an event of this type is published on.
func (t EventType) Subject() string {
	return "links." + string(t)
}
