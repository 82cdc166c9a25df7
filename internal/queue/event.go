// Package queue defines the change events exchanged over the message
// broker and the consumer that records them.
package queue

import "time"

// Entities named in change events.
const (
	EntityArea    = "area"
	EntitySubArea = "sub_area"
	EntityLogin   = "login"
	EntityMessage = "mensaje"
)

// Actions named in change events.
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionStatusChanged = "status_changed"
	ActionDeleted       = "deleted"
)

// ChangeEvent is published after a write succeeds.  It carries enough to
// audit the change without reading the database.
type ChangeEvent struct {
	Entity       string    `json:"entity"`
	Action       string    `json:"action"`
	ID           int64     `json:"id"`
	AffectedRows int64     `json:"affected_rows"`
	At           time.Time `json:"at"`
}

// NewChangeEvent stamps an event with the current UTC time.
func NewChangeEvent(entity, action string, id, affected int64) ChangeEvent {
	return ChangeEvent{Entity: entity, Action: action, ID: id, AffectedRows: affected, At: time.Now().UTC()}
}
