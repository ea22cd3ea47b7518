package model

import "time"

type EventType string

const (
	EventCreate EventType = "CREATE"
	EventWrite  EventType = "WRITE"
	EventRemove EventType = "REMOVE"
	EventRename EventType = "RENAME"
)

// FileEvent is one filesystem change observed under a watched project
// subtree. Package names the configured package whose mapping covers Path.
type FileEvent struct {
	Type      EventType
	Package   string
	Path      string
	Timestamp time.Time
}
