package domain

import (
	"time"
)

// Message roles as used inside the process. Persistent storage maps
// RoleModel to "assistant" on write and back on read.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message sources.
const (
	SourceUser  = "user"
	SourceModel = "model"
	SourceError = "error"
)

// Session is a conversation identified by an opaque key. Messages are
// append-only, ordered by arrival.
type Session struct {
	Key               string
	CreatedAt         time.Time
	LastActiveAt      time.Time
	Active            bool
	PreferredLanguage string
	Messages          []Message
}

// Message is a single conversation turn. Immutable once appended.
type Message struct {
	Role           string
	Content        string
	CreatedAt      time.Time
	Media          []MediaRef
	MediaCount     int
	Source         string
	Language       string
	ResponseTimeMs int64
}

// MediaRef is a lightweight pointer to a catalog item attached to a message.
type MediaRef struct {
	URL   string
	Title string
	Kind  MediaKind
}

// MessageMeta carries the optional attributes of an appended message.
type MessageMeta struct {
	Media          []MediaRef
	Source         string
	Language       string
	ResponseTimeMs int64
}
