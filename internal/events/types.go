// Package events provides a lightweight publish/subscribe bus for entity
// lifecycle notifications, with optional persistence of published events.
package events

import (
	"time"
)

// EventType identifies the kind of event.
type EventType string

const (
	// User lifecycle
	EventUserCreated    EventType = "user.created"
	EventProfileUpdated EventType = "profile.updated"

	// Social graph
	EventUserFollowed   EventType = "user.followed"
	EventUserUnfollowed EventType = "user.unfollowed"

	// Catalog
	EventMovieCreated EventType = "movie.created"

	// Reviews
	EventReviewCreated EventType = "review.created"
	EventReviewUpdated EventType = "review.updated"
	EventReviewDeleted EventType = "review.deleted"

	// System
	EventSystemStarted EventType = "system.started"
	EventSystemStopped EventType = "system.stopped"
)

// Event is a single bus message.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Handler consumes events delivered to a subscription.
type Handler func(event Event) error

// Filter selects which events a subscription receives. An empty filter
// matches everything.
type Filter struct {
	Types   []EventType `json:"types,omitempty"`
	Sources []string    `json:"sources,omitempty"`
}

// Matches reports whether the event passes the filter.
func (f Filter) Matches(event Event) bool {
	if len(f.Types) > 0 && !containsType(f.Types, event.Type) {
		return false
	}
	if len(f.Sources) > 0 && !containsString(f.Sources, event.Source) {
		return false
	}
	return true
}

func containsType(types []EventType, t EventType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func containsString(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// Subscription is a registered handler with its filter.
type Subscription struct {
	ID         string    `json:"id"`
	Filter     Filter    `json:"filter"`
	Handler    Handler   `json:"-"`
	Subscriber string    `json:"subscriber"`
	Created    time.Time `json:"created"`
}
