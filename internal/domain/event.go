package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for event operations.
var (
	ErrNotFound      = errors.New("event not found")
	ErrInvalidPeriod = errors.New("invalid year/month period")
	ErrDuplicateSlug = errors.New("slug already in use")
)

// EventStatus is the publication state of an event.
type EventStatus string

const (
	StatusDraft     EventStatus = "draft"
	StatusPublished EventStatus = "published"
)

// Event represents a community event submission.
// Status starts at draft and moves to published exactly once; PublishID is
// the opaque token that authorizes that transition.
// swagger:model Event
type Event struct {
	ID          string      `json:"id"`
	Slug        string      `json:"slug"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Link        string      `json:"link"`
	Hashtag     string      `json:"hashtag"`
	Date        time.Time   `json:"date"`
	Status      EventStatus `json:"status"`
	PublishID   string      `json:"-"`
	CreatedAt   time.Time   `json:"created_at"`
	PublishedAt *time.Time  `json:"published_at,omitempty"`
}

// NewEvent returns a draft Event with the given fields. ID is typically set
// by the repository on create; Date is always kept in UTC.
func NewEvent(title, description, link, hashtag string, date time.Time, slug, publishID string, createdAt time.Time) *Event {
	return &Event{
		Slug:        slug,
		Title:       title,
		Description: description,
		Link:        link,
		Hashtag:     hashtag,
		Date:        date.UTC(),
		Status:      StatusDraft,
		PublishID:   publishID,
		CreatedAt:   createdAt,
	}
}

// Published reports whether the event has already been published.
func (e *Event) Published() bool {
	return e.Status == StatusPublished
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetBySlug(ctx context.Context, slug string) (*Event, error)
	GetByPublishID(ctx context.Context, publishID string) (*Event, error)
	List(ctx context.Context) ([]*Event, error)
	// MarkPublished sets status to published with compare-and-set semantics.
	// It is idempotent: when the event is already published it returns the
	// current row unchanged with transitioned=false. Exactly one of any set
	// of concurrent calls for the same id observes transitioned=true.
	MarkPublished(ctx context.Context, id string) (event *Event, transitioned bool, err error)
}

// EventFilter selects a subset of events for listing. The zero value means
// all events. Category and Year/Month are mutually exclusive; Category wins.
type EventFilter struct {
	Category string // "upcoming" or "past", empty for none
	Year     int
	Month    int
}

// SubmitEventInput carries the caller-provided fields for a new submission.
type SubmitEventInput struct {
	Title       string
	Description string
	Link        string
	Hashtag     string
	Date        time.Time
}

// EventService defines the entry points exposed to the delivery layer.
type EventService interface {
	// Submit creates a draft event and best-effort notifies the moderators.
	Submit(ctx context.Context, input SubmitEventInput) (*Event, error)
	// Publish performs the one-way draft to published transition for the
	// event matching the given publish token, then dispatches the public
	// announcements. Re-publishing is a no-op success. A committed transition
	// with failed announcements returns the event plus a *PartialPublishError.
	Publish(ctx context.Context, publishID string) (*Event, error)
	GetBySlug(ctx context.Context, slug string) (*Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]*Event, error)
}
