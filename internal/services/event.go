package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"communityevents/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	notifications  domain.NotificationService
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewEventService returns the EventService backing the API entry points.
func NewEventService(eventRepo domain.EventRepository,
	notifications domain.NotificationService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		notifications:  notifications,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *eventService) Submit(ctx context.Context, input domain.SubmitEventInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if input.Title == "" {
		return nil, fmt.Errorf("event title is required")
	}
	if input.Date.IsZero() {
		return nil, fmt.Errorf("event date is required")
	}

	slug, err := s.availableSlug(ctx, input.Title)
	if err != nil {
		return nil, fmt.Errorf("derive slug: %w", err)
	}

	event := domain.NewEvent(
		input.Title, input.Description, input.Link, input.Hashtag,
		input.Date, slug, uuid.NewString(), time.Now().UTC(),
	)
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	// Submission success is not coupled to notification delivery.
	if err := s.notifications.NotifyModerators(ctx, event); err != nil {
		s.logger.Warn("moderation notification failed", "event_id", event.ID, "err", err)
	}

	return event, nil
}

func (s *eventService) Publish(ctx context.Context, publishID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByPublishID(ctx, publishID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	// Re-publishing is a no-op success: the announcements went out with the
	// first transition and must not be repeated.
	if event.Published() {
		return event, nil
	}

	published, transitioned, err := s.eventRepo.MarkPublished(ctx, event.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("mark published: %w", err)
	}
	// A concurrent publish won the compare-and-set and already dispatched.
	if !transitioned {
		return published, nil
	}

	// The transition is committed; announcement failures degrade the result
	// but never roll it back. Each channel gets its own attempt.
	var failures []*domain.NotificationError
	if err := s.notifications.BroadcastPublication(ctx, published); err != nil {
		s.logger.Error("broadcast failed", "event_id", published.ID, "err", err)
		failures = append(failures, &domain.NotificationError{Channel: "broadcast", Err: err})
	}
	if err := s.notifications.PostSocial(ctx, published); err != nil {
		s.logger.Error("social post failed", "event_id", published.ID, "err", err)
		failures = append(failures, &domain.NotificationError{Channel: "social", Err: err})
	}
	if len(failures) > 0 {
		return published, &domain.PartialPublishError{Failures: failures}
	}

	return published, nil
}

func (s *eventService) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event by slug: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	// Validate the period before touching storage so a bad filter can never
	// surface as a partial listing.
	if filter.Category == "" && (filter.Year != 0 || filter.Month != 0) {
		if _, _, err := domain.MonthWindow(filter.Year, filter.Month); err != nil {
			return nil, err
		}
	}

	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	now := time.Now().UTC()
	out := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		match, err := matchesFilter(e, filter, now)
		if err != nil {
			return nil, err
		}
		if match {
			out = append(out, e)
		}
	}
	return out, nil
}

func matchesFilter(e *domain.Event, filter domain.EventFilter, now time.Time) (bool, error) {
	switch {
	case filter.Category == "upcoming":
		return domain.IsUpcoming(e, now), nil
	case filter.Category == "past":
		return domain.IsPast(e, now), nil
	case filter.Year != 0 || filter.Month != 0:
		return domain.InMonth(e, filter.Year, filter.Month)
	default:
		return true, nil
	}
}

// availableSlug slugifies the title and, on collision with an existing event,
// appends a short random suffix until the slug is free.
func (s *eventService) availableSlug(ctx context.Context, title string) (string, error) {
	slug := slugify(title)
	for attempt := 0; attempt < 5; attempt++ {
		candidate := slug
		if attempt > 0 {
			code, err := generateSlugSuffix()
			if err != nil {
				return "", err
			}
			candidate = slug + "-" + code
		}
		_, err := s.eventRepo.GetBySlug(ctx, candidate)
		if errors.Is(err, domain.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", domain.ErrDuplicateSlug
}

// slugify lowercases the title and collapses anything that is not a letter
// or digit into single dashes.
func slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "event"
	}
	return out
}

const slugSuffixLength = 4

var slugSuffixAlphabet = []rune("abcdefghijklmnopqrstuvwxyz0123456789")

func generateSlugSuffix() (string, error) {
	b := make([]rune, slugSuffixLength)
	max := big.NewInt(int64(len(slugSuffixAlphabet)))
	for i := 0; i < slugSuffixLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = slugSuffixAlphabet[n.Int64()]
	}
	return string(b), nil
}
