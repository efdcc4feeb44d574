package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"communityevents/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	byID      map[string]*domain.Event
	nextID    int
	createErr error
	listErr   error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		byID:   make(map[string]*domain.Event),
		nextID: 1,
	}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	for _, e := range f.byID {
		if e.Slug == slug {
			return e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) GetByPublishID(ctx context.Context, publishID string) (*domain.Event, error) {
	for _, e := range f.byID {
		if e.PublishID == publishID {
			return e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) List(ctx context.Context) ([]*domain.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.Event, 0, len(f.byID))
	for _, e := range f.byID {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventRepo) MarkPublished(ctx context.Context, id string) (*domain.Event, bool, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, false, domain.ErrNotFound
	}
	if e.Published() {
		return e, false, nil
	}
	e.Status = domain.StatusPublished
	now := time.Now().UTC()
	e.PublishedAt = &now
	return e, true, nil
}

// fakeNotifications counts dispatches and can fail per channel.
type fakeNotifications struct {
	moderationCalls int
	broadcastCalls  int
	socialCalls     int
	moderationErr   error
	broadcastErr    error
	socialErr       error
}

func (f *fakeNotifications) NotifyModerators(ctx context.Context, e *domain.Event) error {
	f.moderationCalls++
	return f.moderationErr
}

func (f *fakeNotifications) BroadcastPublication(ctx context.Context, e *domain.Event) error {
	f.broadcastCalls++
	return f.broadcastErr
}

func (f *fakeNotifications) PostSocial(ctx context.Context, e *domain.Event) error {
	f.socialCalls++
	return f.socialErr
}

func newTestService(repo *fakeEventRepo, notifs *fakeNotifications) domain.EventService {
	return NewEventService(repo, notifs, testLogger, time.Second)
}

func submitInput(date time.Time) domain.SubmitEventInput {
	return domain.SubmitEventInput{
		Title:       "Go Meetup",
		Description: "Talks and beers",
		Link:        "https://example.org/meetup",
		Hashtag:     "gomeetup",
		Date:        date,
	}
}

func TestSubmitCreatesDraft(t *testing.T) {
	repo := newFakeEventRepo()
	notifs := &fakeNotifications{}
	svc := newTestService(repo, notifs)

	date := time.Date(2001, 1, 1, 12, 0, 0, 0, time.UTC)
	event, err := svc.Submit(context.Background(), submitInput(date))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDraft, event.Status)
	assert.NotEmpty(t, event.ID)
	assert.NotEmpty(t, event.Slug)
	assert.NotEmpty(t, event.PublishID)
	assert.Equal(t, date, event.Date)
	assert.Equal(t, 1, notifs.moderationCalls)
}

func TestSubmitSlugDerivedFromTitle(t *testing.T) {
	repo := newFakeEventRepo()
	svc := newTestService(repo, &fakeNotifications{})

	input := submitInput(time.Now().UTC())
	input.Title = "Gophers @ Valencia 2016!"
	event, err := svc.Submit(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "gophers-valencia-2016", event.Slug)

	// A second event with the same title gets a disambiguated slug.
	second, err := svc.Submit(context.Background(), input)
	require.NoError(t, err)
	assert.NotEqual(t, event.Slug, second.Slug)
	assert.Contains(t, second.Slug, "gophers-valencia-2016-")
}

func TestSubmitSucceedsWhenModerationMailFails(t *testing.T) {
	repo := newFakeEventRepo()
	notifs := &fakeNotifications{moderationErr: errors.New("smtp down")}
	svc := newTestService(repo, notifs)

	event, err := svc.Submit(context.Background(), submitInput(time.Now().UTC()))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, event.Status)
	assert.Len(t, repo.byID, 1)
}

func TestSubmitValidation(t *testing.T) {
	svc := newTestService(newFakeEventRepo(), &fakeNotifications{})

	noTitle := submitInput(time.Now().UTC())
	noTitle.Title = ""
	_, err := svc.Submit(context.Background(), noTitle)
	require.Error(t, err)

	noDate := submitInput(time.Time{})
	_, err = svc.Submit(context.Background(), noDate)
	require.Error(t, err)
}

func TestPublishUnknownToken(t *testing.T) {
	svc := newTestService(newFakeEventRepo(), &fakeNotifications{})

	_, err := svc.Publish(context.Background(), "missing-id")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPublishTransitionsAndDispatchesOnce(t *testing.T) {
	repo := newFakeEventRepo()
	notifs := &fakeNotifications{}
	svc := newTestService(repo, notifs)

	draft, err := svc.Submit(context.Background(), submitInput(time.Now().UTC()))
	require.NoError(t, err)

	published, err := svc.Publish(context.Background(), draft.PublishID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)
	assert.Equal(t, 1, notifs.broadcastCalls)
	assert.Equal(t, 1, notifs.socialCalls)

	// Second publish with the same token: same event back, no new dispatch.
	again, err := svc.Publish(context.Background(), draft.PublishID)
	require.NoError(t, err)
	assert.Equal(t, published.ID, again.ID)
	assert.Equal(t, domain.StatusPublished, again.Status)
	assert.Equal(t, 1, notifs.broadcastCalls)
	assert.Equal(t, 1, notifs.socialCalls)
}

func TestPublishPartialFailureKeepsEventPublished(t *testing.T) {
	repo := newFakeEventRepo()
	notifs := &fakeNotifications{broadcastErr: errors.New("ses throttled")}
	svc := newTestService(repo, notifs)

	draft, err := svc.Submit(context.Background(), submitInput(time.Now().UTC()))
	require.NoError(t, err)

	published, err := svc.Publish(context.Background(), draft.PublishID)
	require.Error(t, err)
	pe, ok := domain.AsPartialPublish(err)
	require.True(t, ok)
	require.Len(t, pe.Failures, 1)
	assert.Equal(t, "broadcast", pe.Failures[0].Channel)

	// The transition is not rolled back and the social post still went out.
	require.NotNil(t, published)
	assert.Equal(t, domain.StatusPublished, published.Status)
	assert.Equal(t, 1, notifs.socialCalls)
}

func TestPublishBothChannelsFailIndependently(t *testing.T) {
	repo := newFakeEventRepo()
	notifs := &fakeNotifications{
		broadcastErr: errors.New("ses down"),
		socialErr:    errors.New("api down"),
	}
	svc := newTestService(repo, notifs)

	draft, err := svc.Submit(context.Background(), submitInput(time.Now().UTC()))
	require.NoError(t, err)

	_, err = svc.Publish(context.Background(), draft.PublishID)
	pe, ok := domain.AsPartialPublish(err)
	require.True(t, ok)
	assert.Len(t, pe.Failures, 2)
	assert.Equal(t, 1, notifs.broadcastCalls)
	assert.Equal(t, 1, notifs.socialCalls)
}

func TestListEventsByMonth(t *testing.T) {
	repo := newFakeEventRepo()
	svc := newTestService(repo, &fakeNotifications{})

	dates := []time.Time{
		time.Date(2016, 1, 31, 23, 59, 0, 0, time.UTC),
		time.Date(2016, 2, 15, 10, 0, 0, 0, time.UTC),
		time.Date(2016, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		input := submitInput(d)
		input.Title = fmt.Sprintf("Event %d", i)
		_, err := svc.Submit(context.Background(), input)
		require.NoError(t, err)
	}

	events, err := svc.ListEvents(context.Background(), domain.EventFilter{Year: 2016, Month: 2})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, dates[1], events[0].Date)
}

func TestListEventsInvalidPeriod(t *testing.T) {
	repo := newFakeEventRepo()
	svc := newTestService(repo, &fakeNotifications{})

	_, err := svc.ListEvents(context.Background(), domain.EventFilter{Year: 20140, Month: 1})
	require.ErrorIs(t, err, domain.ErrInvalidPeriod)

	_, err = svc.ListEvents(context.Background(), domain.EventFilter{Year: 2016, Month: 13})
	require.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestListEventsByCategory(t *testing.T) {
	repo := newFakeEventRepo()
	svc := newTestService(repo, &fakeNotifications{})

	past := submitInput(time.Now().UTC().Add(-48 * time.Hour))
	past.Title = "Past event"
	_, err := svc.Submit(context.Background(), past)
	require.NoError(t, err)

	future := submitInput(time.Now().UTC().Add(48 * time.Hour))
	future.Title = "Future event"
	_, err = svc.Submit(context.Background(), future)
	require.NoError(t, err)

	upcoming, err := svc.ListEvents(context.Background(), domain.EventFilter{Category: "upcoming"})
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Future event", upcoming[0].Title)

	recent, err := svc.ListEvents(context.Background(), domain.EventFilter{Category: "past"})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Past event", recent[0].Title)

	all, err := svc.ListEvents(context.Background(), domain.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetBySlug(t *testing.T) {
	repo := newFakeEventRepo()
	svc := newTestService(repo, &fakeNotifications{})

	created, err := svc.Submit(context.Background(), submitInput(time.Now().UTC()))
	require.NoError(t, err)

	got, err := svc.GetBySlug(context.Background(), created.Slug)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.GetBySlug(context.Background(), "no-such-slug")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Title", "title"},
		{"Gophers @ Valencia 2016!", "gophers-valencia-2016"},
		{"  spaced   out  ", "spaced-out"},
		{"???", "event"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.title), tt.title)
	}
}
