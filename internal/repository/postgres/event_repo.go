package postgres

import (
	"context"
	"database/sql"
	"errors"

	"communityevents/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `id, slug, title, description, link, hashtag, date, status, publish_id, created_at, published_at`

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (slug, title, description, link, hashtag, date, status, publish_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.Slug, e.Title, e.Description, e.Link, e.Hashtag, e.Date, string(e.Status), e.PublishID, e.CreatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *eventRepository) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE slug = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, slug))
}

func (r *eventRepository) GetByPublishID(ctx context.Context, publishID string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE publish_id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, publishID))
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY date ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// MarkPublished flips status to published with compare-and-set semantics.
// The UPDATE only matches a draft row; zero rows means the event is either
// already published or missing, so the current row is re-read and returned
// unchanged with transitioned=false.
func (r *eventRepository) MarkPublished(ctx context.Context, id string) (*domain.Event, bool, error) {
	query := `
		UPDATE events SET status = 'published', published_at = NOW()
		WHERE id = $1 AND status = 'draft'
		RETURNING ` + eventColumns + `
	`
	e, err := r.scanOne(r.DB.QueryRowContext(ctx, query, id))
	if err == nil {
		return e, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	e, err = r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return e, false, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *eventRepository) scanOne(row rowScanner) (*domain.Event, error) {
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var status string
	var publishedAt sql.NullTime
	err := row.Scan(
		&e.ID, &e.Slug, &e.Title, &e.Description, &e.Link, &e.Hashtag,
		&e.Date, &status, &e.PublishID, &e.CreatedAt, &publishedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Status = domain.EventStatus(status)
	e.Date = e.Date.UTC()
	if publishedAt.Valid {
		t := publishedAt.Time
		e.PublishedAt = &t
	}
	return e, nil
}
