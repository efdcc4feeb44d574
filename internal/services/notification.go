package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"communityevents/internal/domain"
)

// displayTimeLayout renders instants for human-facing notification bodies.
// Stored dates and comparisons stay in UTC; only presentation uses this.
const displayTimeLayout = "02/01/2006 15:04"

// NotificationConfig holds the recipients and endpoints for outbound
// notifications. An empty field disables its channel (documented no-op).
type NotificationConfig struct {
	ModerationEmail string // recipient of the "please approve" mail
	BroadcastEmail  string // recipient of the public announcement mail
	PublishBaseURL  string // base URL for publish links in moderation mails
	DisplayTimezone string // IANA name, defaults to Europe/Madrid
}

type notificationService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	poster   domain.SocialPoster
	config   NotificationConfig
	location *time.Location
}

// NewNotificationService returns a NotificationService that formats event
// instants in the configured display timezone and delivers through the given
// mailer, template renderer, and social poster.
func NewNotificationService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, poster domain.SocialPoster, config NotificationConfig) (domain.NotificationService, error) {
	tz := config.DisplayTimezone
	if tz == "" {
		tz = "Europe/Madrid"
	}
	location, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load display timezone %q: %w", tz, err)
	}
	return &notificationService{
		mailer:   mailer,
		renderer: renderer,
		poster:   poster,
		config:   config,
		location: location,
	}, nil
}

// NotifyModerators sends the moderation mail with the publish link for the
// event. Skipped silently when no moderation recipient is configured.
func (s *notificationService) NotifyModerators(ctx context.Context, event *domain.Event) error {
	if s.config.ModerationEmail == "" {
		return nil
	}
	data := &domain.PublishRequestEmailData{
		Title:       event.Title,
		Description: event.Description,
		Hashtag:     event.Hashtag,
		Link:        event.Link,
		LocalTime:   s.localTime(event),
		PublishURL:  s.publishURL(event),
	}
	subject, htmlBody, textBody, err := s.renderer.Render("publish_request", data)
	if err != nil {
		return fmt.Errorf("render publish_request template: %w", err)
	}
	if err := s.mailer.Send(s.config.ModerationEmail, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("send moderation email: %w", err)
	}
	log.Printf("[EMAIL] Moderation mail sent for event %s", event.ID)
	return nil
}

// BroadcastPublication sends the public announcement mail. Skipped silently
// when no broadcast recipient is configured.
func (s *notificationService) BroadcastPublication(ctx context.Context, event *domain.Event) error {
	if s.config.BroadcastEmail == "" {
		return nil
	}
	data := &domain.BroadcastEmailData{
		Title:       event.Title,
		Description: event.Description,
		Link:        event.Link,
		LocalTime:   s.localTime(event),
	}
	subject, htmlBody, textBody, err := s.renderer.Render("broadcast", data)
	if err != nil {
		return fmt.Errorf("render broadcast template: %w", err)
	}
	if err := s.mailer.Send(s.config.BroadcastEmail, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("send broadcast email: %w", err)
	}
	log.Printf("[EMAIL] Broadcast mail sent for event %s", event.ID)
	return nil
}

// PostSocial publishes the announcement status update.
func (s *notificationService) PostSocial(ctx context.Context, event *domain.Event) error {
	message := event.Title + " " + s.localTime(event)
	if event.Link != "" {
		message += " " + event.Link
	}
	if event.Hashtag != "" {
		message += " #" + strings.TrimPrefix(event.Hashtag, "#")
	}
	if err := s.poster.Post(ctx, message); err != nil {
		return fmt.Errorf("post social update: %w", err)
	}
	return nil
}

func (s *notificationService) localTime(event *domain.Event) string {
	return event.Date.UTC().In(s.location).Format(displayTimeLayout)
}

func (s *notificationService) publishURL(event *domain.Event) string {
	return strings.TrimSuffix(s.config.PublishBaseURL, "/") + "/v1/events/publish/" + event.PublishID
}
