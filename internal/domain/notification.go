package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// SocialPoster publishes a short status update to a social network.
type SocialPoster interface {
	Post(ctx context.Context, message string) error
}

// PublishRequestEmailData holds data for the moderation "please approve" email.
type PublishRequestEmailData struct {
	Title       string
	Description string
	Hashtag     string
	Link        string
	LocalTime   string
	PublishURL  string
}

// BroadcastEmailData holds data for the public announcement email.
type BroadcastEmailData struct {
	Title       string
	Description string
	Link        string
	LocalTime   string
}

// NotificationService defines the contract for the outbound messages of the
// event lifecycle. Every method is a documented no-op when its channel is not
// configured.
type NotificationService interface {
	NotifyModerators(ctx context.Context, event *Event) error
	BroadcastPublication(ctx context.Context, event *Event) error
	PostSocial(ctx context.Context, event *Event) error
}

// NotificationError records the failure of a single dispatch channel.
type NotificationError struct {
	Channel string // "moderation", "broadcast" or "social"
	Err     error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("%s notification failed: %v", e.Channel, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// PartialPublishError signals that a publish transition committed but at
// least one announcement channel failed. The event stays published; callers
// treat this as degraded success and alert operators.
type PartialPublishError struct {
	Failures []*NotificationError
}

func (e *PartialPublishError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return "event published with failed notifications: " + strings.Join(msgs, "; ")
}

// AsPartialPublish unwraps err as a *PartialPublishError if it is one.
func AsPartialPublish(err error) (*PartialPublishError, bool) {
	var pe *PartialPublishError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
