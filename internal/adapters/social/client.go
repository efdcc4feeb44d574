package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"communityevents/internal/domain"
)

// Config holds configuration for the social posting client. An empty
// EndpointURL disables posting (no-op poster).
type Config struct {
	EndpointURL string
	AccessToken string
}

type httpPoster struct {
	client   *http.Client
	endpoint string
	token    string
}

// NewPoster returns a SocialPoster that publishes status updates to the
// configured endpoint, or a no-op poster when no endpoint is configured.
func NewPoster(client *http.Client, config Config) domain.SocialPoster {
	if config.EndpointURL == "" {
		return &noopPoster{}
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &httpPoster{client: client, endpoint: config.EndpointURL, token: config.AccessToken}
}

type statusRequest struct {
	Status string `json:"status"`
}

func (p *httpPoster) Post(ctx context.Context, message string) error {
	body, err := json.Marshal(statusRequest{Status: message})
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("social api returned status: %d", resp.StatusCode)
	}
	return nil
}

type noopPoster struct{}

func (n *noopPoster) Post(ctx context.Context, message string) error {
	log.Println("[SOCIAL] Status would be posted (noop)", "message", message)
	return nil
}
