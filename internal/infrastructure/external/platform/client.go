package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2/clientcredentials"

	apperrors "github.com/tuanphamdev/meeting-scribe/errors"
	"github.com/tuanphamdev/meeting-scribe/pkg/config"
)

// API is the surface of the meeting/chat platform this bot consumes. The
// platform itself is opaque; only this interface matters to the core.
type API interface {
	GetMeetingDetails(ctx context.Context, meetingID string) (*MeetingDetails, error)
	GetParticipants(ctx context.Context, meetingID string) ([]Participant, error)
	PostChatMessage(ctx context.Context, meetingID, text string) error
	SendPrivateNotification(ctx context.Context, userID string, card *Card) error

	// GetTranscriptContent returns all completed caption content for the
	// meeting (polling mode). Not-found means transcription has not started.
	GetTranscriptContent(ctx context.Context, meetingID string) (string, error)

	// FetchTranscript retrieves one transcript's content out-of-band after a
	// change notification named it (webhook mode).
	FetchTranscript(ctx context.Context, meetingID, transcriptID string) (string, error)

	CreateSubscription(ctx context.Context, resource, callbackURL, clientState string, ttl time.Duration) (*Subscription, error)
	RenewSubscription(ctx context.Context, subscriptionID string, extend time.Duration) (*Subscription, error)
	DeleteSubscription(ctx context.Context, subscriptionID string) error
}

// Client talks to the platform's REST API with OAuth2 client credentials
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a platform API client. The underlying HTTP client
// injects and refreshes the OAuth2 token automatically.
func NewClient(cfg *config.PlatformConfig) *Client {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}

	httpClient := cc.Client(context.Background())
	httpClient.Timeout = time.Duration(cfg.TimeoutSecs) * time.Second

	return &Client{
		baseURL: cfg.BaseURL,
		http:    httpClient,
	}
}

// GetMeetingDetails fetches meeting metadata
func (c *Client) GetMeetingDetails(ctx context.Context, meetingID string) (*MeetingDetails, error) {
	var details MeetingDetails
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/meetings/%s", meetingID), meetingID, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetParticipants fetches the current participant roster
func (c *Client) GetParticipants(ctx context.Context, meetingID string) ([]Participant, error) {
	var out struct {
		Value []Participant `json:"value"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/meetings/%s/participants", meetingID), meetingID, &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

// PostChatMessage posts a message into the meeting's chat
func (c *Client) PostChatMessage(ctx context.Context, meetingID, text string) error {
	body := map[string]string{"content": text}
	return c.postWithRetry(ctx, fmt.Sprintf("/v1/meetings/%s/chat/messages", meetingID), body)
}

// SendPrivateNotification delivers a card to a single user
func (c *Client) SendPrivateNotification(ctx context.Context, userID string, card *Card) error {
	return c.postWithRetry(ctx, fmt.Sprintf("/v1/users/%s/notifications", userID), card)
}

// GetTranscriptContent retrieves all completed caption content for a meeting
func (c *Client) GetTranscriptContent(ctx context.Context, meetingID string) (string, error) {
	return c.getText(ctx, fmt.Sprintf("/v1/meetings/%s/transcript/content", meetingID), meetingID)
}

// FetchTranscript retrieves one named transcript's content
func (c *Client) FetchTranscript(ctx context.Context, meetingID, transcriptID string) (string, error) {
	return c.getText(ctx, fmt.Sprintf("/v1/meetings/%s/transcripts/%s/content", meetingID, transcriptID), meetingID)
}

// CreateSubscription registers a change-notification subscription
func (c *Client) CreateSubscription(ctx context.Context, resource, callbackURL, clientState string, ttl time.Duration) (*Subscription, error) {
	body := map[string]interface{}{
		"resource":           resource,
		"notificationUrl":    callbackURL,
		"clientState":        clientState,
		"expirationDateTime": time.Now().Add(ttl).UTC().Format(time.RFC3339),
	}

	var sub Subscription
	if err := c.doJSON(ctx, http.MethodPost, "/v1/subscriptions", "", body, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// RenewSubscription extends a subscription's expiry
func (c *Client) RenewSubscription(ctx context.Context, subscriptionID string, extend time.Duration) (*Subscription, error) {
	body := map[string]interface{}{
		"expirationDateTime": time.Now().Add(extend).UTC().Format(time.RFC3339),
	}

	var sub Subscription
	if err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/v1/subscriptions/%s", subscriptionID), "", body, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// DeleteSubscription removes a subscription at the provider
func (c *Client) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/v1/subscriptions/%s", subscriptionID), "", nil, nil)
}

// getJSON issues a GET and decodes a JSON response
func (c *Client) getJSON(ctx context.Context, path, meetingID string, out interface{}) error {
	return c.doJSON(ctx, http.MethodGet, path, meetingID, nil, out)
}

// getText issues a GET and returns the raw body as text
func (c *Client) getText(ctx context.Context, path, meetingID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", apperrors.ErrPlatformAPIFailed(path, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperrors.ErrSourceTransient(err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, meetingID); err != nil {
		return "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.ErrSourceTransient(err)
	}
	return string(body), nil
}

// doJSON issues a request with an optional JSON body and decodes the reply
func (c *Client) doJSON(ctx context.Context, method, path, meetingID string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return apperrors.ErrPlatformAPIFailed(path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.ErrPlatformAPIFailed(path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.ErrSourceTransient(err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, meetingID); err != nil {
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperrors.ErrPlatformAPIFailed(path, err)
		}
	}
	return nil
}

// postWithRetry posts JSON, retrying transient failures briefly so one
// hiccup does not drop a chat message or notification.
func (c *Client) postWithRetry(ctx context.Context, path string, body interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 15 * time.Second

	return backoff.Retry(func() error {
		err := c.doJSON(ctx, http.MethodPost, path, "", body, nil)
		if err != nil && !apperrors.HasCode(err, apperrors.ErrorCode_SOURCE_TRANSIENT) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
}

// checkStatus maps HTTP status codes onto the error taxonomy
func (c *Client) checkStatus(resp *http.Response, meetingID string) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.ErrSourceNotAvailable(meetingID)
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := 2 * time.Second
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := strconv.Atoi(v); err == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return apperrors.ErrSourceRateLimited(retryAfter)
	case resp.StatusCode >= 500:
		return apperrors.ErrSourceTransient(fmt.Errorf("platform returned status %d", resp.StatusCode))
	default:
		return apperrors.ErrPlatformAPIFailed(resp.Request.URL.Path, fmt.Errorf("platform returned status %d", resp.StatusCode))
	}
}
