package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sungwon/email-dispatch/internal/models"
)

// ErrEmptySlug is returned when a template is requested without a slug.
var ErrEmptySlug = errors.New("template slug is required")

// UpstreamError indicates the template service was unreachable, timed out,
// or reported a business-level failure.
type UpstreamError struct {
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("template service: %s: %v", e.Message, e.Err)
	}
	return "template service: " + e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

type templateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	} `json:"data"`
}

// Client fetches active templates from the external template service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client for the template service at baseURL.
// A non-positive timeout defaults to 5 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Resolve fetches the active template for (slug, locale). The locale query
// parameter is omitted when empty. The returned subject defaults to the slug
// and the body to the empty string when the service leaves them unset.
// A single failed fetch propagates immediately; retrying is the caller's call.
func (c *Client) Resolve(ctx context.Context, slug, locale string) (*models.Template, error) {
	if slug == "" {
		return nil, ErrEmptySlug
	}

	endpoint := fmt.Sprintf("%s/v1/templates/%s/active", c.baseURL, url.PathEscape(slug))
	if locale != "" {
		endpoint += "?locale=" + url.QueryEscape(locale)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &UpstreamError{Message: "build request", Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var payload templateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &UpstreamError{Message: "decode response", Err: err}
	}

	if !payload.Success {
		msg := payload.Message
		if msg == "" {
			msg = "template service error"
		}
		return nil, &UpstreamError{Message: msg}
	}

	tpl := &models.Template{Subject: slug}
	if payload.Data != nil {
		if payload.Data.Subject != "" {
			tpl.Subject = payload.Data.Subject
		}
		tpl.Body = payload.Data.Body
	}
	return tpl, nil
}
