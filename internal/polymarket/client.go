// Package polymarket wraps the Gamma events API and the market-context
// enrichment endpoint.
package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/polydictions/bot/internal/logger"
	"github.com/polydictions/bot/internal/models"
)

// ErrEventNotFound is returned when a slug lookup matches nothing.
var ErrEventNotFound = errors.New("event not found")

const sourcesMarker = "__SOURCES__"

// ContextConfig bounds the market-context enrichment call.
type ContextConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	MinResponseLen int
}

// Client provides access to the Polymarket APIs.
type Client struct {
	gammaAPIURL   string
	siteURL       string
	httpClient    *http.Client
	contextClient *http.Client
	contextCfg    ContextConfig
}

// NewClient creates a Polymarket client. timeout applies to event list and
// lookup calls; enrichment uses its own, much longer, timeout.
func NewClient(gammaAPIURL, siteURL string, timeout time.Duration, contextCfg ContextConfig) *Client {
	return &Client{
		gammaAPIURL:   strings.TrimRight(gammaAPIURL, "/"),
		siteURL:       strings.TrimRight(siteURL, "/"),
		httpClient:    &http.Client{Timeout: timeout},
		contextClient: &http.Client{Timeout: contextCfg.Timeout},
		contextCfg:    contextCfg,
	}
}

// FetchRecentEvents retrieves up to limit open events, newest first.
// A non-200 status is a failure; there is no retry.
func (c *Client) FetchRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", "0")
	q.Set("closed", "false")
	q.Set("order", "new")
	return c.fetchEvents(ctx, q)
}

// FetchEventBySlug retrieves the event with the given slug, using the first
// match when the API returns several.
func (c *Client) FetchEventBySlug(ctx context.Context, slug string) (*models.Event, error) {
	q := url.Values{}
	q.Set("slug", slug)
	events, err := c.fetchEvents(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrEventNotFound
	}
	return &events[0], nil
}

func (c *Client) fetchEvents(ctx context.Context, query url.Values) ([]models.Event, error) {
	u := c.gammaAPIURL + "/events?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("events request failed with status %d", resp.StatusCode)
	}

	// Response is an array directly, not wrapped.
	var events []models.Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}

// FetchMarketContext retrieves the generated market-context narrative for an
// event. The prompt must be the event slug; the endpoint rejects question
// text. Retries (bounded by MaxRetries) cover timeouts, server errors, and
// suspiciously short responses.
func (c *Client) FetchMarketContext(ctx context.Context, eventSlug string) (string, error) {
	if eventSlug == "" {
		return "", errors.New("event slug is empty")
	}

	u := c.siteURL + "/api/grok/event-summary?prompt=" + url.QueryEscape(eventSlug)

	var lastErr error
	for attempt := 0; attempt <= c.contextCfg.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.Info("Retrying market context for %s (attempt %d/%d)", eventSlug, attempt+1, c.contextCfg.MaxRetries+1)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.contextCfg.RetryDelay):
			}
		}

		text, retriable, err := c.fetchContextOnce(ctx, u)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retriable {
			return "", err
		}
		logger.Warn("Market context attempt %d for %s failed: %v", attempt+1, eventSlug, err)
	}
	return "", fmt.Errorf("market context unavailable after %d attempts: %w", c.contextCfg.MaxRetries+1, lastErr)
}

// fetchContextOnce performs one enrichment request and reports whether a
// failure is worth retrying.
func (c *Client) fetchContextOnce(ctx context.Context, u string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")

	resp, err := c.contextClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", true, fmt.Errorf("request timed out: %w", err)
		}
		return "", false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("server error: %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("context request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("failed to read response: %w", err)
	}

	text := string(body)
	if len(text) < c.contextCfg.MinResponseLen {
		return "", true, fmt.Errorf("response too short: %d chars", len(text))
	}
	if idx := strings.Index(text, sourcesMarker); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text), false, nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

var eventURLPattern = regexp.MustCompile(`polymarket\.com/event/([a-zA-Z0-9\-]+)`)

// ParseEventURL extracts the event slug from a polymarket.com event URL.
func ParseEventURL(raw string) (string, bool) {
	m := eventURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}
