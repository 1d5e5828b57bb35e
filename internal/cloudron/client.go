package cloudron

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"cloudronwatch/internal/config"
	"cloudronwatch/internal/services"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 2048
	component      = "cloudron"
)

// HTTPDoer is the subset of *http.Client used by the client.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	BaseURL            string
	Token              string
	Timeout            time.Duration
	InsecureSkipVerify bool
	UserAgent          string
	HTTPClient         HTTPDoer
}

// Client talks to the Cloudron management API.
type Client struct {
	baseURL   string
	token     string
	userAgent string
	http      HTTPDoer
}

// NewClient builds a Client. When opts.HTTPClient is nil a client honouring
// Timeout and InsecureSkipVerify is created.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	doer := opts.HTTPClient
	if doer == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if opts.InsecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // operator opt-in for self-signed instances
		}
		doer = &http.Client{Timeout: timeout, Transport: transport}
	}
	agent := strings.TrimSpace(opts.UserAgent)
	if agent == "" {
		agent = "cloudronwatch"
	}
	return &Client{
		baseURL:   strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		token:     strings.TrimSpace(opts.Token),
		userAgent: agent,
		http:      doer,
	}
}

// NewFromConfig builds a Client from loaded settings.
func NewFromConfig(cfg *config.Config, version string) *Client {
	agent := "cloudronwatch"
	if v := strings.TrimSpace(version); v != "" {
		agent += "/" + v
	}
	return NewClient(Options{
		BaseURL:            cfg.APIBaseURL(),
		Token:              cfg.Cloudron.Token,
		Timeout:            cfg.RequestTimeout(),
		InsecureSkipVerify: cfg.Cloudron.InsecureSkipVerify,
		UserAgent:          agent,
	})
}

// ListNotifications returns every notification, oldest first.
func (c *Client) ListNotifications(ctx context.Context) ([]Notification, error) {
	var envelope notificationsEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/v1/notifications", nil, &envelope, "list notifications"); err != nil {
		return nil, err
	}
	notifications := make([]Notification, 0, len(envelope.Notifications))
	for _, payload := range envelope.Notifications {
		notifications = append(notifications, payload.toNotification())
	}
	sort.SliceStable(notifications, func(i, j int) bool {
		a, b := notifications[i], notifications[j]
		// Unparseable timestamps sort after every parsed one.
		switch aZero, bZero := a.CreationTime.IsZero(), b.CreationTime.IsZero(); {
		case aZero && bZero:
			return a.RawCreationTime < b.RawCreationTime
		case aZero != bZero:
			return bZero
		}
		return a.CreationTime.Before(b.CreationTime)
	})
	return notifications, nil
}

// ListApps returns the status of every installed application.
func (c *Client) ListApps(ctx context.Context) ([]App, error) {
	var envelope appsEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/v1/apps", nil, &envelope, "list apps"); err != nil {
		return nil, err
	}
	apps := make([]App, 0, len(envelope.Apps))
	for _, payload := range envelope.Apps {
		apps = append(apps, payload.toApp())
	}
	return apps, nil
}

// Acknowledge marks a notification as processed.
func (c *Client) Acknowledge(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return services.Wrap(services.ErrAcknowledge, component, "acknowledge", "notification id is empty", nil)
	}
	body := map[string]bool{"acknowledged": true}
	err := c.do(ctx, http.MethodPost, "/api/v1/notifications/"+url.PathEscape(id), body, nil, "acknowledge")
	if err != nil {
		return fmt.Errorf("%w: %w", services.ErrAcknowledge, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any, operation string) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return services.Wrap(services.ErrProtocol, component, operation, "encode request", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, component, operation, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return services.Wrap(services.ErrTimeout, component, operation, "request timed out", err)
		}
		return services.Wrap(services.ErrNetwork, component, operation, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		message := fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		marker := services.ErrNetwork
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			marker = services.ErrAuthentication
		}
		return services.Wrap(marker, component, operation, message, nil)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrProtocol, component, operation, "decode response", err)
	}
	return nil
}

func isTimeout(err error) bool {
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}
