// Package api implements the HTTP client for the incident backend: status
// fetch, analysis trigger, and the adjacent resolve action. The client is
// the only component that talks to the REST surface; the live feed has its
// own transport.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/oncallops/incidentwatch/internal/types"
)

// Config holds client configuration.
type Config struct {
	// BaseURL is the backend API base, e.g. "https://ops.example.com/api"
	BaseURL string
	// Timeout bounds each request. Default: 10s
	Timeout time.Duration
	// RequestsPerSecond caps the client's request rate across all
	// operations. Default: 10
	RequestsPerSecond float64
}

// Client is the incident backend API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logrus.Logger
}

// NewClient creates an API client for the given backend.
func NewClient(cfg Config, log *logrus.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if log == nil {
		log = logrus.New()
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)),
		log:     log,
	}
}

// statusResponse is the wire shape of GET /incidents/{id}.
type statusResponse struct {
	Incident types.Incident   `json:"incident"`
	Logs     []types.LogEntry `json:"logs"`
}

// GetIncident fetches the current incident snapshot and its recent logs.
// Network failures and non-2xx responses return a *TransientError so the
// poll loop can log and keep ticking.
func (c *Client) GetIncident(ctx context.Context, incidentID string) (*types.Incident, []types.LogEntry, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	url := fmt.Sprintf("%s/incidents/%s", c.baseURL, incidentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &TransientError{Op: "get incident", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, nil, &TransientError{Op: "get incident", StatusCode: resp.StatusCode}
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, nil, &TransientError{Op: "get incident", Err: fmt.Errorf("decoding response: %w", err)}
	}

	c.log.WithFields(logrus.Fields{
		"incident": incidentID,
		"status":   status.Incident.Status,
		"resolved": status.Incident.HasRootCause(),
	}).Debug("Fetched incident snapshot")

	return &status.Incident, status.Logs, nil
}

// TriggerAnalysis asks the backend to (re)start root cause analysis for the
// incident. The response is a fire-and-forget acknowledgment; progress is
// observed through polling and the live feed.
func (c *Client) TriggerAnalysis(ctx context.Context, incidentID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/incidents/%s/analyze", c.baseURL, incidentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("triggering analysis: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("triggering analysis: unexpected status %d", resp.StatusCode)
	}

	c.log.WithField("incident", incidentID).Info("Analysis triggered")
	return nil
}

// ResolveIncident marks the incident RESOLVED. This is an adjacent operator
// action, not part of the analysis observation protocol.
func (c *Client) ResolveIncident(ctx context.Context, incidentID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{"status": string(types.StatusResolved)})
	if err != nil {
		return fmt.Errorf("marshaling patch: %w", err)
	}

	url := fmt.Sprintf("%s/incidents/%s", c.baseURL, incidentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resolving incident: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("resolving incident: unexpected status %d", resp.StatusCode)
	}

	c.log.WithField("incident", incidentID).Info("Incident marked resolved")
	return nil
}
