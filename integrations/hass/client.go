// Package hass is the reference integration: a Gateway and RemoteClient
// pair talking to a Home Assistant instance's REST API, per §6's "Remote
// client interface for HA-like integrations".
package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/hearthkeep/hub/internal/hubcore/errs"
	"github.com/hearthkeep/hub/internal/integration"
)

const (
	attrBaseURL    = "base_url"
	attrToken      = "token"
	defaultTimeout = 10 * time.Second
)

// Client talks to one Home Assistant instance's REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

var _ integration.RemoteClient = (*Client)(nil)

// NewClient builds a Client from resolved attribute values. Returns
// errs.IntegrationAttributeError if base_url or token is absent.
func NewClient(attrs map[string]string) (*Client, error) {
	baseURL := strings.TrimRight(attrs[attrBaseURL], "/")
	if baseURL == "" {
		return nil, errs.IntegrationAttributeError("hass", attrBaseURL, "must not be empty")
	}
	token := attrs[attrToken]
	if token == "" {
		return nil, errs.IntegrationAttributeError("hass", attrToken, "must not be empty")
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
		// Home Assistant's default rate limit guidance is generous for a
		// single polling/control client; this keeps a misconfigured
		// monitor interval from hammering the remote.
		limiter: rate.NewLimiter(rate.Limit(20), 40),
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("hass: encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("hass: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.ConnectionError("hass", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.ConnectionError("hass", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errs.ConnectionError("hass", fmt.Errorf("unauthorized: token rejected with status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 500 {
		return nil, errs.TemporaryError(fmt.Sprintf("hass: remote returned status %d", resp.StatusCode), nil)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("hass: request failed with status %d: %s", resp.StatusCode, string(data))
	}

	return data, nil
}

// States fetches GET /api/states and maps each record to a RemoteState.
func (c *Client) States(ctx context.Context) ([]integration.RemoteState, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/states", nil)
	if err != nil {
		return nil, err
	}

	results := gjson.ParseBytes(data).Array()
	out := make([]integration.RemoteState, 0, len(results))
	for _, rec := range results {
		attrs := make(map[string]string)
		rec.Get("attributes").ForEach(func(key, value gjson.Result) bool {
			attrs[key.String()] = value.String()
			return true
		})

		lastReported := rec.Get("last_reported").Time()
		out = append(out, integration.RemoteState{
			EntityID:     rec.Get("entity_id").String(),
			DeviceClass:  attrs["device_class"],
			State:        rec.Get("state").String(),
			Attributes:   attrs,
			LastReported: lastReported,
		})
	}
	return out, nil
}

// SetState pushes entityID directly via POST /api/states/{entity_id}.
// Used rarely; CallService is the preferred write path (§6).
func (c *Client) SetState(ctx context.Context, entityID, value string) error {
	body := map[string]string{"state": value}
	_, err := c.do(ctx, http.MethodPost, "/api/states/"+entityID, body)
	return err
}

// CallService invokes POST /api/services/{domain}/{service} with the given
// entity id folded into the request body alongside any extra parameters.
func (c *Client) CallService(ctx context.Context, domain, service string, params map[string]string) error {
	body := make(map[string]string, len(params))
	for k, v := range params {
		body[k] = v
	}
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/services/%s/%s", domain, service), body)
	return err
}

// BaseURL returns the Home Assistant instance this client talks to, used to
// distinguish one instance's default monitor from another's.
func (c *Client) BaseURL() string { return c.baseURL }

// Ping probes connectivity and authentication without touching state, used
// by Gateway.HealthStatus.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/api/", nil)
	return err
}
