// Package postgrest implements remote.Store over a PostgREST endpoint such as
// Supabase's /rest/v1 API.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/remote"
)

// Client implements remote.Store.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New returns a client for the project at baseURL authenticated with the
// anon key. A URL without a scheme is treated as https.
func New(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = "https://" + baseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError is the PostgREST error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// row is the decoded shape of a select on any kind. Only one of Name and
// Data is populated.
type row struct {
	ID        json.RawMessage `json:"id"`
	Name      json.RawMessage `json:"name"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// Latest returns the newest row of kind.
func (c *Client) Latest(ctx context.Context, kind remote.Kind) (*remote.Record, error) {
	if !kind.Valid() {
		return nil, remote.ErrUnknownKind
	}
	q := url.Values{}
	q.Set("select", "id,"+kind.PayloadColumn()+",created_at")
	q.Set("order", "created_at.desc")
	q.Set("limit", "1")

	body, err := c.makeRequest(ctx, http.MethodGet, "/"+string(kind)+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", kind, err)
	}

	var rows []row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("select %s: decoding response: %w", kind, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	r := rows[0]
	payload := r.Data
	if kind == remote.KindProject {
		payload = r.Name
	}
	return &remote.Record{
		ID:        idText(r.ID),
		Payload:   payload,
		CreatedAt: r.CreatedAt,
	}, nil
}

// Insert appends a row.
func (c *Client) Insert(ctx context.Context, kind remote.Kind, payload json.RawMessage) error {
	if !kind.Valid() {
		return remote.ErrUnknownKind
	}
	body := map[string]json.RawMessage{kind.PayloadColumn(): payload}
	if _, err := c.makeRequest(ctx, http.MethodPost, "/"+string(kind), body); err != nil {
		return fmt.Errorf("insert %s: %w", kind, err)
	}
	return nil
}

// Update overwrites the payload of row id.
func (c *Client) Update(ctx context.Context, kind remote.Kind, id string, payload json.RawMessage) error {
	if !kind.Valid() {
		return remote.ErrUnknownKind
	}
	body := map[string]json.RawMessage{kind.PayloadColumn(): payload}
	endpoint := "/" + string(kind) + "?id=eq." + url.QueryEscape(id)
	if _, err := c.makeRequest(ctx, http.MethodPatch, endpoint, body); err != nil {
		return fmt.Errorf("update %s: %w", kind, err)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) makeRequest(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/rest/v1"+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, statusError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

func statusError(status int, body []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)

	msg := apiErr.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if apiErr.Code == "42501" || status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("%w: status %d: %s", remote.ErrPermissionDenied, status, msg)
	}
	return fmt.Errorf("API request failed with status %d: %s", status, msg)
}

// idText renders a row id that may be a JSON string or number.
func idText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
