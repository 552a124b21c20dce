// Package recordstore adapts a hosted, collection-oriented record API
// (PocketBase-compatible REST surface) to the repository interfaces in
// internal/database. Conditional updates are expressed as an expected-value
// precondition; the server answers 409 when it does not hold, and the
// adapter retries a bounded number of times.
package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ticketforge/ticketforge/config"
	"github.com/ticketforge/ticketforge/internal/entity"
)

const (
	collectionEvents      = "events"
	collectionTicketTypes = "ticket_types"
	collectionTickets     = "tickets"
	collectionUsers       = "users"
	collectionProfiles    = "profiles"
)

type Client struct {
	baseURL      string
	token        string
	maxConflicts int
	http         *http.Client
}

func NewClient(cfg *config.RecordStoreConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	maxConflicts := cfg.MaxConflicts
	if maxConflicts == 0 {
		maxConflicts = 3
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		token:        cfg.AdminToken,
		maxConflicts: maxConflicts,
		http:         &http.Client{Timeout: timeout},
	}
}

// listResponse is the provider's paginated list envelope.
type listResponse struct {
	Page       int             `json:"page"`
	PerPage    int             `json:"perPage"`
	TotalItems int             `json:"totalItems"`
	Items      json.RawMessage `json:"items"`
}

type apiError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (c *Client) recordURL(collection, id string) string {
	u := fmt.Sprintf("%s/api/collections/%s/records", c.baseURL, url.PathEscape(collection))
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	return u
}

func (c *Client) do(ctx context.Context, method, rawURL string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrSystemError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.mapError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) mapError(resp *http.Response) error {
	var apiErr apiError
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(data, &apiErr)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return errNotFound
	case http.StatusConflict:
		return entity.ErrConcurrentUpdate
	case http.StatusUnauthorized, http.StatusForbidden:
		return entity.ErrNotAuthorized
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", entity.ErrInvalidInput, apiErr.Message)
	default:
		return fmt.Errorf("%w: status %d: %s", entity.ErrSystemError, resp.StatusCode, apiErr.Message)
	}
}

// errNotFound is internal; collection wrappers translate it to the
// entity-specific sentinel.
var errNotFound = fmt.Errorf("record not found")

func (c *Client) getRecord(ctx context.Context, collection, id string, out interface{}) error {
	return c.do(ctx, http.MethodGet, c.recordURL(collection, id), nil, out)
}

func (c *Client) listRecords(ctx context.Context, collection, filter, sort string, out interface{}) error {
	u, err := url.Parse(c.recordURL(collection, ""))
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("perPage", "500")
	if filter != "" {
		q.Set("filter", filter)
	}
	if sort != "" {
		q.Set("sort", sort)
	}
	u.RawQuery = q.Encode()

	var envelope listResponse
	if err := c.do(ctx, http.MethodGet, u.String(), nil, &envelope); err != nil {
		return err
	}
	return json.Unmarshal(envelope.Items, out)
}

func (c *Client) createRecord(ctx context.Context, collection string, fields, out interface{}) error {
	return c.do(ctx, http.MethodPost, c.recordURL(collection, ""), fields, out)
}

func (c *Client) updateRecord(ctx context.Context, collection, id string, fields, out interface{}) error {
	return c.do(ctx, http.MethodPatch, c.recordURL(collection, id), fields, out)
}

// updateRecordIf is updateRecord with a precondition: the update applies
// only while the named field still holds the expected value. The server
// answers 409 otherwise, surfaced as entity.ErrConcurrentUpdate.
func (c *Client) updateRecordIf(ctx context.Context, collection, id, field string, expected interface{}, fields, out interface{}) error {
	u, err := url.Parse(c.recordURL(collection, id))
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("filter", fmt.Sprintf("%s=%v", field, expected))
	u.RawQuery = q.Encode()
	return c.do(ctx, http.MethodPatch, u.String(), fields, out)
}

type authResponse struct {
	Token  string      `json:"token"`
	Record entity.User `json:"record"`
}

// AuthWithPassword authenticates against the provider's users collection.
func (c *Client) AuthWithPassword(ctx context.Context, email, password string) (*entity.User, string, error) {
	u := fmt.Sprintf("%s/api/collections/%s/auth-with-password", c.baseURL, collectionUsers)
	body := map[string]string{
		"identity": email,
		"password": password,
	}

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, u, body, &resp); err != nil {
		if err == errNotFound || err == entity.ErrNotAuthorized {
			return nil, "", entity.ErrInvalidCredentials
		}
		return nil, "", err
	}
	return &resp.Record, resp.Token, nil
}
