package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds every request made by a Client created without an
// explicit http.Client.
const DefaultTimeout = 30 * time.Second

// Client implements the Records interface by forwarding requests to a remote HTTP server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new HTTP records client.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// ID fetches the ID of the remote record store. It returns "" on failure.
func (c *Client) ID() string {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/id", nil)
	if err != nil {
		return ""
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return string(body)
}

// Get fetches the record at address.
func (c *Client) Get(ctx context.Context, address string, tag uint64) (Record, error) {
	u := fmt.Sprintf("%s/%s?tag=%s", c.baseURL, url.PathEscape(address), strconv.FormatUint(tag, 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Record{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Record{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Record{}, statusError(resp)
	}

	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("failed to decode record: %w", err)
	}
	return rec, nil
}

// Put creates a record on the remote store.
func (c *Client) Put(ctx context.Context, rec Record) error {
	return c.send(ctx, http.MethodPost, rec)
}

// Post updates a record on the remote store.
func (c *Client) Post(ctx context.Context, rec Record) error {
	return c.send(ctx, http.MethodPut, rec)
}

// Delete publishes a tombstone on the remote store.
func (c *Client) Delete(ctx context.Context, rec Record) error {
	return c.send(ctx, http.MethodDelete, rec)
}

func (c *Client) send(ctx context.Context, method string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(rec.Address))
	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// statusError maps a non-200 response back to the package's sentinel errors.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))

	switch resp.StatusCode {
	case http.StatusNotFound:
		return ErrRecordNotFound
	case http.StatusConflict:
		if strings.Contains(msg, ErrRecordExists.Error()) {
			return ErrRecordExists
		}
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	case http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusBadRequest:
		if strings.Contains(msg, ErrTagMismatch.Error()) {
			return ErrTagMismatch
		}
		return fmt.Errorf("%w: %s", ErrInvalidRecord, msg)
	default:
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}

var _ Records = (*Client)(nil)
