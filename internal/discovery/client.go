package discovery

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

// Client implements Discovery against a remote Server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Discovery = (*Client)(nil)

// NewClient creates a new HTTP discovery client.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) Get(ctx context.Context, id string) (ServiceDescription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/discovery/%s", c.baseURL, url.PathEscape(id)), nil)
	if err != nil {
		return ServiceDescription{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ServiceDescription{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ServiceDescription{}, fmt.Errorf("%w: %s", ErrServiceNotFound, id)
	default:
		return ServiceDescription{}, statusError(resp)
	}

	var desc ServiceDescription
	if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
		return ServiceDescription{}, err
	}
	return desc, nil
}

func (c *Client) Find(ctx context.Context, protocol string, count int) ([]ServiceDescription, error) {
	q := url.Values{}
	q.Set("protocol", protocol)
	q.Set("count", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/discovery?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var descs []ServiceDescription
	if err := json.NewDecoder(resp.Body).Decode(&descs); err != nil {
		return nil, err
	}
	return descs, nil
}

func (c *Client) Register(ctx context.Context, desc ServiceDescription) error {
	data, err := json.Marshal(desc)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/discovery", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusBadRequest:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s", ErrInvalidRegistration, strings.TrimSpace(string(body)))
	default:
		return statusError(resp)
	}
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
