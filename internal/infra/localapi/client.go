package localapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"aptimaster-sync/internal/domain"
)

// DefaultBaseURL is the well-known address of the local backend.
const DefaultBaseURL = "http://127.0.0.1:8000/api"

// maxStateBytes caps a /state response; file submissions are inlined, so it is generous.
const maxStateBytes = 64 << 20

// Client talks to the local backend's REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

// FetchState reads GET /state and schema-checks the payload.
func (c *Client) FetchState(ctx context.Context) (domain.Snapshot, error) {
	resp, err := c.do(ctx, http.MethodGet, "/state", nil)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxStateBytes))
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read state: %w", err)
	}
	return domain.DecodeSnapshot(data)
}

func (c *Client) AddQuestion(ctx context.Context, q domain.Question) error {
	return c.send(ctx, http.MethodPost, "/questions", q)
}

func (c *Client) DeleteQuestion(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/questions/"+url.PathEscape(id), nil)
}

func (c *Client) AddSubmission(ctx context.Context, s domain.Submission) error {
	return c.send(ctx, http.MethodPost, "/submissions", s)
}

func (c *Client) AddFile(ctx context.Context, f domain.FileSubmission) error {
	return c.send(ctx, http.MethodPost, "/files", f)
}

func (c *Client) send(ctx context.Context, method, path string, body any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s %s returned %d", domain.ErrUnexpectedStatus, method, path, resp.StatusCode)
	}
	return resp, nil
}

// IsLoopback reports whether baseURL points at this machine. It drives the "auto"
// local-capable policy: probing a non-local host is a wasted round trip.
func IsLoopback(baseURL string) bool {
	u, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
