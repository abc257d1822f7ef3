package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"aptimaster-sync/internal/domain"
)

// DefaultBaseURL points at the public jsonblob-compatible service.
const DefaultBaseURL = "https://jsonblob.com/api/jsonBlob"

const maxBlobBytes = 64 << 20

// Client talks to a jsonblob-style store: POST creates, PUT overwrites, GET reads.
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

// Create stores snap as a new blob and returns the identifier taken from the Location
// response header.
func (c *Client) Create(ctx context.Context, snap domain.Snapshot) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, c.baseURL, &snap)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if id := IDFromLocation(resp.Header.Get("Location")); id != "" {
		return id, nil
	}
	if id := strings.TrimSpace(resp.Header.Get("X-Jsonblob-Id")); id != "" {
		return id, nil
	}
	return "", domain.ErrMissingLocation
}

func (c *Client) Update(ctx context.Context, id string, snap domain.Snapshot) error {
	resp, err := c.do(ctx, http.MethodPut, c.blobURL(id), &snap)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

// Fetch reads the blob and schema-checks it as a Snapshot.
func (c *Client) Fetch(ctx context.Context, id string) (domain.Snapshot, error) {
	resp, err := c.do(ctx, http.MethodGet, c.blobURL(id), nil)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBlobBytes))
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read blob %s: %w", id, err)
	}
	return domain.DecodeSnapshot(data)
}

func (c *Client) blobURL(id string) string {
	return c.baseURL + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, target string, snap *domain.Snapshot) (*http.Response, error) {
	var body io.Reader
	if snap != nil {
		data, err := domain.EncodeSnapshot(*snap)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
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
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s %s: %w", method, target, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %s %s returned %d", domain.ErrUnexpectedStatus, method, target, resp.StatusCode)
	}
	return resp, nil
}

// IDFromLocation extracts the blob identifier (last path segment) from a Location header,
// which may be absolute or relative.
func IDFromLocation(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return ""
	}
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	p := strings.TrimRight(u.Path, "/")
	if p == "" {
		return ""
	}
	id := path.Base(p)
	if id == "/" || id == "." {
		return ""
	}
	if unescaped, err := url.PathUnescape(id); err == nil {
		return unescaped
	}
	return id
}
