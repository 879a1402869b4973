package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"photoflow/internal/config"
	"photoflow/internal/services"
)

// HTTPDoer describes the HTTP client used by the remote source.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the HTTP implementation of Source, authenticating with a bearer
// token and paging through /api/media.
type Client struct {
	baseURL  string
	token    string
	account  string
	pageSize int
	client   HTTPDoer
}

// NewClient builds a remote source from configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(cfg.Remote.BaseURL), "/"),
		token:    strings.TrimSpace(cfg.Remote.APIToken),
		account:  strings.TrimSpace(cfg.Remote.Account),
		pageSize: cfg.Remote.PageSize,
		client: &http.Client{
			Timeout: time.Duration(cfg.Remote.RequestTimeout) * time.Second,
		},
	}
}

// NewClientWithDoer builds a client with an injected HTTP implementation.
func NewClientWithDoer(baseURL, token, account string, pageSize int, doer HTTPDoer) *Client {
	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:    strings.TrimSpace(token),
		account:  account,
		pageSize: pageSize,
		client:   doer,
	}
}

// Account returns the configured remote account reference.
func (c *Client) Account() string {
	return c.account
}

// List fetches one page of remote media metadata.
func (c *Client) List(ctx context.Context, cursor string) (Page, error) {
	query := url.Values{}
	query.Set("page_size", strconv.Itoa(c.pageSize))
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	listURL := fmt.Sprintf("%s/api/media?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("build list request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return Page{}, services.Wrap(services.ErrTransient, "remote", "list", "fetch media page", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Page{}, services.Wrap(services.ErrExternalTool, "remote", "list",
			fmt.Sprintf("media listing returned %d", resp.StatusCode), nil)
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return Page{}, fmt.Errorf("decode media page: %w", err)
	}
	return page, nil
}

// Download streams the media content into targetDir and returns the local
// path. The file is staged under its remote filename.
func (c *Client) Download(ctx context.Context, media Media, targetDir string) (string, error) {
	contentURL := fmt.Sprintf("%s/api/media/%s/content", c.baseURL, url.PathEscape(media.ID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, contentURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "remote", "download", "fetch media content", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrExternalTool, "remote", "download",
			fmt.Sprintf("content fetch for %s returned %d", media.ID, resp.StatusCode), nil)
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	target := filepath.Join(targetDir, filepath.Base(media.FileName))
	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(target)
		return "", services.Wrap(services.ErrTransient, "remote", "download", "stream media content", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(target)
		return "", err
	}
	if !media.ShotAt.IsZero() {
		_ = os.Chtimes(target, media.ShotAt, media.ShotAt)
	}
	return target, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
}
