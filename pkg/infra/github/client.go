package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ghsnap/pkg/domain/interfaces"
	"github.com/m-mizutani/ghsnap/pkg/domain/model"
	"github.com/m-mizutani/ghsnap/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// DefaultBaseURL is the public GitHub REST API endpoint.
	DefaultBaseURL = "https://api.github.com"

	// DefaultCacheTTL is the freshness window of the response cache.
	DefaultCacheTTL = 5 * time.Minute

	apiVersion = "2022-11-28"
	acceptJSON = "application/vnd.github+json"
	acceptRaw  = "application/vnd.github.raw"
)

type client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	cache      *responseCache
}

// Option configures the GitHub API client.
type Option func(*client)

// WithToken sets the bearer token attached to every request. An empty token
// leaves requests unauthenticated.
func WithToken(token string) Option {
	return func(c *client) {
		c.token = token
	}
}

// WithBaseURL overrides the API endpoint, e.g. for GitHub Enterprise.
func WithBaseURL(baseURL string) Option {
	return func(c *client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

// WithCacheTTL overrides the response cache freshness window.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *client) {
		c.cache = newResponseCache(ttl)
	}
}

// NewClient creates a GitHub API client with a client-scoped response cache.
func NewClient(opts ...Option) interfaces.GitHubClient {
	c := &client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		cache:      newResponseCache(DefaultCacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewAppClient creates a client that authenticates as a GitHub App
// installation instead of a static token.
func NewAppClient(appID, installationID int64, privateKey []byte, opts ...Option) (interfaces.GitHubClient, error) {
	itr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, privateKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport")
	}

	opts = append([]Option{WithHTTPClient(&http.Client{Transport: itr})}, opts...)
	return NewClient(opts...), nil
}

// ContentsURL builds the directory listing URL for the repository root.
func (c *client) ContentsURL(repo model.RepoRef, ref string) string {
	u := c.baseURL + "/repos/" + repo.Owner + "/" + repo.Name + "/contents"
	if ref != "" {
		u += "?ref=" + url.QueryEscape(ref)
	}
	return u
}

// ListDirectory fetches the listing at listingURL and maps the API items to
// tree entries. The response body is served from the cache when fresh.
func (c *client) ListDirectory(ctx context.Context, listingURL string) ([]*model.TreeEntry, error) {
	body, err := c.get(ctx, listingURL, acceptJSON)
	if err != nil {
		return nil, err
	}

	var contents []*github.RepositoryContent
	if err := json.Unmarshal(body, &contents); err != nil {
		return nil, goerr.Wrap(err, "failed to decode directory listing", goerr.V("url", listingURL))
	}

	entries := make([]*model.TreeEntry, 0, len(contents))
	for _, item := range contents {
		entries = append(entries, &model.TreeEntry{
			Kind: model.EntryKind(item.GetType()),
			Name: item.GetName(),
			Path: item.GetPath(),
			URL:  item.GetURL(),
			Size: int64(item.GetSize()),
		})
	}
	return entries, nil
}

// FetchFile returns the raw content bytes of the file at fileURL, served
// from the cache when fresh.
func (c *client) FetchFile(ctx context.Context, fileURL string) ([]byte, error) {
	return c.get(ctx, fileURL, acceptRaw)
}

// get performs a cached GET against the API. Only successful bodies are
// cached; errors always reflect a live request.
func (c *client) get(ctx context.Context, target, accept string) ([]byte, error) {
	key := cacheKey(target, accept)
	if body, ok := c.cache.get(key); ok {
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request", goerr.V("url", target))
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "request failed without response",
			goerr.T(types.ErrTagNetwork),
			goerr.V("url", target),
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, statusError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read response body",
			goerr.T(types.ErrTagNetwork),
			goerr.V("url", target),
		)
	}

	c.cache.put(key, body)
	return body, nil
}

// statusError converts a non-2xx response into a tagged error. The GitHub
// error payload is decoded via go-github so the message and documentation
// URL stay available in logs.
func statusError(resp *http.Response) error {
	cause := github.CheckResponse(resp)
	target := resp.Request.URL.String()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return goerr.Wrap(cause, "GitHub API rejected the credential",
			goerr.T(types.ErrTagUnauthorized),
			goerr.V("status_code", resp.StatusCode),
			goerr.V("url", target),
		)
	case http.StatusForbidden:
		return goerr.Wrap(cause, "GitHub API refused the request",
			goerr.T(types.ErrTagForbidden),
			goerr.V("status_code", resp.StatusCode),
			goerr.V("url", target),
		)
	case http.StatusNotFound:
		return goerr.Wrap(cause, "resource not found on GitHub",
			goerr.T(types.ErrTagNotFound),
			goerr.V("status_code", resp.StatusCode),
			goerr.V("url", target),
		)
	default:
		return goerr.Wrap(cause, "GitHub API returned an error status",
			goerr.T(types.ErrTagUpstreamStatus),
			goerr.V("status_code", resp.StatusCode),
			goerr.V("url", target),
		)
	}
}
