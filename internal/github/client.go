// Package github is a minimal GitHub REST v3 client scoped to the data
// the compliance checks consume. Every call carries a bounded timeout
// and passes through a client-side token-bucket limiter; rate-limit
// responses surface as typed errors instead of inline retries, because
// retry policy belongs to the caller's check classification.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 10 * time.Second
	userAgent      = "auditops-compliance-engine/1.0"
	acceptHeader   = "application/vnd.github+json"

	orgCacheSize = 128
)

// Client talks to the GitHub REST API with one integration's token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	orgLogins  *lru.Cache[string, string] // numeric external ID -> org login
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a non-default API host (GHE, tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout overrides the per-call HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRateLimit installs a client-side token bucket shared by all calls
// made with this client. Zero rps disables the limiter.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a client authenticated with the given token. The
// token is held only by the oauth2 transport; it is never logged.
func NewClient(token string, opts ...Option) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = defaultTimeout

	cache, _ := lru.New[string, string](orgCacheSize)
	c := &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		orgLogins:  cache,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	u := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.apiError(resp, u)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) apiError(resp *http.Response, u string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload)

	rateLimited := resp.StatusCode == http.StatusTooManyRequests
	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
		rateLimited = true
	}
	return &APIError{
		StatusCode:  resp.StatusCode,
		URL:         u,
		Message:     payload.Message,
		RateLimited: rateLimited,
	}
}

// ValidateToken makes a lightweight call proving the token works.
// A 401 is surfaced so callers can mark the integration errored.
func (c *Client) ValidateToken(ctx context.Context) error {
	return c.get(ctx, "/user", nil)
}

// GetOrganization fetches organization settings by login.
func (c *Client) GetOrganization(ctx context.Context, login string) (*Organization, error) {
	var org Organization
	if err := c.get(ctx, "/orgs/"+url.PathEscape(login), &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// ResolveOrgLogin maps an integration's external identity to an org
// login. Non-numeric identities are already logins. Numeric IDs are
// resolved by scanning the token's organizations once; results are
// cached so repeat audits skip the scan.
func (c *Client) ResolveOrgLogin(ctx context.Context, externalID string) (string, error) {
	if _, err := strconv.ParseInt(externalID, 10, 64); err != nil {
		return externalID, nil
	}
	if login, ok := c.orgLogins.Get(externalID); ok {
		return login, nil
	}

	var orgs []Organization
	if err := c.get(ctx, "/user/orgs?per_page=100", &orgs); err != nil {
		return "", fmt.Errorf("list token organizations: %w", err)
	}
	for i := range orgs {
		if strconv.FormatInt(orgs[i].ID, 10) == externalID {
			c.orgLogins.Add(externalID, orgs[i].Login)
			return orgs[i].Login, nil
		}
	}
	return "", &APIError{
		StatusCode: http.StatusNotFound,
		URL:        c.baseURL + "/user/orgs",
		Message:    "organization id " + externalID + " not visible to this token",
	}
}

// ListOrgMembers lists organization members, optionally filtered by
// role ("admin", "member", "" for all).
func (c *Client) ListOrgMembers(ctx context.Context, org, role string) ([]Member, error) {
	path := "/orgs/" + url.PathEscape(org) + "/members?per_page=100"
	if role != "" {
		path += "&role=" + url.QueryEscape(role)
	}
	var members []Member
	if err := c.get(ctx, path, &members); err != nil {
		return nil, err
	}
	if role != "" {
		for i := range members {
			members[i].Role = role
		}
	}
	return members, nil
}

// GetRepository fetches repository metadata by "owner/name".
func (c *Client) GetRepository(ctx context.Context, fullName string) (*Repository, error) {
	var repo Repository
	if err := c.get(ctx, "/repos/"+fullName, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// GetBranchProtection fetches protection rules for a branch. A 404 is
// valid remote state (no protection configured) and returns (nil, nil).
func (c *Client) GetBranchProtection(ctx context.Context, fullName, branch string) (*BranchProtection, error) {
	var bp BranchProtection
	err := c.get(ctx, "/repos/"+fullName+"/branches/"+url.PathEscape(branch)+"/protection", &bp)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bp, nil
}

// ListOutsideCollaborators lists collaborators outside the organization
// for one repository.
func (c *Client) ListOutsideCollaborators(ctx context.Context, fullName string) ([]Collaborator, error) {
	var collabs []Collaborator
	if err := c.get(ctx, "/repos/"+fullName+"/collaborators?affiliation=outside&per_page=100", &collabs); err != nil {
		return nil, err
	}
	return collabs, nil
}

// ListTreePaths returns all blob paths in the branch's git tree. A 404
// (empty repository or missing branch) yields an empty slice, so
// file-existence checks resolve to FAIL rather than ERROR.
func (c *Client) ListTreePaths(ctx context.Context, fullName, branch string) ([]string, error) {
	var tree struct {
		Tree []TreeEntry `json:"tree"`
	}
	err := c.get(ctx, "/repos/"+fullName+"/git/trees/"+url.PathEscape(branch)+"?recursive=1", &tree)
	if IsNotFound(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(tree.Tree))
	for i := range tree.Tree {
		if tree.Tree[i].Type == "blob" {
			paths = append(paths, tree.Tree[i].Path)
		}
	}
	return paths, nil
}
