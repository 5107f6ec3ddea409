// Package directory implements the external directory provider against the
// GitHub API.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"groupvault/internal/domain"
)

const (
	defaultBaseURL    = "https://api.github.com"
	defaultGraphQLURL = "https://api.github.com/graphql"
	defaultTimeout    = 5 * time.Second

	teamsPageSize = 100
)

var _ domain.DirectoryProvider = (*GitHubClient)(nil)

// GitHubClient talks to the GitHub REST and GraphQL APIs. Every call is
// bounded by a short timeout and passes a client-side rate limiter, so a
// stalled provider can never hold a caller's transaction open.
type GitHubClient struct {
	baseURL    string
	graphqlURL string
	timeout    time.Duration
	limiter    *rate.Limiter
}

// Option configures a GitHubClient.
type Option func(*GitHubClient)

// WithBaseURLs overrides the REST and GraphQL endpoints, e.g. for tests or
// GitHub Enterprise.
func WithBaseURLs(baseURL, graphqlURL string) Option {
	return func(c *GitHubClient) {
		c.baseURL = baseURL
		c.graphqlURL = graphqlURL
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *GitHubClient) {
		c.timeout = timeout
	}
}

// WithRateLimit overrides the client-side rate limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *GitHubClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewGitHubClient creates a GitHub directory client.
func NewGitHubClient(opts ...Option) *GitHubClient {
	c := &GitHubClient{
		baseURL:    defaultBaseURL,
		graphqlURL: defaultGraphQLURL,
		timeout:    defaultTimeout,
		limiter:    rate.NewLimiter(rate.Limit(10), 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckOrg verifies the token can see the named organization.
func (c *GitHubClient) CheckOrg(ctx context.Context, accessToken, orgName string) error {
	resp, err := c.get(ctx, accessToken, c.baseURL+"/orgs/"+orgName)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return domain.ErrExternalProvider(nil, "provider organization %q not found or not visible to this token", orgName)
	default:
		return c.statusError(resp, "check organization")
	}
}

// ResolveUsername returns the token holder's username, verifying it is a
// member of the organization. A principal the provider does not consider an
// org member resolves to a NotFoundError.
func (c *GitHubClient) ResolveUsername(ctx context.Context, accessToken, orgName string) (string, error) {
	resp, err := c.get(ctx, accessToken, c.baseURL+"/user")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", c.statusError(resp, "resolve user")
	}

	var user struct {
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", domain.ErrExternalProvider(err, "decode provider user response")
	}

	memberResp, err := c.get(ctx, accessToken, c.baseURL+"/orgs/"+orgName+"/members/"+user.Login)
	if err != nil {
		return "", err
	}
	defer memberResp.Body.Close()

	switch memberResp.StatusCode {
	case http.StatusNoContent:
		return user.Login, nil
	case http.StatusNotFound:
		return "", domain.ErrNotFound("user %s is not a member of provider organization %s", user.Login, orgName)
	default:
		return "", c.statusError(memberResp, "check organization membership")
	}
}

const teamsQuery = `query($org: String!, $username: String!, $cursor: String) {
  organization(login: $org) {
    teams(first: %d, userLogins: [$username], after: $cursor) {
      edges { node { name description } }
      pageInfo { hasNextPage endCursor }
    }
  }
}`

type teamsResponse struct {
	Data struct {
		Organization *struct {
			Teams struct {
				Edges []struct {
					Node struct {
						Name        string `json:"name"`
						Description string `json:"description"`
					} `json:"node"`
				} `json:"edges"`
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
			} `json:"teams"`
		} `json:"organization"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// ListTeamsForUser returns every team the organization reports for the
// username, following cursor pagination. The call is not transactional on the
// provider side; resuming after a partial failure means re-issuing it.
func (c *GitHubClient) ListTeamsForUser(ctx context.Context, accessToken, orgName, username string) ([]domain.ExternalTeam, error) {
	var teams []domain.ExternalTeam
	var cursor *string

	for {
		body, err := json.Marshal(map[string]any{
			"query": fmt.Sprintf(teamsQuery, teamsPageSize),
			"variables": map[string]any{
				"org":      orgName,
				"username": username,
				"cursor":   cursor,
			},
		})
		if err != nil {
			return nil, err
		}

		resp, err := c.post(ctx, accessToken, c.graphqlURL, body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			err := c.statusError(resp, "list teams")
			resp.Body.Close()
			return nil, err
		}

		var page teamsResponse
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, domain.ErrExternalProvider(err, "decode provider teams response")
		}
		if len(page.Errors) > 0 {
			return nil, domain.ErrExternalProvider(nil, "provider query failed: %s", page.Errors[0].Message)
		}
		if page.Data.Organization == nil {
			return nil, domain.ErrExternalProvider(nil, "provider organization %q not found or not visible to this token", orgName)
		}

		for _, edge := range page.Data.Organization.Teams.Edges {
			teams = append(teams, domain.ExternalTeam{
				Name:        edge.Node.Name,
				Description: edge.Node.Description,
			})
		}

		info := page.Data.Organization.Teams.PageInfo
		if !info.HasNextPage {
			return teams, nil
		}
		cursor = &info.EndCursor
	}
}

func (c *GitHubClient) get(ctx context.Context, accessToken, url string) (*http.Response, error) {
	return c.do(ctx, accessToken, http.MethodGet, url, nil)
}

func (c *GitHubClient) post(ctx context.Context, accessToken, url string, body []byte) (*http.Response, error) {
	return c.do(ctx, accessToken, http.MethodPost, url, body)
}

func (c *GitHubClient) do(ctx context.Context, accessToken, method, url string, body []byte) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	client.Timeout = c.timeout
	resp, err := client.Do(req)
	if err != nil {
		return nil, domain.ErrExternalProvider(err, "directory provider unreachable")
	}
	return resp, nil
}

func (c *GitHubClient) statusError(resp *http.Response, action string) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrExternalProvider(nil, "%s: provider rejected the access token; re-authorize the integration", action)
	default:
		return domain.ErrExternalProvider(nil, "%s: provider returned status %d", action, resp.StatusCode)
	}
}
