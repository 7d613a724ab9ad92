// Package github lists open issues and updates labels through the GitHub
// REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/dt-pm-tools/issuedata/internal/issue"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Client reads issues from one repository.
type Client struct {
	gh          *gh.Client
	owner       string
	repo        string
	rateLimiter *RateLimiter
}

// NewClient creates a client authenticated with a static access token.
// baseURL may be empty for github.com, or a GitHub Enterprise API URL.
func NewClient(ctx context.Context, token, owner, repo, baseURL string) (*Client, error) {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout

	return NewClientWithHTTPClient(tc, owner, repo, baseURL)
}

// NewClientWithHTTPClient creates a client on top of an existing
// http.Client, which is responsible for authentication.
func NewClientWithHTTPClient(httpClient *http.Client, owner, repo, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		var err error
		client, err = client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("setting API URL: %w", err)
		}
	}

	return &Client{
		gh:          client,
		owner:       owner,
		repo:        repo,
		rateLimiter: NewRateLimiter(),
	}, nil
}

// ListOpenIssues returns every open issue of the repository, newest first.
// Pull requests are skipped.
func (c *Client) ListOpenIssues(ctx context.Context) ([]issue.Issue, error) {
	opts := &gh.IssueListByRepoOptions{
		State:     "open",
		Sort:      "created",
		Direction: "desc",
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	var all []issue.Issue
	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		page, resp, err := c.gh.Issues.ListByRepo(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, c.wrapError(err, "list issues")
		}
		c.updateRateLimitFromResponse(resp)

		for _, i := range page {
			if i.IsPullRequest() {
				continue
			}
			all = append(all, convertIssue(i))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}

	return all, nil
}

// SetLabels replaces the labels of an issue.
func (c *Client) SetLabels(ctx context.Context, number int, labels []string) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if labels == nil {
		labels = []string{}
	}
	_, resp, err := c.gh.Issues.ReplaceLabelsForIssue(ctx, c.owner, c.repo, number, labels)
	if err != nil {
		return c.wrapError(err, "set labels")
	}
	c.updateRateLimitFromResponse(resp)
	return nil
}

// convertIssue converts a go-github issue into the tracker-neutral model.
func convertIssue(i *gh.Issue) issue.Issue {
	labels := make([]issue.Label, 0, len(i.Labels))
	for _, l := range i.Labels {
		labels = append(labels, issue.Label{Name: l.GetName(), Color: l.GetColor()})
	}

	return issue.Issue{
		Number:    i.GetNumber(),
		Title:     i.GetTitle(),
		Body:      i.GetBody(),
		Labels:    labels,
		CreatedAt: i.GetCreatedAt().Time,
		UpdatedAt: i.GetUpdatedAt().Time,
		User: issue.User{
			Login:      i.GetUser().GetLogin(),
			AvatarURL:  i.GetUser().GetAvatarURL(),
			GravatarID: i.GetUser().GetGravatarID(),
		},
	}
}

// updateRateLimitFromResponse updates the rate limiter from GitHub response headers.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return fmt.Errorf("%s: %w", operation, apiErr)
	}
	return fmt.Errorf("%s: %w", operation, err)
}
