// Package github is the review-system client: it fetches change sets and
// publishes notices through the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
	"golang.org/x/time/rate"

	"github.com/mohamed-services/AgentLang/internal/git"
	"github.com/mohamed-services/AgentLang/internal/presenter"
	"github.com/mohamed-services/AgentLang/internal/types"
	"github.com/mohamed-services/AgentLang/pkg/version"
)

const (
	DefaultAPIURL           = "https://api.github.com/"
	DefaultTimeout          = 30 * time.Second
	DefaultMutationInterval = time.Second

	commentsPerPage = 100
	filesPerPage    = 300
)

// Options configures a Client.
type Options struct {
	// APIURL is the REST API root. Empty means api.github.com.
	APIURL string

	// Token authenticates every request.
	Token string

	// Timeout bounds every HTTP request.
	Timeout time.Duration

	// MutationInterval is the minimum spacing between write calls.
	MutationInterval time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client talks to one repository.
type Client struct {
	gh      *gh.Client
	owner   string
	repo    string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a client for repository ("owner/repo" or a clone URL).
func New(repository string, opts Options) (*Client, error) {
	info, err := git.ParseRepository(repository)
	if err != nil {
		return nil, types.WrapError(types.CONFIG_VALIDATION_FAILED, "invalid repository", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	client := gh.NewClient(httpClient)
	client.UserAgent = version.UserAgent()
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}

	if opts.APIURL != "" && opts.APIURL != DefaultAPIURL {
		base, err := url.Parse(strings.TrimSuffix(opts.APIURL, "/") + "/")
		if err != nil {
			return nil, types.WrapError(types.CONFIG_VALIDATION_FAILED, "invalid API URL", err)
		}
		client.BaseURL = base
	}

	interval := opts.MutationInterval
	if interval <= 0 {
		interval = DefaultMutationInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		gh:      client,
		owner:   info.Owner,
		repo:    info.Repo,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger.With("repository", info.FullName()),
	}, nil
}

// Repository returns "owner/repo".
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// ChangedPaths lists the files changed between base and head, following every page of
// the compare response. A failed page fails the whole listing.
func (c *Client) ChangedPaths(ctx context.Context, base, head string) ([]string, error) {
	opts := &gh.ListOptions{PerPage: filesPerPage}

	var paths []string
	for {
		cmp, resp, err := c.gh.Repositories.CompareCommits(ctx, c.owner, c.repo, base, head, opts)
		if err != nil {
			return nil, fetchError(fmt.Sprintf("failed to compare commits (page %d)", max(opts.Page, 1)), resp, err)
		}
		for _, f := range cmp.Files {
			paths = append(paths, f.GetFilename())
		}
		if resp == nil || resp.NextPage == 0 {
			return paths, nil
		}
		opts.Page = resp.NextPage
	}
}

// Diff returns the unified diff between base and head.
func (c *Client) Diff(ctx context.Context, base, head string) (string, error) {
	diff, resp, err := c.gh.Repositories.CompareCommitsRaw(ctx, c.owner, c.repo, base, head, gh.RawOptions{Type: gh.Diff})
	if err != nil {
		return "", fetchError("failed to fetch diff", resp, err)
	}
	return diff, nil
}

// ListComments returns every issue comment on number.
func (c *Client) ListComments(ctx context.Context, number int) ([]presenter.Comment, error) {
	opts := &gh.IssueListCommentsOptions{ListOptions: gh.ListOptions{PerPage: commentsPerPage}}

	var all []presenter.Comment
	for {
		page, resp, err := c.gh.Issues.ListComments(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, fetchError("failed to list comments", resp, err)
		}
		for _, cm := range page {
			all = append(all, presenter.Comment{ID: cm.GetID(), Body: cm.GetBody()})
		}
		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

// CreateComment adds an issue comment to number.
func (c *Client) CreateComment(ctx context.Context, number int, body string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, resp, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, number, &gh.IssueComment{Body: gh.String(body)})
	if err != nil {
		return publishError("failed to create comment", resp, err)
	}
	return nil
}

// UpdateComment replaces the body of comment id.
func (c *Client) UpdateComment(ctx context.Context, id int64, body string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, resp, err := c.gh.Issues.EditComment(ctx, c.owner, c.repo, id, &gh.IssueComment{Body: gh.String(body)})
	if err != nil {
		return publishError("failed to update comment", resp, err)
	}
	return nil
}

// AddLabel adds label to number. A missing label (404) or a rejected one (422)
// is tolerated.
func (c *Client) AddLabel(ctx context.Context, number int, label string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, resp, err := c.gh.Issues.AddLabelsToIssue(ctx, c.owner, c.repo, number, []string{label})
	if err != nil {
		if code := statusCode(resp, err); code == http.StatusNotFound || code == http.StatusUnprocessableEntity {
			c.logger.Debug("label not applied", "label", label, "status", code)
			return nil
		}
		return publishError("failed to add label", resp, err)
	}
	return nil
}

func statusCode(resp *gh.Response, err error) int {
	if resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	return 0
}

func fetchError(msg string, resp *gh.Response, err error) error {
	if statusCode(resp, err) == http.StatusUnauthorized {
		return types.WrapError(types.REVIEW_UNAUTHORIZED, msg, err)
	}
	return types.WrapError(types.REVIEW_FETCH_FAILED, msg, err)
}

func publishError(msg string, resp *gh.Response, err error) error {
	if statusCode(resp, err) == http.StatusUnauthorized {
		return types.WrapError(types.REVIEW_UNAUTHORIZED, msg, err)
	}
	return types.WrapError(types.REVIEW_PUBLISH_FAILED, msg, err)
}
