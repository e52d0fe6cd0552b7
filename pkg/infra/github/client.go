package github

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slipway-sh/slipway/pkg/domain/interfaces"
	"github.com/slipway-sh/slipway/pkg/domain/model"
	"github.com/slipway-sh/slipway/pkg/domain/types"
)

type client struct {
	gh *github.Client

	// download follows asset redirects to the CDN. It stays free of the
	// API auth transport because signed CDN URLs reject extra credentials.
	download *http.Client
}

// Option configures the release client
type Option func(*client)

// WithBaseURL points the client at a different API endpoint, used for
// GitHub Enterprise and for tests
func WithBaseURL(baseURL string) Option {
	return func(c *client) {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		if u, err := url.Parse(baseURL); err == nil {
			c.gh.BaseURL = u
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *client) {
		c.download = httpClient
	}
}

// NewClient creates a release client authenticated with a personal access
// token. An empty token yields an unauthenticated client limited to
// public repositories.
func NewClient(token string, opts ...Option) interfaces.ReleaseClient {
	gh := github.NewClient(nil)
	if token != "" {
		gh = gh.WithAuthToken(token)
	}

	c := &client{
		gh:       gh,
		download: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetReleaseByTag fetches the release published under the given tag
func (c *client) GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*model.ReleaseDescriptor, error) {
	rel, _, err := c.gh.Repositories.GetReleaseByTag(ctx, owner, repo, tag)
	if err != nil {
		return nil, wrapAPIError(err, "failed to get release by tag",
			goerr.V("owner", owner), goerr.V("repo", repo), goerr.V("tag", tag))
	}
	return toDescriptor(rel), nil
}

// GetLatestRelease fetches the most recent published release
func (c *client) GetLatestRelease(ctx context.Context, owner, repo string) (*model.ReleaseDescriptor, error) {
	rel, _, err := c.gh.Repositories.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		return nil, wrapAPIError(err, "failed to get latest release",
			goerr.V("owner", owner), goerr.V("repo", repo))
	}
	return toDescriptor(rel), nil
}

// DownloadAsset opens a stream for the raw content of a release asset.
// The asset endpoint is used instead of the browser URL so private
// repositories work with the same token.
func (c *client) DownloadAsset(ctx context.Context, owner, repo string, assetID int64) (io.ReadCloser, error) {
	rc, _, err := c.gh.Repositories.DownloadReleaseAsset(ctx, owner, repo, assetID, c.download)
	if err != nil {
		return nil, wrapAPIError(err, "failed to download release asset",
			goerr.V("owner", owner), goerr.V("repo", repo), goerr.V("asset_id", assetID))
	}
	return rc, nil
}

// toDescriptor converts the API release into the domain model, keeping
// asset order as returned by the index
func toDescriptor(rel *github.RepositoryRelease) *model.ReleaseDescriptor {
	desc := &model.ReleaseDescriptor{
		Tag: rel.GetTagName(),
	}
	for _, a := range rel.Assets {
		desc.Assets = append(desc.Assets, model.Asset{
			ID:   a.GetID(),
			Name: a.GetName(),
			Size: int64(a.GetSize()),
			URL:  a.GetBrowserDownloadURL(),
		})
	}
	return desc
}

// wrapAPIError attaches error tags derived from the API response status
func wrapAPIError(err error, msg string, opts ...goerr.Option) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		opts = append(opts, goerr.V("status", ghErr.Response.StatusCode))
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			opts = append(opts, goerr.T(types.TagAuth))
		case http.StatusNotFound:
			opts = append(opts, goerr.T(types.TagNotFound))
		}
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		opts = append(opts, goerr.V("rate_limit_reset", rateErr.Rate.Reset.Time))
	}

	return goerr.Wrap(err, msg, opts...)
}
