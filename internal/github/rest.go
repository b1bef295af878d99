package gh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	github "github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"
)

const defaultUserAgent = "rancher-pages-deploy-action"

// NewRESTFactory returns a GitHub client factory backed by the go-github REST client. When
// base and upload URLs are provided, the factory targets a GitHub Enterprise instance.
func NewRESTFactory(baseURL, uploadURL string) Factory {
	return &restFactory{
		userAgent: defaultUserAgent,
		baseURL:   strings.TrimSpace(baseURL),
		uploadURL: strings.TrimSpace(uploadURL),
	}
}

type restFactory struct {
	userAgent string
	baseURL   string
	uploadURL string
}

type restClient struct {
	client *github.Client
}

func (f *restFactory) New(ctx context.Context, token string) (Client, error) {
	if token == "" {
		return nil, fmt.Errorf("github token is required")
	}

	if f.baseURL == "" && f.uploadURL != "" {
		return nil, fmt.Errorf("github upload url cannot be set without base url")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)

	ghClient := github.NewClient(tc)
	if f.baseURL != "" {
		baseURL, err := normalizeGitHubURL(f.baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}

		// Pages requests never upload, so the API root doubles as the upload root.
		uploadURL := baseURL
		if f.uploadURL != "" {
			uploadURL, err = normalizeGitHubURL(f.uploadURL)
			if err != nil {
				return nil, fmt.Errorf("parse github upload url: %w", err)
			}
		}

		ghClient, err = ghClient.WithEnterpriseURLs(baseURL, uploadURL)
		if err != nil {
			return nil, fmt.Errorf("construct enterprise github client: %w", err)
		}
	}

	if f.userAgent != "" {
		ghClient.UserAgent = f.userAgent
	}

	return &restClient{client: ghClient}, nil
}

func normalizeGitHubURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("url cannot be empty")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	if parsed.Scheme == "" {
		return "", fmt.Errorf("url must include scheme (e.g. https://)")
	}

	if parsed.Host == "" {
		return "", fmt.Errorf("url must include host")
	}

	if parsed.Path == "" {
		parsed.Path = "/"
	} else if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	parsed.RawQuery = ""
	parsed.Fragment = ""

	return parsed.String(), nil
}

func (c *restClient) RequestPagesBuild(ctx context.Context, owner, repo string) (PagesBuild, error) {
	build, resp, err := c.client.Repositories.RequestPageBuild(ctx, owner, repo)
	if err != nil {
		if isNotFound(resp, err) {
			return PagesBuild{}, fmt.Errorf("%w: %s/%s", ErrPagesNotEnabled, owner, repo)
		}
		return PagesBuild{}, fmt.Errorf("request pages build: %w", classifyGitHubError(err))
	}
	return toPagesBuild(build), nil
}

func (c *restClient) LatestPagesBuild(ctx context.Context, owner, repo string) (PagesBuild, error) {
	build, resp, err := c.client.Repositories.GetLatestPagesBuild(ctx, owner, repo)
	if err != nil {
		if isNotFound(resp, err) {
			return PagesBuild{}, fmt.Errorf("%w: %s/%s", ErrPagesNotEnabled, owner, repo)
		}
		return PagesBuild{}, fmt.Errorf("get latest pages build: %w", classifyGitHubError(err))
	}
	return toPagesBuild(build), nil
}

func toPagesBuild(build *github.PagesBuild) PagesBuild {
	if build == nil {
		return PagesBuild{}
	}
	return PagesBuild{
		URL:    build.GetURL(),
		Status: build.GetStatus(),
		Commit: build.GetCommit(),
	}
}

func isNotFound(resp *github.Response, err error) bool {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return true
	}
	var githubErr *github.ErrorResponse
	if errors.As(err, &githubErr) {
		if githubErr.Response != nil && githubErr.Response.StatusCode == http.StatusNotFound {
			return true
		}
	}
	return false
}

func classifyGitHubError(err error) error {
	if err == nil {
		return nil
	}
	if isRetryableGitHubError(err) {
		return &retryableError{err: err}
	}
	return err
}

func isRetryableGitHubError(err error) bool {
	if err == nil {
		return false
	}

	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return true
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		if respErr.Response != nil {
			code := respErr.Response.StatusCode
			if code == http.StatusTooManyRequests || (code >= 500 && code <= 599) {
				return true
			}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}
