package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/sandeshbnataraj/gitlab-jar-manager/config"
	"github.com/sandeshbnataraj/gitlab-jar-manager/model"
)

var _ RegistryProvider = (*GitLabRegistry)(nil)

const privateTokenHeader = "PRIVATE-TOKEN"

// GitLabRegistry talks to the Maven endpoint of a GitLab project package registry
type GitLabRegistry struct {
	client  *http.Client
	config  *config.GitLabConfig
	common  *config.CommonRegistryConfig
	limiter *rate.Limiter
}

func NewGitLabRegistry(cfg *config.GitLabConfig, common *config.CommonRegistryConfig) (*GitLabRegistry, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gitlab config: %w", err)
	}
	if err := common.Validate(); err != nil {
		return nil, fmt.Errorf("invalid common config: %w", err)
	}

	return &GitLabRegistry{
		client:  &http.Client{},
		config:  cfg,
		common:  common,
		limiter: newLimiter(common.MaxRPS),
	}, nil
}

// URL returns the package file URL for coords
func (g *GitLabRegistry) URL(coords model.Coordinates) string {
	return fmt.Sprintf("%s/api/v4/projects/%d/packages/maven/%s",
		strings.TrimRight(g.config.BaseURL, "/"), g.config.ProjectID, coords.MavenPath())
}

func (g *GitLabRegistry) Location(coords model.Coordinates) string {
	return g.URL(coords)
}

// Put uploads content with a single PUT. Only 200 OK counts as success.
func (g *GitLabRegistry) Put(ctx context.Context, coords model.Coordinates, content io.Reader, size int64) error {
	if err := wait(ctx, g.limiter); err != nil {
		return err
	}

	reqCtx, cancel := requestContext(ctx, g.common.TimeoutSeconds)
	defer cancel()

	url := g.URL(coords)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPut, url, content)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if size >= 0 {
		req.ContentLength = size
	}
	req.Header.Set(privateTokenHeader, g.config.Token)
	req.Header.Set("Content-Type", "application/java-archive")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", coords, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Method: http.MethodPut, URL: url, StatusCode: resp.StatusCode}
	}
	return nil
}

// Get starts a download. The returned body streams from the network and
// must be closed by the caller.
func (g *GitLabRegistry) Get(ctx context.Context, coords model.Coordinates) (io.ReadCloser, error) {
	if err := wait(ctx, g.limiter); err != nil {
		return nil, err
	}

	// Not deferred: the body outlives this call and cancels on Close
	reqCtx, cancel := requestContext(ctx, g.common.TimeoutSeconds)

	url := g.URL(coords)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set(privateTokenHeader, g.config.Token)

	resp, err := g.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to download %s: %w", coords, err)
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		cancel()
		return nil, &StatusError{Method: http.MethodGet, URL: url, StatusCode: resp.StatusCode}
	}

	return &contextAwareReader{
		ReadCloser: resp.Body,
		cancel:     cancel,
	}, nil
}

func (g *GitLabRegistry) Close() error {
	g.client.CloseIdleConnections()
	return nil
}
