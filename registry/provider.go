package registry

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"

	"github.com/sandeshbnataraj/gitlab-jar-manager/config"
	"github.com/sandeshbnataraj/gitlab-jar-manager/model"
)

// RegistryProvider moves artifact bytes to and from a Maven layout
type RegistryProvider interface {
	// Put stores content under coords. size is the content length, or -1 if unknown.
	Put(ctx context.Context, coords model.Coordinates, content io.Reader, size int64) error
	// Get opens the artifact stored under coords. The caller closes the reader.
	Get(ctx context.Context, coords model.Coordinates) (io.ReadCloser, error)
	// Location describes where coords live, for log messages
	Location(coords model.Coordinates) string
	Close() error
}

// CreateRegistry creates a registry provider based on configuration
func CreateRegistry(cfg *config.RegistryConfig) (RegistryProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid registry configuration: %w", err)
	}

	var (
		provider RegistryProvider
		err      error
	)
	switch cfg.RegistryType {
	case config.RegistryTypeGitLab:
		provider, err = NewGitLabRegistry(cfg.GitLab, &cfg.Common)
	case config.RegistryTypeS3:
		provider, err = NewS3Registry(cfg.S3, &cfg.Common)
	case config.RegistryTypeFTP:
		provider, err = NewFTPRegistry(cfg.FTP, &cfg.Common)
	default:
		return nil, fmt.Errorf("unsupported registry type: %s", cfg.RegistryType)
	}
	if err != nil {
		return nil, err
	}
	return provider, nil
}

// newLimiter returns nil when maxRPS is 0 (no limit)
func newLimiter(maxRPS int) *rate.Limiter {
	if maxRPS <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(maxRPS), maxRPS) // burst = MaxRPS
}

func wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}
	return nil
}

// requestContext applies the configured timeout; 0 leaves ctx unbounded
func requestContext(ctx context.Context, timeoutSeconds int) (context.Context, context.CancelFunc) {
	if timeoutSeconds <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
}

// contextAwareReader wraps an io.ReadCloser and cancels context on close
type contextAwareReader struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *contextAwareReader) Close() error {
	defer r.cancel()
	return r.ReadCloser.Close()
}
