package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/time/rate"

	"github.com/sandeshbnataraj/gitlab-jar-manager/config"
	"github.com/sandeshbnataraj/gitlab-jar-manager/model"

	s3config "github.com/aws/aws-sdk-go-v2/config"
)

var _ RegistryProvider = (*S3Registry)(nil)

// S3API is the subset of the S3 client used here, so tests can provide a custom implementation.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Registry keeps a Maven layout in an S3 compatible bucket
type S3Registry struct {
	client  S3API
	config  *config.S3Config
	common  *config.CommonRegistryConfig
	limiter *rate.Limiter
}

func NewS3Registry(cfg *config.S3Config, common *config.CommonRegistryConfig) (*S3Registry, error) {
	ctx := context.TODO()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid s3 config: %w", err)
	}

	// For S3-compatible storage, region is often just a placeholder
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	s3cfg, err := s3config.LoadDefaultConfig(
		ctx,
		s3config.WithRegion(region),
		s3config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		// Suppress AWS SDK logging warnings about missing checksums
		s3config.WithClientLogMode(0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %v", err)
	}

	client := s3.NewFromConfig(s3cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		// Use path-style addressing for S3-compatible storage
		o.UsePathStyle = true
	})

	return &S3Registry{
		client:  client,
		config:  cfg,
		common:  common,
		limiter: newLimiter(common.MaxRPS),
	}, nil
}

// Key returns the object key of coords
func (r *S3Registry) Key(coords model.Coordinates) string {
	if r.config.Prefix == "" {
		return coords.MavenPath()
	}
	return path.Join(r.config.Prefix, coords.MavenPath())
}

func (r *S3Registry) Location(coords model.Coordinates) string {
	return fmt.Sprintf("s3://%s/%s", r.config.Bucket, r.Key(coords))
}

func (r *S3Registry) Put(ctx context.Context, coords model.Coordinates, content io.Reader, size int64) error {
	if err := wait(ctx, r.limiter); err != nil {
		return err
	}

	reqCtx, cancel := requestContext(ctx, r.common.TimeoutSeconds)
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.config.Bucket),
		Key:         aws.String(r.Key(coords)),
		Body:        content,
		ContentType: aws.String("application/java-archive"),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := r.client.PutObject(reqCtx, input); err != nil {
		return r.translate(http.MethodPut, coords, err)
	}
	return nil
}

func (r *S3Registry) Get(ctx context.Context, coords model.Coordinates) (io.ReadCloser, error) {
	if err := wait(ctx, r.limiter); err != nil {
		return nil, err
	}

	// The caller is responsible for closing the reader, which will release the context
	reqCtx, cancel := requestContext(ctx, r.common.TimeoutSeconds)

	result, err := r.client.GetObject(reqCtx, &s3.GetObjectInput{
		Bucket: aws.String(r.config.Bucket),
		Key:    aws.String(r.Key(coords)),
	})
	if err != nil {
		cancel()
		return nil, r.translate(http.MethodGet, coords, err)
	}

	return &contextAwareReader{
		ReadCloser: result.Body,
		cancel:     cancel,
	}, nil
}

// translate turns service responses into StatusError and leaves transport errors wrapped
func (r *S3Registry) translate(method string, coords model.Coordinates, err error) error {
	location := r.Location(coords)

	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return &StatusError{Method: method, URL: location, StatusCode: http.StatusNotFound}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return &StatusError{Method: method, URL: location, StatusCode: respErr.HTTPStatusCode()}
	}

	return fmt.Errorf("failed to %s %s: %w", method, location, err)
}

func (r *S3Registry) Close() error {
	return nil
}
