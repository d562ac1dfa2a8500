package registry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"github.com/sandeshbnataraj/gitlab-jar-manager/config"
)

func getS3ConfigFromEnv() *config.S3Config {
	endpoint := os.Getenv("S3_ENDPOINT")
	bucket := os.Getenv("S3_BUCKET")
	accessKey := os.Getenv("S3_ACCESS_KEY")
	secretKey := os.Getenv("S3_SECRET_KEY")

	if endpoint == "" || bucket == "" || accessKey == "" || secretKey == "" {
		return nil
	}

	return &config.S3Config{
		Endpoint:        endpoint,
		Bucket:          bucket,
		AccessKeyID:     accessKey,
		SecretAccessKey: secretKey,
		Prefix:          "jar-manager-test",
	}
}

// mockS3Client stores objects in memory
type mockS3Client struct {
	objects map[string][]byte
	putErr  error
	lastPut *s3.PutObjectInput
}

func (m *mockS3Client) PutObject(ctx context.Context, input *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	m.lastPut = input
	m.objects[*input.Bucket+"/"+*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(ctx context.Context, input *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[*input.Bucket+"/"+*input.Key]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(data)))}, nil
}

func newMockS3Registry(prefix string) (*S3Registry, *mockS3Client) {
	client := &mockS3Client{objects: map[string][]byte{}}
	return &S3Registry{
		client: client,
		config: &config.S3Config{Bucket: "maven", Prefix: prefix},
		common: &config.CommonRegistryConfig{},
	}, client
}

func TestS3Registry_Key(t *testing.T) {
	reg, _ := newMockS3Registry("")
	require.Equal(t, "com/ilts/libs/foo/1.2.0/foo-1.2.0.jar", reg.Key(fooCoords))

	reg, _ = newMockS3Registry("releases/")
	require.Equal(t, "releases/com/ilts/libs/foo/1.2.0/foo-1.2.0.jar", reg.Key(fooCoords))
	require.Equal(t, "s3://maven/releases/com/ilts/libs/foo/1.2.0/foo-1.2.0.jar", reg.Location(fooCoords))
}

func TestS3Registry_PutGet(t *testing.T) {
	reg, client := newMockS3Registry("releases")
	ctx := context.Background()

	require.NoError(t, reg.Put(ctx, fooCoords, strings.NewReader("jar bytes"), 9))
	require.Equal(t, int64(9), aws.ToInt64(client.lastPut.ContentLength))
	require.Contains(t, client.objects, "maven/releases/com/ilts/libs/foo/1.2.0/foo-1.2.0.jar")

	body, err := reg.Get(ctx, fooCoords)
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	require.Equal(t, "jar bytes", string(data))
}

func TestS3Registry_PutUnknownSize(t *testing.T) {
	reg, client := newMockS3Registry("")

	require.NoError(t, reg.Put(context.Background(), fooCoords, strings.NewReader("abc"), -1))
	require.Nil(t, client.lastPut.ContentLength)
}

func TestS3Registry_GetMissing(t *testing.T) {
	reg, _ := newMockS3Registry("")

	_, err := reg.Get(context.Background(), fooCoords)
	status, ok := StatusCode(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, status)
}

func TestS3Registry_PutTransportError(t *testing.T) {
	reg, client := newMockS3Registry("")
	client.putErr = errors.New("connection reset")

	err := reg.Put(context.Background(), fooCoords, strings.NewReader("x"), 1)
	require.Error(t, err)
	_, ok := StatusCode(err)
	require.False(t, ok)
	require.Contains(t, err.Error(), "connection reset")
}

func TestNewS3Registry_InvalidConfig(t *testing.T) {
	_, err := NewS3Registry(&config.S3Config{Bucket: "b"}, &config.CommonRegistryConfig{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "access key")
}

func TestS3Registry_Integration(t *testing.T) {
	cfg := getS3ConfigFromEnv()
	if cfg == nil {
		t.Skip("S3 credentials not provided, skipping integration test")
	}

	reg, err := NewS3Registry(cfg, &config.CommonRegistryConfig{TimeoutSeconds: 30})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, reg.Put(ctx, fooCoords, strings.NewReader("integration"), int64(len("integration"))))

	body, err := reg.Get(ctx, fooCoords)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "integration", string(data))
}
