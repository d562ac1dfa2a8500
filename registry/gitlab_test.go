package registry

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sandeshbnataraj/gitlab-jar-manager/config"
	"github.com/sandeshbnataraj/gitlab-jar-manager/model"
)

var fooCoords = model.Coordinates{GroupPath: "com/ilts/libs", ArtifactID: "foo", Version: "1.2.0"}

func newTestGitLab(t *testing.T, handler http.HandlerFunc) *GitLabRegistry {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	reg, err := NewGitLabRegistry(&config.GitLabConfig{
		BaseURL:   ts.URL + "/",
		ProjectID: 121,
		Token:     "secret-token",
	}, &config.CommonRegistryConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestGitLabRegistry_URL(t *testing.T) {
	reg, err := NewGitLabRegistry(&config.GitLabConfig{
		BaseURL:   "https://gitlab.ilts.com",
		ProjectID: 121,
		Token:     "t",
	}, &config.CommonRegistryConfig{})
	require.NoError(t, err)

	require.Equal(t,
		"https://gitlab.ilts.com/api/v4/projects/121/packages/maven/com/ilts/libs/foo/1.2.0/foo-1.2.0.jar",
		reg.URL(fooCoords))
	require.Equal(t, reg.URL(fooCoords), reg.Location(fooCoords))
}

func TestNewGitLabRegistry_InvalidConfig(t *testing.T) {
	_, err := NewGitLabRegistry(&config.GitLabConfig{BaseURL: "https://gitlab.example.com"}, &config.CommonRegistryConfig{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "token")
}

func TestGitLabRegistry_Put(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotToken  string
		gotBody   []byte
		gotLength int64
	)
	reg := newTestGitLab(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotToken = r.Header.Get("PRIVATE-TOKEN")
		gotLength = r.ContentLength
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	})

	payload := []byte("PK\x03\x04 jar bytes")
	err := reg.Put(context.Background(), fooCoords, bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)

	require.Equal(t, http.MethodPut, gotMethod)
	require.Equal(t, "/api/v4/projects/121/packages/maven/com/ilts/libs/foo/1.2.0/foo-1.2.0.jar", gotPath)
	require.Equal(t, "secret-token", gotToken)
	require.Equal(t, int64(len(payload)), gotLength)
	require.Equal(t, payload, gotBody)
}

func TestGitLabRegistry_PutNon200(t *testing.T) {
	for _, code := range []int{http.StatusCreated, http.StatusForbidden, http.StatusInternalServerError} {
		reg := newTestGitLab(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.Copy(io.Discard, r.Body)
			w.WriteHeader(code)
		})

		err := reg.Put(context.Background(), fooCoords, strings.NewReader("x"), 1)
		require.Error(t, err)

		status, ok := StatusCode(err)
		require.True(t, ok)
		require.Equal(t, code, status)
		require.Contains(t, err.Error(), "PUT")
	}
}

func TestGitLabRegistry_Get(t *testing.T) {
	var gotMethod, gotToken string
	reg := newTestGitLab(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotToken = r.Header.Get("PRIVATE-TOKEN")
		_, _ = w.Write([]byte("jar contents"))
	})

	body, err := reg.Get(context.Background(), fooCoords)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "jar contents", string(data))
	require.Equal(t, http.MethodGet, gotMethod)
	require.Equal(t, "secret-token", gotToken)
}

func TestGitLabRegistry_GetNotFound(t *testing.T) {
	reg := newTestGitLab(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	body, err := reg.Get(context.Background(), fooCoords)
	require.Nil(t, body)
	status, ok := StatusCode(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, status)
}

func TestGitLabRegistry_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	reg, err := NewGitLabRegistry(&config.GitLabConfig{BaseURL: url, ProjectID: 1, Token: "t"}, &config.CommonRegistryConfig{})
	require.NoError(t, err)

	_, err = reg.Get(context.Background(), fooCoords)
	require.Error(t, err)
	_, ok := StatusCode(err)
	require.False(t, ok)
}

func TestGitLabRegistry_CanceledContext(t *testing.T) {
	reg := newTestGitLab(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := reg.Put(ctx, fooCoords, strings.NewReader("x"), 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCreateRegistry(t *testing.T) {
	reg, err := CreateRegistry(&config.RegistryConfig{
		RegistryType: config.RegistryTypeGitLab,
		GitLab:       &config.GitLabConfig{BaseURL: "https://gitlab.example.com", ProjectID: 5, Token: "t"},
	})
	require.NoError(t, err)
	require.IsType(t, &GitLabRegistry{}, reg)

	_, err = CreateRegistry(&config.RegistryConfig{RegistryType: "nexus"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported registry type")
}

func TestNewLimiter(t *testing.T) {
	require.Nil(t, newLimiter(0))

	l := newLimiter(5)
	require.NotNil(t, l)
	require.Equal(t, 5, l.Burst())
	require.NoError(t, wait(context.Background(), l))
}
