package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sandeshbnataraj/gitlab-jar-manager/config"
	"github.com/sandeshbnataraj/gitlab-jar-manager/model"
)

// getFTPConfigFromEnv reads FTP configuration from environment variables for integration testing
func getFTPConfigFromEnv() *config.FTPConfig {
	host := os.Getenv("FTP_HOST")
	username := os.Getenv("FTP_USERNAME")
	if host == "" || username == "" {
		return nil
	}

	cfg := &config.FTPConfig{
		Host:     host,
		Username: username,
		Password: os.Getenv("FTP_PASSWORD"),
		BasePath: "/jar-manager-test",
	}
	if port := os.Getenv("FTP_PORT"); port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err == nil {
			cfg.Port = p
		}
	}
	return cfg
}

func TestNewFTPRegistry_InvalidConfig(t *testing.T) {
	tests := []struct {
		name         string
		ftpCfg       *config.FTPConfig
		commonCfg    *config.CommonRegistryConfig
		errorMessage string
	}{
		{
			name:         "missing host",
			ftpCfg:       &config.FTPConfig{Port: 21, Username: "user"},
			commonCfg:    &config.CommonRegistryConfig{},
			errorMessage: "host",
		},
		{
			name:         "missing username",
			ftpCfg:       &config.FTPConfig{Host: "localhost", Port: 21},
			commonCfg:    &config.CommonRegistryConfig{},
			errorMessage: "username",
		},
		{
			name:         "bad port",
			ftpCfg:       &config.FTPConfig{Host: "localhost", Port: 70000, Username: "user"},
			commonCfg:    &config.CommonRegistryConfig{},
			errorMessage: "port",
		},
		{
			name:         "negative timeout",
			ftpCfg:       &config.FTPConfig{Host: "localhost", Port: 21, Username: "user"},
			commonCfg:    &config.CommonRegistryConfig{TimeoutSeconds: -1},
			errorMessage: "timeout_seconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := NewFTPRegistry(tt.ftpCfg, tt.commonCfg)
			require.Error(t, err)
			require.Nil(t, reg)
			require.Contains(t, err.Error(), tt.errorMessage)
		})
	}
}

func TestFTPRegistry_Paths(t *testing.T) {
	reg := &FTPRegistry{config: &config.FTPConfig{Host: "ftp.example.com", Port: 21, BasePath: "/maven"}}

	require.Equal(t, "/maven/com/ilts/libs/foo/1.2.0/foo-1.2.0.jar", reg.RemotePath(fooCoords))
	require.Equal(t, "ftp://ftp.example.com:21/maven/com/ilts/libs/foo/1.2.0/foo-1.2.0.jar", reg.Location(fooCoords))
}

func TestFTPRegistry_Integration(t *testing.T) {
	cfg := getFTPConfigFromEnv()
	if cfg == nil {
		t.Skip("Skipping test because FTP_HOST environment variable is not set")
	}

	reg, err := NewFTPRegistry(cfg, &config.CommonRegistryConfig{TimeoutSeconds: 30})
	require.NoError(t, err)
	defer reg.Close()

	ctx := context.Background()
	require.NoError(t, reg.Put(ctx, fooCoords, strings.NewReader("ftp jar"), 7))

	body, err := reg.Get(ctx, fooCoords)
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	require.Equal(t, "ftp jar", string(data))

	// The connection is reusable after the download was closed
	missing := model.Coordinates{GroupPath: "com/ilts/libs", ArtifactID: "missing", Version: "0.0.1"}
	_, err = reg.Get(ctx, missing)
	status, ok := StatusCode(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, status)
}
