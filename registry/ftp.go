package registry

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"golang.org/x/time/rate"

	"github.com/sandeshbnataraj/gitlab-jar-manager/config"
	"github.com/sandeshbnataraj/gitlab-jar-manager/model"
)

var _ RegistryProvider = (*FTPRegistry)(nil)

// FTPRegistry keeps a Maven layout below a base path on an FTP server.
// Transfers are sequential, so a single idle connection is kept for reuse.
type FTPRegistry struct {
	config     *config.FTPConfig
	common     *config.CommonRegistryConfig
	connPool   chan *ftp.ServerConn
	limiter    *rate.Limiter
	dialConfig *ftp.DialOption
}

// NewFTPRegistry creates an FTP registry and checks that the server accepts the credentials
func NewFTPRegistry(cfg *config.FTPConfig, common *config.CommonRegistryConfig) (*FTPRegistry, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ftp config: %w", err)
	}
	if err := common.Validate(); err != nil {
		return nil, fmt.Errorf("invalid common config: %w", err)
	}

	var dialConfig *ftp.DialOption
	if cfg.UseTLS {
		opt := ftp.DialWithExplicitTLS(&tls.Config{ServerName: cfg.Host})
		dialConfig = &opt
	}

	reg := &FTPRegistry{
		config:     cfg,
		common:     common,
		connPool:   make(chan *ftp.ServerConn, 1),
		limiter:    newLimiter(common.MaxRPS),
		dialConfig: dialConfig,
	}

	conn, err := reg.createConnection(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to FTP server: %w", err)
	}
	reg.returnConnection(conn)

	return reg, nil
}

func (f *FTPRegistry) createConnection(ctx context.Context) (*ftp.ServerConn, error) {
	addr := fmt.Sprintf("%s:%d", f.config.Host, f.config.Port)

	opts := []ftp.DialOption{ftp.DialWithContext(ctx)}
	if f.common.TimeoutSeconds > 0 {
		opts = append(opts, ftp.DialWithTimeout(time.Duration(f.common.TimeoutSeconds)*time.Second))
	}
	if f.dialConfig != nil {
		opts = append(opts, *f.dialConfig)
	}

	conn, err := ftp.Dial(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	if err := conn.Login(f.config.Username, f.config.Password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	return conn, nil
}

// getConnection reuses the idle connection if it is still alive
func (f *FTPRegistry) getConnection(ctx context.Context) (*ftp.ServerConn, error) {
	select {
	case conn := <-f.connPool:
		if err := conn.NoOp(); err != nil {
			conn.Quit()
			return f.createConnection(ctx)
		}
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return f.createConnection(ctx)
	}
}

func (f *FTPRegistry) returnConnection(conn *ftp.ServerConn) {
	if conn == nil {
		return
	}

	select {
	case f.connPool <- conn:
	default:
		// Pool is full, close the connection
		conn.Quit()
	}
}

// RemotePath returns the server path of coords
func (f *FTPRegistry) RemotePath(coords model.Coordinates) string {
	return path.Join(f.config.BasePath, coords.MavenPath())
}

func (f *FTPRegistry) Location(coords model.Coordinates) string {
	return fmt.Sprintf("ftp://%s:%d%s", f.config.Host, f.config.Port, f.RemotePath(coords))
}

func (f *FTPRegistry) Put(ctx context.Context, coords model.Coordinates, content io.Reader, size int64) error {
	if err := wait(ctx, f.limiter); err != nil {
		return err
	}

	conn, err := f.getConnection(ctx)
	if err != nil {
		return err
	}

	fullPath := f.RemotePath(coords)
	if err := f.ensureDirectory(conn, path.Dir(fullPath)); err != nil {
		f.returnConnection(conn)
		return fmt.Errorf("failed to create directory %s: %w", path.Dir(fullPath), err)
	}

	err = conn.Stor(fullPath, content)
	f.returnConnection(conn)
	if err != nil {
		return f.translate(http.MethodPut, coords, err)
	}
	return nil
}

func (f *FTPRegistry) Get(ctx context.Context, coords model.Coordinates) (io.ReadCloser, error) {
	if err := wait(ctx, f.limiter); err != nil {
		return nil, err
	}

	conn, err := f.getConnection(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := conn.Retr(f.RemotePath(coords))
	if err != nil {
		f.returnConnection(conn)
		return nil, f.translate(http.MethodGet, coords, err)
	}

	return &ftpBody{Response: resp, conn: conn, owner: f}, nil
}

// ftpBody hands the control connection back once the data transfer is closed
type ftpBody struct {
	*ftp.Response
	conn  *ftp.ServerConn
	owner *FTPRegistry
}

func (b *ftpBody) Close() error {
	err := b.Response.Close()
	b.owner.returnConnection(b.conn)
	return err
}

// translate maps "file unavailable" replies to a 404 StatusError
func (f *FTPRegistry) translate(method string, coords model.Coordinates, err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && protoErr.Code == ftp.StatusFileUnavailable {
		return &StatusError{Method: method, URL: f.Location(coords), StatusCode: http.StatusNotFound}
	}
	return fmt.Errorf("failed to %s %s: %w", method, f.Location(coords), err)
}

// ensureDirectory creates directory structure recursively
func (f *FTPRegistry) ensureDirectory(conn *ftp.ServerConn, dirPath string) error {
	dirPath = path.Clean(dirPath)
	if dirPath == "/" || dirPath == "." {
		return nil
	}

	currentDir, err := conn.CurrentDir()
	if err != nil {
		return err
	}

	if err := conn.ChangeDir(dirPath); err == nil {
		// Directory exists, return to original directory
		return conn.ChangeDir(currentDir)
	}

	currentPath := ""
	if strings.HasPrefix(dirPath, "/") {
		currentPath = "/"
	}
	for _, part := range strings.Split(dirPath, "/") {
		if part == "" {
			continue
		}
		currentPath = path.Join(currentPath, part)

		// Ignore errors, the directory may already exist
		conn.MakeDir(currentPath)
	}

	return conn.ChangeDir(currentDir)
}

// Close closes the idle connection
func (f *FTPRegistry) Close() error {
	close(f.connPool)

	var firstErr error
	for conn := range f.connPool {
		if err := conn.Quit(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
