// Package xapi talks to an endpoint's HTTPS XML management API.
//
// Endpoints expose two resources:
//
//	GET  /getxml?location=/Configuration   full configuration tree
//	GET  /getxml?location=/Status          full status tree
//	POST /putxml                           command or configuration document
//
// Every request uses HTTP Basic auth and Content-Type text/xml. Server
// certificates are not verified: endpoints ship with self-signed
// certificates and the fleet is addressed by IP.
package xapi

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/newtron-network/epaudit/pkg/util"
	"github.com/newtron-network/epaudit/pkg/version"
)

const (
	configurationPath = "/getxml?location=/Configuration"
	statusPath        = "/getxml?location=/Status"
	putPath           = "/putxml"

	contentType = "text/xml"

	// maxResponseSize caps a single response body.
	maxResponseSize = 16 * 1024 * 1024
)

// UserListCommand asks the endpoint for its local user accounts.
const UserListCommand = `<Command><UserManagement><User><List></List></User></UserManagement></Command>`

// Options configures a Client.
type Options struct {
	Username     string
	Password     string
	ReadTimeout  time.Duration // polling requests
	WriteTimeout time.Duration // configuration writes and their re-fetch
	TempDir      string        // where raw responses are written

	// HTTPClient overrides the default insecure TLS client.
	HTTPClient *http.Client
}

// Client issues requests against endpoints, one call at a time.
type Client struct {
	httpClient   *http.Client
	username     string
	password     string
	readTimeout  time.Duration
	writeTimeout time.Duration
	tempDir      string
}

// NewClient creates a client. Zero timeouts fall back to 3s for reads and
// 5s for writes.
func NewClient(opts Options) *Client {
	c := &Client{
		httpClient:   opts.HTTPClient,
		username:     opts.Username,
		password:     opts.Password,
		readTimeout:  opts.ReadTimeout,
		writeTimeout: opts.WriteTimeout,
		tempDir:      opts.TempDir,
	}
	if c.httpClient == nil {
		c.httpClient = newInsecureClient()
	}
	if c.readTimeout <= 0 {
		c.readTimeout = 3 * time.Second
	}
	if c.writeTimeout <= 0 {
		c.writeTimeout = 5 * time.Second
	}
	return c
}

func newInsecureClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // endpoints present self-signed certificates
	}
	return &http.Client{Transport: transport}
}

// Fetch reads the configuration tree, the status tree and the user list from
// address and writes each raw response to its temporary artifact. The first
// failing request aborts the sequence; artifacts already written for the
// address are removed before the error is returned.
func (c *Client) Fetch(ctx context.Context, address string) (*Artifacts, error) {
	a := NewArtifacts(c.tempDir, address)
	if err := os.MkdirAll(c.tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating temp dir %s: %w", c.tempDir, err)
	}

	steps := []struct {
		method string
		path   string
		body   string
		dest   string
	}{
		{http.MethodGet, configurationPath, "", a.Config},
		{http.MethodGet, statusPath, "", a.Status},
		{http.MethodPost, putPath, UserListCommand, a.Command},
	}

	for _, step := range steps {
		util.WithEndpoint(address).Debugf("%s %s", step.method, step.path)
		data, err := c.do(ctx, c.readTimeout, step.method, address, step.path, step.body)
		if err != nil {
			a.Remove()
			return nil, err
		}
		if err := os.WriteFile(step.dest, data, 0o600); err != nil {
			a.Remove()
			return nil, fmt.Errorf("writing %s: %w", step.dest, err)
		}
	}

	return a, nil
}

// Put posts a configuration or command document to address.
func (c *Client) Put(ctx context.Context, address, document string) error {
	_, err := c.do(ctx, c.writeTimeout, http.MethodPost, address, putPath, document)
	return err
}

// SaveConfiguration re-reads the configuration tree of address into its
// configuration artifact and returns the file path. The caller removes it.
func (c *Client) SaveConfiguration(ctx context.Context, address string) (string, error) {
	if err := os.MkdirAll(c.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("creating temp dir %s: %w", c.tempDir, err)
	}
	data, err := c.do(ctx, c.writeTimeout, http.MethodGet, address, configurationPath, "")
	if err != nil {
		return "", err
	}
	path := NewArtifacts(c.tempDir, address).Config
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func (c *Client) do(ctx context.Context, timeout time.Duration, method, address, path, body string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := "https://" + address + path

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &RequestError{Address: address, Method: method, URL: url, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", version.UserAgent())
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Address: address, Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil, &StatusError{Address: address, Method: method, URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &RequestError{Address: address, Method: method, URL: url, Err: err}
	}
	return data, nil
}
