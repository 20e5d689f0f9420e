/*
Copyright 2020 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package installer

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gravitational/installdriver/lib/defaults"

	"github.com/cenkalti/backoff"
	"github.com/gravitational/roundtrip"
	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// Config defines the installer client configuration
type Config struct {
	// URL is the base address of the installer service
	URL string
	// User is the installer administrator
	User string
	// Password is the installer administrator password
	Password string
	// Attempts is the number of times a GET request is issued
	// before a connection failure is returned
	Attempts int
	// HTTPClient optionally overrides the default insecure client
	HTTPClient *http.Client
	// FieldLogger specifies the log sink
	log.FieldLogger
}

// CheckAndSetDefaults validates the configuration and sets default values
func (r *Config) CheckAndSetDefaults() error {
	if r.URL == "" {
		r.URL = defaults.InstallerURL
	}
	if _, err := url.Parse(r.URL); err != nil {
		return trace.BadParameter("invalid installer URL %q: %v", r.URL, err)
	}
	if r.User == "" {
		return trace.BadParameter("installer user is required")
	}
	if r.Attempts <= 0 {
		r.Attempts = defaults.GetAttempts
	}
	if r.HTTPClient == nil {
		r.HTTPClient = newInsecureClient()
	}
	if r.FieldLogger == nil {
		r.FieldLogger = log.StandardLogger()
	}
	return nil
}

// Client is the installer REST API client.
// All requests share a single HTTP client and hence a single connection pool
type Client struct {
	*roundtrip.Client
	log.FieldLogger
	attempts int
}

// NewClient returns a new client for the installer service at config.URL
func NewClient(config Config) (*Client, error) {
	if err := config.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	client, err := roundtrip.NewClient(strings.TrimSuffix(config.URL, "/"), "api",
		roundtrip.BasicAuth(config.User, config.Password),
		roundtrip.HTTPClient(config.HTTPClient))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return &Client{
		Client:      client,
		FieldLogger: config.FieldLogger.WithField("installer", config.URL),
		attempts:    config.Attempts,
	}, nil
}

// Get issues a GET request retrying it on connection failures.
// HTTP error statuses are not retried and are returned as-is with the response
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (*roundtrip.Response, error) {
	var resp *roundtrip.Response
	b := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(c.attempts-1)), ctx)
	err := backoff.RetryNotify(func() (err error) {
		resp, err = c.Client.Get(ctx, endpoint, params)
		return err
	}, b, func(err error, _ time.Duration) {
		c.WithError(err).Warnf("Failed to connect to %v, retrying.", endpoint)
	})
	if err != nil {
		return nil, trace.ConnectionProblem(err, "GET %v failed after %v attempts", endpoint, c.attempts)
	}
	return resp, nil
}

// Patch issues a single PATCH request with payload serialized as JSON.
// Non-2xx responses are logged and returned to the caller without an error
func (c *Client) Patch(ctx context.Context, endpoint string, payload interface{}) (*roundtrip.Response, error) {
	return c.send(ctx, http.MethodPatch, endpoint, payload)
}

// Post issues a single POST request with payload serialized as JSON.
// Non-2xx responses are logged and returned to the caller without an error
func (c *Client) Post(ctx context.Context, endpoint string, payload interface{}) (*roundtrip.Response, error) {
	return c.send(ctx, http.MethodPost, endpoint, payload)
}

func (c *Client) send(ctx context.Context, method, endpoint string, payload interface{}) (*roundtrip.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	resp, err := c.RoundTrip(func() (*http.Response, error) {
		req, err := http.NewRequest(method, endpoint, bytes.NewReader(data))
		if err != nil {
			return nil, trace.Wrap(err)
		}
		req = req.WithContext(ctx)
		req.Header.Set("Content-Type", "application/json")
		c.SetAuthHeader(req.Header)
		return c.HTTPClient().Do(req)
	})
	if err != nil {
		return nil, trace.ConnectionProblem(err, "%v %v failed", method, endpoint)
	}
	if !isSuccess(resp.Code()) {
		c.WithField("status", resp.Code()).Warnf("%v %v failed: %s.", method, endpoint, bytes.TrimSpace(resp.Bytes()))
	}
	return resp, nil
}

func newInsecureClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			DialContext:     (&net.Dialer{Timeout: defaults.DialTimeout}).DialContext,
			IdleConnTimeout: defaults.IdleConnTimeout,
		},
	}
}

func isSuccess(code int) bool {
	return code >= 200 && code <= 299
}

// convertResponse turns non-2xx responses into trace errors
func convertResponse(resp *roundtrip.Response, err error) (*roundtrip.Response, error) {
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if resp.Code() == http.StatusUnauthorized {
		return resp, trace.AccessDenied("installer rejected credentials: %s", bytes.TrimSpace(resp.Bytes()))
	}
	if !isSuccess(resp.Code()) {
		return resp, trace.ReadError(resp.Code(), resp.Bytes())
	}
	return resp, nil
}
