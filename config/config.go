// Package config centralizes tunables and the shared HTTP client/
// endpoint registry every other package depends on, using a
// lazy-defaults Config so tests can swap in a custom client or
// endpoint set without touching anything else.
package config

import (
	"net"
	"net/http"
	"time"

	"github.com/cloudvault/filesdk/endpoints"
)

const (
	// DefaultAPIBaseURL is the production API gateway.
	DefaultAPIBaseURL = "https://gateway.example-filevault.com"

	// ChunkSize is the fixed plaintext slice size: the unit of parallel
	// transfer and independent AEAD sealing.
	ChunkSize = 1024 * 1024

	// MaxDownloadConcurrency bounds simultaneous chunk fetches.
	MaxDownloadConcurrency = 50
	// MaxUploadConcurrency bounds simultaneous chunk puts.
	MaxUploadConcurrency = 50
	// ReadAheadWindow is the depth of the read-ahead stream's in-flight
	// task queue.
	ReadAheadWindow = 50
	// DownloadRetries is the number of additional attempts (beyond the
	// first) a chunk fetch gets before the pipeline gives up on it.
	DownloadRetries = 3
	// UploadRetries mirrors DownloadRetries for ingest PUTs — see
	// DESIGN.md's "upload retry policy" Open Question resolution.
	UploadRetries = 3
	// RetryDelay is the pause between retry attempts.
	RetryDelay = 1 * time.Second

	// RequestTimeout is the per-request HTTP client timeout.
	RequestTimeout = 30 * time.Second

	// ClientName identifies this SDK to the server in every request.
	ClientName = "filesdk-go"

	// EgestHostCount and IngestHostCount are the fixed edge-host pool
	// sizes; chunk i is routed to host i mod N.
	EgestHostCount  = 8
	IngestHostCount = 8
)

// Config carries the shared HTTP client, endpoint registry, and session
// credentials used across every transfer.
type Config struct {
	Token          string  `json:"token,omitempty"`
	APIKey         string  `json:"api_key,omitempty"`
	MasterKey      string  `json:"master_key,omitempty"`
	BaseFolderUUID *string `json:"base_folder_uuid,omitempty"`
	PublicKey      string  `json:"public_key,omitempty"`
	PrivateKey     string  `json:"private_key,omitempty"`
	UserID         string  `json:"user_id,omitempty"`
	AuthVersion    int     `json:"auth_version,omitempty"`

	HTTPClient *http.Client      `json:"-"`
	Endpoints  *endpoints.Config `json:"-"`
}

// ApplyDefaults fills in any unset fields with production defaults, so
// tests can swap in a custom HTTPClient/Endpoints without touching the
// rest of Config.
func (c *Config) ApplyDefaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = newHTTPClient()
	}
	if c.Endpoints == nil {
		c.Endpoints = endpoints.Default()
	}
}

// clientHeaderTransport wraps http.RoundTripper to inject the
// client-identification header on every outgoing request.
type clientHeaderTransport struct {
	base http.RoundTripper
}

func (t *clientHeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("x-client-name", ClientName)
	return t.base.RoundTrip(req)
}

// newHTTPClient builds an http.Client tuned for many concurrent
// small-to-medium chunk requests: generous per-host connection reuse, a
// hard 30s request timeout.
func newHTTPClient() *http.Client {
	baseTransport := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       MaxDownloadConcurrency,
		IdleConnTimeout:       90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Timeout:   RequestTimeout,
		Transport: &clientHeaderTransport{base: baseTransport},
	}
}
