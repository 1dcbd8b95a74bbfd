// Package endpoints enumerates the closed set of API endpoints this SDK
// calls, plus the egest/ingest edge URL builders.
package endpoints

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// EgestHosts and IngestHosts are the fixed edge-host pools; chunk i is
// routed to host i mod len(pool).
var (
	EgestHosts = [8]string{
		"https://egest-0.example-filevault.com",
		"https://egest-1.example-filevault.com",
		"https://egest-2.example-filevault.com",
		"https://egest-3.example-filevault.com",
		"https://egest-4.example-filevault.com",
		"https://egest-5.example-filevault.com",
		"https://egest-6.example-filevault.com",
		"https://egest-7.example-filevault.com",
	}
	IngestHosts = [8]string{
		"https://ingest-0.example-filevault.com",
		"https://ingest-1.example-filevault.com",
		"https://ingest-2.example-filevault.com",
		"https://ingest-3.example-filevault.com",
		"https://ingest-4.example-filevault.com",
		"https://ingest-5.example-filevault.com",
		"https://ingest-6.example-filevault.com",
		"https://ingest-7.example-filevault.com",
	}
)

// Config holds the base URL for the API gateway.
type Config struct {
	BaseURL string
}

// Default returns the production endpoints configuration.
func Default() *Config {
	return &Config{BaseURL: "https://gateway.example-filevault.com"}
}

// NewConfig builds an endpoints Config from a custom base URL, useful in
// tests pointed at an httptest.Server.
func NewConfig(baseURL string) *Config {
	return &Config{BaseURL: strings.TrimSuffix(baseURL, "/")}
}

// AuthInfo returns the auth/info endpoint, step 1 of login.
func (c *Config) AuthInfo() string { return c.BaseURL + "/v3/auth/info" }

// Login returns the login endpoint, step 2 of login.
func (c *Config) Login() string { return c.BaseURL + "/v3/login" }

// UserInfo returns the user/info endpoint.
func (c *Config) UserInfo() string { return c.BaseURL + "/v3/user/info" }

// File returns the file-metadata endpoint.
func (c *Config) File() string { return c.BaseURL + "/v3/file" }

// UploadDone returns the upload-completion endpoint.
func (c *Config) UploadDone() string { return c.BaseURL + "/v3/upload/done" }

// DirContent returns the streamed directory-listing endpoint.
func (c *Config) DirContent() string { return c.BaseURL + "/v3/dir/content" }

// EgestURL picks EgestHosts[i mod 8] and builds the per-chunk download
// URL /<region>/<bucket>/<uuid>/<i>.
func EgestURL(region, bucket, uuid string, i uint64) string {
	host := EgestHosts[i%uint64(len(EgestHosts))]
	return fmt.Sprintf("%s/%s/%s/%s/%d", host, region, bucket, uuid, i)
}

// IngestURL picks IngestHosts[i mod 8] and builds the per-chunk upload
// URL, including the chunk's SHA-512 hex hash as a query parameter the
// server verifies against its own computation.
func IngestURL(uuid, parent, uploadKey string, i uint64, hashHex string) string {
	host := IngestHosts[i%uint64(len(IngestHosts))]
	q := url.Values{}
	q.Set("uuid", strings.ToLower(uuid))
	q.Set("index", strconv.FormatUint(i, 10))
	q.Set("uploadKey", uploadKey)
	q.Set("parent", strings.ToLower(parent))
	q.Set("hash", hashHex)
	return fmt.Sprintf("%s/v3/upload?%s", host, q.Encode())
}
