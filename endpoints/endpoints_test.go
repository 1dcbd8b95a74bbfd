package endpoints

import (
	"net/url"
	"strings"
	"testing"
)

func TestEndpointConstruction(t *testing.T) {
	cfg := Default()

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"AuthInfo", cfg.AuthInfo(), "https://gateway.example-filevault.com/v3/auth/info"},
		{"Login", cfg.Login(), "https://gateway.example-filevault.com/v3/login"},
		{"UserInfo", cfg.UserInfo(), "https://gateway.example-filevault.com/v3/user/info"},
		{"File", cfg.File(), "https://gateway.example-filevault.com/v3/file"},
		{"UploadDone", cfg.UploadDone(), "https://gateway.example-filevault.com/v3/upload/done"},
		{"DirContent", cfg.DirContent(), "https://gateway.example-filevault.com/v3/dir/content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s:\ngot:      %s\nexpected: %s", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestNewConfigTrimsTrailingSlash(t *testing.T) {
	cfg := NewConfig("https://custom.base.url/")
	if cfg.BaseURL != "https://custom.base.url" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.BaseURL)
	}
}

func TestEgestURLSelectsHostByChunkIndexModulo(t *testing.T) {
	u0 := EgestURL("eu-west", "bucket-1", "uuid-1", 0)
	u8 := EgestURL("eu-west", "bucket-1", "uuid-1", 8)
	if strings.TrimSuffix(u0, "/0") != strings.TrimSuffix(u8, "/8") {
		t.Errorf("expected chunk 0 and chunk 8 to route to the same host, got %s vs %s", u0, u8)
	}
	if !strings.HasSuffix(u0, "/eu-west/bucket-1/uuid-1/0") {
		t.Errorf("unexpected egest url shape: %s", u0)
	}
	if !strings.HasSuffix(u8, "/eu-west/bucket-1/uuid-1/8") {
		t.Errorf("unexpected egest url shape: %s", u8)
	}
}

func TestIngestURLIncludesQueryParams(t *testing.T) {
	raw := IngestURL("UUID-1", "PARENT-1", "upkey", 3, "deadbeef")
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse ingest URL: %v", err)
	}
	q := parsed.Query()
	if q.Get("uuid") != "uuid-1" {
		t.Errorf("expected lowercased uuid, got %s", q.Get("uuid"))
	}
	if q.Get("parent") != "parent-1" {
		t.Errorf("expected lowercased parent, got %s", q.Get("parent"))
	}
	if q.Get("index") != "3" {
		t.Errorf("expected index 3, got %s", q.Get("index"))
	}
	if q.Get("hash") != "deadbeef" {
		t.Errorf("expected hash deadbeef, got %s", q.Get("hash"))
	}
}
