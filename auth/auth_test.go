package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudvault/filesdk/endpoints"
	sdkerrors "github.com/cloudvault/filesdk/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(data any) []byte {
	b, _ := json.Marshal(map[string]any{"status": true, "data": data})
	return b
}

func TestLoginHappyPath(t *testing.T) {
	baseFolder := "base-folder-uuid"
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/auth/info", func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelope(authInfoData{Email: "a@b.com", AuthVersion: 2, Salt: "deadbeef"}))
	})
	mux.HandleFunc("/v3/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotEqual(t, "hunter2", body["password"]) // must be the derived password, not the raw one
		w.Write(envelope(loginData{APIKey: "api-key-1", PublicKey: "pub", PrivateKey: "priv"}))
	})
	mux.HandleFunc("/v3/user/info", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer api-key-1", r.Header.Get("Authorization"))
		w.Write(envelope(userInfoData{ID: "user-1", BaseFolderUUID: &baseFolder}))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	eps := endpoints.NewConfig(srv.URL)
	creds, err := Login(context.Background(), srv.Client(), eps, "a@b.com", "hunter2", "")
	require.NoError(t, err)
	assert.Equal(t, "api-key-1", creds.APIKey)
	assert.Equal(t, "user-1", creds.UserID)
	assert.Equal(t, &baseFolder, creds.BaseFolderUUID)
	assert.Len(t, creds.MasterKey, 64)
}

func TestLoginRejectsUnsupportedAuthVersion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/auth/info", func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelope(authInfoData{AuthVersion: 1, Salt: "deadbeef"}))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	eps := endpoints.NewConfig(srv.URL)
	_, err := Login(context.Background(), srv.Client(), eps, "a@b.com", "hunter2", "")
	require.Error(t, err)
	var authErr *sdkerrors.AuthVersionError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 1, authErr.Version)
}

func TestLoginMissingBaseFolderUUIDStaysNil(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/auth/info", func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelope(authInfoData{AuthVersion: 2, Salt: "deadbeef"}))
	})
	mux.HandleFunc("/v3/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelope(loginData{APIKey: "api-key-1"}))
	})
	mux.HandleFunc("/v3/user/info", func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelope(userInfoData{ID: "user-1"}))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	eps := endpoints.NewConfig(srv.URL)
	creds, err := Login(context.Background(), srv.Client(), eps, "a@b.com", "hunter2", "")
	require.NoError(t, err)
	assert.Nil(t, creds.BaseFolderUUID)
}

func TestExportImportCredentialsRoundTrip(t *testing.T) {
	base := "folder-uuid"
	original := Credentials{
		Email:          "a@b.com",
		MasterKey:      "0123456789abcdef0123456789abcdef",
		APIKey:         "api-key",
		PublicKey:      "pub",
		PrivateKey:     "priv",
		AuthVersion:    2,
		UserID:         "user-1",
		BaseFolderUUID: &base,
	}

	blob, err := ExportCredentials(original)
	require.NoError(t, err)

	restored, err := ImportCredentials(blob)
	require.NoError(t, err)
	assert.Equal(t, original.Email, restored.Email)
	assert.Equal(t, original.MasterKey, restored.MasterKey)
	assert.Equal(t, original.APIKey, restored.APIKey)
	require.NotNil(t, restored.BaseFolderUUID)
	assert.Equal(t, base, *restored.BaseFolderUUID)
}

func TestImportCredentialsRejectsMalformedBlob(t *testing.T) {
	_, err := ImportCredentials("not-a-valid-blob-without-separator")
	assert.Error(t, err)
}
