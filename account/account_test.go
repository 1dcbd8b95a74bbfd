package account

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudvault/filesdk/endpoints"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUsageParsesStorageFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"status":true,"data":{"maxStorage":1000000000,"storageUsed":42}}`))
	}))
	defer srv.Close()

	eps := endpoints.NewConfig(srv.URL)
	usage, err := GetUsage(context.Background(), srv.Client(), eps, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(1000000000), usage.MaxStorageBytes)
	assert.Equal(t, int64(42), usage.UsedBytes)
}
