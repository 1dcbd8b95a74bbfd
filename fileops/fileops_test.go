package fileops

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudvault/filesdk/endpoints"
	"github.com/cloudvault/filesdk/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFileInfoDecryptsMetadata(t *testing.T) {
	masterKey := "master-key-0123456789abcdef012345"
	size := int64(4096)
	lastModified := int64(1700000000)
	fm := metadata.FileMetadata{Name: "photo.png", Size: &size, Key: "chunk-key-abc", LastModified: &lastModified}
	fmBytes, err := json.Marshal(fm)
	require.NoError(t, err)
	plain := string(fmBytes)

	metadataEnc, err := metadata.Encrypt(plain, masterKey)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":true,"data":{"uuid":"file-uuid","region":"r","bucket":"b","metadata":"` + metadataEnc + `","size":4096,"parent":"parent-uuid","trash":false,"version":2}}`))
	}))
	defer srv.Close()

	eps := endpoints.NewConfig(srv.URL)
	info, err := GetFileInfo(context.Background(), srv.Client(), eps, "tok", masterKey, "file-uuid")
	require.NoError(t, err)
	assert.Equal(t, "photo.png", info.Name)
	assert.Equal(t, size, info.Size)
	assert.Equal(t, "chunk-key-abc", info.ChunkKey)
	assert.Equal(t, uint64(1), info.Chunks)
}

func TestDirContentsIteratorStreamsUploadsAndFolders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":true,"message":"ok","data":{"uploads":[{"uuid":"u1","nameEncrypted":"n1"}],"folders":[{"uuid":"f1","nameEncrypted":"n2"}]}}`))
	}))
	defer srv.Close()

	eps := endpoints.NewConfig(srv.URL)
	it, err := NewDirContentsIterator(context.Background(), srv.Client(), eps, "tok", "dir-uuid", false)
	require.NoError(t, err)
	defer it.Close()

	var variants []string
	for {
		e, err := it.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		variants = append(variants, e.Variant)
	}
	assert.Equal(t, []string{"uploads", "folders"}, variants)
}

func TestDirContentsIteratorEmptyListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":true,"data":{"uploads":[],"folders":[]}}`))
	}))
	defer srv.Close()

	eps := endpoints.NewConfig(srv.URL)
	it, err := NewDirContentsIterator(context.Background(), srv.Client(), eps, "tok", "dir-uuid", false)
	require.NoError(t, err)
	defer it.Close()

	_, err = it.Next()
	assert.Equal(t, io.EOF, err)
}
