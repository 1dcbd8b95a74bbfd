package transfer

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudvault/filesdk/config"
	"github.com/cloudvault/filesdk/crypto"
	"github.com/cloudvault/filesdk/endpoints"
	"github.com/cloudvault/filesdk/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withEgestServer points every egest host slot at srv for the duration
// of the test, since the pool is a fixed-size array of real hostnames
// in production.
func withEgestServer(t *testing.T, srv *httptest.Server) {
	t.Helper()
	original := endpoints.EgestHosts
	for i := range endpoints.EgestHosts {
		endpoints.EgestHosts[i] = srv.URL
	}
	t.Cleanup(func() { endpoints.EgestHosts = original })
}

func sealChunkFile(t *testing.T, key string, index uint64, plain []byte) []byte {
	t.Helper()
	iv := crypto.GenerateCounterIV(index)
	sealed, err := crypto.SealChunk([]byte(key), []byte(iv), plain)
	require.NoError(t, err)
	return append([]byte(iv), sealed...)
}

func TestDownloadSingleFileReassembly(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	chunk0 := bytes.Repeat([]byte{0x42}, config.ChunkSize)
	chunk1 := []byte("world-chunk-one-data!")
	sealedByIndex := map[uint64][]byte{
		0: sealChunkFile(t, key, 0, chunk0),
		1: sealChunkFile(t, key, 1, chunk1),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		idx := parts[len(parts)-1]
		var n uint64
		if idx == "1" {
			n = 1
		}
		w.Write(sealedByIndex[n])
	}))
	defer srv.Close()
	withEgestServer(t, srv)

	limits := NewLimits()
	strat := strategy.LowDisk{Client: srv.Client()}

	outDir := t.TempDir()
	name := "out.bin"
	fileSize := int64(len(chunk0) + len(chunk1))

	res, err := Download(context.Background(), limits, strat, DownloadInput{
		UUID: "u", Region: "r", Bucket: "b", KeyStr: key,
		OutputDir: outDir, OutputName: &name, FileSize: fileSize,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.ActualStart)
	assert.Equal(t, fileSize, res.ActualEnd)

	got, err := os.ReadFile(filepath.Join(outDir, name))
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, chunk0...), chunk1...), got)
}

func TestDownloadChunkedModeWritesOneFilePerChunk(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	chunk0 := []byte("only-chunk")
	sealed := sealChunkFile(t, key, 0, chunk0)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(sealed)
	}))
	defer srv.Close()
	withEgestServer(t, srv)

	limits := NewLimits()
	strat := strategy.LowDisk{Client: srv.Client()}
	outDir := t.TempDir()

	_, err = Download(context.Background(), limits, strat, DownloadInput{
		UUID: "u", Region: "r", Bucket: "b", KeyStr: key,
		OutputDir: outDir, FileSize: int64(len(chunk0)),
	})
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(outDir, "0"))
	require.NoError(t, err)
	assert.Equal(t, chunk0, got)
}

func TestDownloadRejectsExistingDirectoryAsOutputName(t *testing.T) {
	limits := NewLimits()
	strat := strategy.LowDisk{Client: http.DefaultClient}
	outDir := t.TempDir()
	name := "collide"
	require.NoError(t, os.Mkdir(filepath.Join(outDir, name), 0o755))

	_, err := Download(context.Background(), limits, strat, DownloadInput{
		UUID: "u", Region: "r", Bucket: "b", KeyStr: "k",
		OutputDir: outDir, OutputName: &name, FileSize: 10,
	})
	require.Error(t, err)
}

func TestDownloadFailureCleansUpSingleOutputFile(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	withEgestServer(t, srv)

	limits := NewLimits()
	strat := strategy.LowDisk{Client: srv.Client()}
	outDir := t.TempDir()
	name := "out.bin"

	_, err = Download(context.Background(), limits, strat, DownloadInput{
		UUID: "u", Region: "r", Bucket: "b", KeyStr: key,
		OutputDir: outDir, OutputName: &name, FileSize: 1,
	})
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(outDir, name))
}
