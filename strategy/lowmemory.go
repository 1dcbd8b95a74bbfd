package strategy

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cloudvault/filesdk/crypto"
	"github.com/cloudvault/filesdk/httpapi"
)

// LowMemory stages every chunk through a temp file instead of holding it
// in memory: higher disk I/O, bounded memory footprint regardless of
// concurrency.
type LowMemory struct {
	Client *http.Client
	TmpDir string
}

var _ Strategy[string] = LowMemory{}

// Fetch streams chunk i's sealed bytes directly to <TmpDir>/<i>.
func (s LowMemory) Fetch(ctx context.Context, url string, i uint64) (string, error) {
	dest := filepath.Join(s.TmpDir, strconv.FormatUint(i, 10))
	return httpapi.DownloadToFileStreamed(ctx, s.Client, url, dest)
}

// StageForDecrypt reads the temp file into memory and deletes it.
func (s LowMemory) StageForDecrypt(staged string) ([]byte, error) {
	data, err := os.ReadFile(staged)
	if err != nil {
		return nil, err
	}
	_ = os.Remove(staged)
	return data, nil
}

// Encrypt writes the sealed bytes for chunk i to <TmpDir>/<i> instead of
// returning them in memory.
func (s LowMemory) Encrypt(inputFile string, i uint64, key []byte) (string, string, error) {
	sealed, hash, err := LowDisk{Client: s.Client}.Encrypt(inputFile, i, key)
	if err != nil {
		return "", "", err
	}
	dest := filepath.Join(s.TmpDir, strconv.FormatUint(i, 10))
	if err := os.WriteFile(dest, sealed, 0o600); err != nil {
		return "", "", err
	}
	return dest, hash, nil
}

// Put streams the temp file as the upload body and deletes it on
// success.
func (s LowMemory) Put(ctx context.Context, url string, staged string, bearer string) error {
	_, err := httpapi.UploadFromFileStreamed(ctx, s.Client, url, staged, bearer)
	if err != nil {
		return err
	}
	return os.Remove(staged)
}
