package strategy

import (
	"context"
	"net/http"
	"os"

	"github.com/cloudvault/filesdk/config"
	"github.com/cloudvault/filesdk/crypto"
	"github.com/cloudvault/filesdk/httpapi"
)

// LowDisk keeps each chunk entirely in memory: cheapest on disk I/O, at
// the cost of holding up to MaxDownloadConcurrency/MaxUploadConcurrency
// chunk buffers live at once.
type LowDisk struct {
	Client *http.Client
}

var _ Strategy[[]byte] = LowDisk{}

// Fetch downloads chunk i's sealed bytes directly into memory.
func (s LowDisk) Fetch(ctx context.Context, url string, _ uint64) ([]byte, error) {
	return httpapi.DownloadIntoMemory(ctx, s.Client, url)
}

// StageForDecrypt is a no-op: the bytes are already the staged buffer.
func (s LowDisk) StageForDecrypt(staged []byte) ([]byte, error) {
	return staged, nil
}

// Encrypt reads chunk i from inputFile, seals it under the counter IV
// for i, and returns IV||ciphertext||tag together with the SHA-512 hex
// hash of those bytes.
func (s LowDisk) Encrypt(inputFile string, i uint64, key []byte) ([]byte, string, error) {
	plaintext, err := readChunk(inputFile, i)
	if err != nil {
		return nil, "", err
	}

	iv := crypto.GenerateCounterIV(i)
	sealed, err := crypto.SealChunk(key, []byte(iv), plaintext)
	if err != nil {
		return nil, "", err
	}

	buf := make([]byte, 0, len(iv)+len(sealed))
	buf = append(buf, []byte(iv)...)
	buf = append(buf, sealed...)

	hash := crypto.SHA512Hex(buf)
	return buf, hash, nil
}

// Put uploads the in-memory sealed chunk.
func (s LowDisk) Put(ctx context.Context, url string, staged []byte, bearer string) error {
	_, err := httpapi.UploadFromMemory(ctx, s.Client, url, staged, bearer)
	return err
}

func readChunk(inputFile string, i uint64) ([]byte, error) {
	f, err := os.Open(inputFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, config.ChunkSize)
	n, err := f.ReadAt(buf, int64(i)*config.ChunkSize)
	if n == 0 && err != nil {
		return nil, err
	}
	return buf[:n], nil
}
