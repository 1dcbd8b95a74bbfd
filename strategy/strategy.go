// Package strategy implements the net-interaction strategy abstraction:
// four operations (fetch, stage-for-decrypt, encrypt, put) parameterized
// by a per-chunk staging type T, with two concrete realizations —
// low-disk (chunk stays in memory) and low-memory (chunk is staged
// through a temp file) — both satisfying the same generic interface.
package strategy

import "context"

// Strategy abstracts the per-chunk I/O and crypto staging so the
// transfer pipeline (package transfer) can run unmodified over either
// realization.
type Strategy[T any] interface {
	// Fetch retrieves chunk i's sealed bytes from url into the staging
	// type T (in memory, or a temp file path).
	Fetch(ctx context.Context, url string, i uint64) (T, error)
	// StageForDecrypt turns T into the raw IV||ciphertext||tag buffer;
	// the caller splits off the IV before crypto.OpenChunk. For
	// low-memory this reads and deletes the temp file.
	StageForDecrypt(staged T) ([]byte, error)
	// Encrypt reads chunk i from inputFile, seals it under key, and
	// returns the ready-to-PUT payload plus its SHA-512 hex hash.
	Encrypt(inputFile string, i uint64, key []byte) (T, string, error)
	// Put uploads the staged payload to url with the given bearer token.
	Put(ctx context.Context, url string, staged T, bearer string) error
}
