package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cloudvault/filesdk/config"
	"github.com/cloudvault/filesdk/crypto"
	"github.com/cloudvault/filesdk/endpoints"
	sdkerrors "github.com/cloudvault/filesdk/errors"
	"github.com/cloudvault/filesdk/strategy"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DownloadInput describes one "orderless download" request.
type DownloadInput struct {
	UUID, Region, Bucket, KeyStr string
	OutputDir                    string
	// OutputName, if set, selects single-file mode: all chunks are
	// written at their byte offset into one file. If unset, one file
	// per chunk is written inside OutputDir, named by chunk index.
	OutputName *string
	FileSize   int64
	// StartByte/EndByte select a byte range; nil means the whole file.
	StartByte, EndByte *int64
}

// DownloadResult reports the byte range actually produced, clamped to
// chunk boundaries.
type DownloadResult struct {
	ActualStart, ActualEnd int64
}

type fetchResult[T any] struct {
	index uint64
	value T
	ok    bool
}

// Download runs the chunked parallel download pipeline for strat over
// in's requested range, writing plaintext to disk as described above.
func Download[T any](ctx context.Context, limits *Limits, strat strategy.Strategy[T], in DownloadInput) (DownloadResult, error) {
	startByte := int64(0)
	if in.StartByte != nil {
		startByte = *in.StartByte
	}
	if startByte < 0 {
		startByte = 0
	}
	endByte := in.FileSize
	if in.EndByte != nil {
		endByte = *in.EndByte
	}

	startChunk := uint64(startByte / config.ChunkSize)
	maxChunk := uint64(in.FileSize/config.ChunkSize) + 1
	endChunk := uint64((endByte + config.ChunkSize - 1) / config.ChunkSize)
	if endChunk > maxChunk {
		endChunk = maxChunk
	}
	if endChunk < startChunk {
		endChunk = startChunk
	}

	result := DownloadResult{
		ActualStart: int64(startChunk) * config.ChunkSize,
		ActualEnd:   min64(int64(endChunk)*config.ChunkSize, in.FileSize),
	}

	singleFile := in.OutputName != nil
	var outPath string
	if singleFile {
		outPath = filepath.Join(in.OutputDir, *in.OutputName)
		if info, err := os.Stat(outPath); err == nil && info.IsDir() {
			return DownloadResult{}, &sdkerrors.PathIsDirectoryError{Path: outPath}
		}
	}
	if err := os.MkdirAll(in.OutputDir, 0o755); err != nil {
		return DownloadResult{}, &sdkerrors.InvalidPathError{Path: in.OutputDir}
	}

	var out *os.File
	if singleFile {
		f, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return DownloadResult{}, &sdkerrors.InvalidPathError{Path: outPath}
		}
		defer f.Close()
		out = f
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	results := make(chan fetchResult[T], config.MaxDownloadConcurrency)

	g.Go(func() error {
		for i := startChunk; i < endChunk; i++ {
			limits.acquireDownload()
			g.Go(func() error {
				defer limits.releaseDownload()

				url := endpoints.EgestURL(in.Region, in.Bucket, in.UUID, i)
				staged, ok := attemptDownload(gctx, strat, url, i)
				if !ok {
					return &sdkerrors.DownloadError{Chunk: i}
				}
				select {
				case results <- fetchResult[T]{index: i, value: staged, ok: true}:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		return nil
	})

	go func() {
		g.Wait()
		close(results)
	}()

	var firstErr error
	for r := range results {
		if firstErr != nil {
			continue
		}
		if err := writeChunk(strat, in.KeyStr, r.index, startChunk, r.value, singleFile, out, in.OutputDir); err != nil {
			firstErr = err
			cancel()
		}
	}

	if err := g.Wait(); err != nil && firstErr == nil {
		firstErr = err
	}

	if firstErr != nil {
		if singleFile {
			out.Close()
			_ = os.Remove(outPath)
		}
		return DownloadResult{}, firstErr
	}

	return result, nil
}

func attemptDownload[T any](ctx context.Context, strat strategy.Strategy[T], url string, i uint64) (T, bool) {
	var zero T
	for attempt := 0; attempt <= config.DownloadRetries; attempt++ {
		staged, err := strat.Fetch(ctx, url, i)
		if err == nil {
			return staged, true
		}
		logrus.WithFields(logrus.Fields{"chunk": i, "attempt": attempt, "err": err}).Debug("chunk fetch failed, retrying")
		select {
		case <-ctx.Done():
			return zero, false
		case <-time.After(config.RetryDelay):
		}
	}
	return zero, false
}

func writeChunk[T any](strat strategy.Strategy[T], keyStr string, index, startChunk uint64, staged T, singleFile bool, out *os.File, outputDir string) error {
	raw, err := strat.StageForDecrypt(staged)
	if err != nil {
		return &sdkerrors.CryptoError{Cause: err}
	}
	if len(raw) < crypto.IVSize+crypto.GCMTagSize {
		return &sdkerrors.InvalidMetadataError{Reason: "chunk shorter than iv+tag"}
	}
	iv := raw[:crypto.IVSize]
	ciphertext := raw[crypto.IVSize:]

	plain, err := crypto.OpenChunk([]byte(keyStr), iv, ciphertext)
	if err != nil {
		return &sdkerrors.CryptoError{Cause: err}
	}

	if singleFile {
		offset := int64(index-startChunk) * config.ChunkSize
		_, err := out.WriteAt(plain, offset)
		return err
	}

	path := filepath.Join(outputDir, fmt.Sprintf("%d", index))
	return os.WriteFile(path, plain, 0o644)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
