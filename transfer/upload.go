package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cloudvault/filesdk/config"
	"github.com/cloudvault/filesdk/consistency"
	"github.com/cloudvault/filesdk/crypto"
	"github.com/cloudvault/filesdk/endpoints"
	sdkerrors "github.com/cloudvault/filesdk/errors"
	"github.com/cloudvault/filesdk/httpapi"
	"github.com/cloudvault/filesdk/metadata"
	"github.com/cloudvault/filesdk/strategy"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// UploadInput describes one chunked upload request: stat the input
// file, generate a chunk key and file UUID, encrypt name/mime/size/
// metadata, PUT every chunk, then call upload-done.
type UploadInput struct {
	InputPath  string
	ParentUUID string
	FileName   string
	MasterKey  string
	Bearer     string
}

// UploadResult is the server-assigned UUID for the newly uploaded file.
type UploadResult struct {
	UUID string
}

type uploadDoneResponse struct {
	UUID string `json:"uuid"`
}

type encryptedChunk[T any] struct {
	index uint64
	value T
	hash  string
}

// Upload runs the full stat → encrypt → ingest → upload-done pipeline
// for strat. Like download, each ingest PUT gets bounded retries
// (config.UploadRetries, config.RetryDelay) — see DESIGN.md's
// upload-retry-policy resolution.
func Upload[T any](ctx context.Context, limits *Limits, strat strategy.Strategy[T], client *http.Client, eps *endpoints.Config, in UploadInput) (UploadResult, error) {
	info, err := os.Stat(in.InputPath)
	if err != nil {
		return UploadResult{}, &sdkerrors.FileNotFoundError{Path: in.InputPath}
	}
	if info.IsDir() {
		return UploadResult{}, &sdkerrors.PathIsDirectoryError{Path: in.InputPath}
	}

	size := info.Size()
	lastModified := info.ModTime().Unix()
	mimeType := mime.TypeByExtension(filepath.Ext(in.FileName))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	chunkKey, err := crypto.GenerateKey()
	if err != nil {
		return UploadResult{}, &sdkerrors.CryptoError{Cause: err}
	}
	fileUUID := uuid.New().String()
	uploadKey, err := crypto.GenerateAlphanumeric(32)
	if err != nil {
		return UploadResult{}, &sdkerrors.CryptoError{Cause: err}
	}

	chunks := uint64((size + config.ChunkSize - 1) / config.ChunkSize)

	sizeStr := strconv.FormatInt(size, 10)
	nameEnc, err := metadata.Encrypt(in.FileName, chunkKey)
	if err != nil {
		return UploadResult{}, &sdkerrors.CryptoError{Cause: err}
	}
	mimeEnc, err := metadata.Encrypt(mimeType, chunkKey)
	if err != nil {
		return UploadResult{}, &sdkerrors.CryptoError{Cause: err}
	}
	sizeEnc, err := metadata.Encrypt(sizeStr, chunkKey)
	if err != nil {
		return UploadResult{}, &sdkerrors.CryptoError{Cause: err}
	}

	fileMeta := metadata.FileMetadata{
		Name:         in.FileName,
		Size:         &size,
		MimeType:     &mimeType,
		Key:          chunkKey,
		LastModified: &lastModified,
	}
	metaJSON, err := marshalFileMetadata(fileMeta)
	if err != nil {
		return UploadResult{}, &sdkerrors.JSONError{Message: err.Error()}
	}
	metadataEnc, err := metadata.Encrypt(metaJSON, in.MasterKey)
	if err != nil {
		return UploadResult{}, &sdkerrors.CryptoError{Cause: err}
	}

	nameHashed := crypto.SHA1OfSHA512Hex(strings.ToLower(in.FileName))

	g, gctx := errgroup.WithContext(ctx)

	encrypted := make(chan encryptedChunk[T], config.MaxUploadConcurrency)
	g.Go(func() error {
		defer close(encrypted)
		for i := uint64(0); i < chunks; i++ {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			sealed, hash, err := strat.Encrypt(in.InputPath, i, []byte(chunkKey))
			if err != nil {
				return &sdkerrors.ChunkEncryptError{Chunk: i, Cause: err}
			}
			select {
			case encrypted <- encryptedChunk[T]{index: i, value: sealed, hash: hash}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for ec := range encrypted {
		limits.acquireUpload()
		g.Go(func() error {
			defer limits.releaseUpload()

			url := endpoints.IngestURL(fileUUID, in.ParentUUID, uploadKey, ec.index, ec.hash)
			if !attemptUpload(gctx, strat, url, ec, in.Bearer) {
				return &sdkerrors.UploadError{Chunk: ec.index}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return UploadResult{}, err
	}

	doneReq := map[string]any{
		"uuid":       fileUUID,
		"name":       nameEnc,
		"nameHashed": nameHashed,
		"size":       sizeEnc,
		"chunks":     chunks,
		"mime":       mimeEnc,
		"rm":         "false",
		"metadata":   metadataEnc,
		"version":    2,
		"uploadKey":  uploadKey,
		"parent":     in.ParentUUID,
	}

	done, err := httpapi.APIRequest[uploadDoneResponse](ctx, client, httpapi.Request{
		Method: http.MethodPost,
		URL:    eps.UploadDone(),
		Bearer: in.Bearer,
		Body:   doneReq,
	})
	if err != nil {
		return UploadResult{}, err
	}
	if done.UUID == "" {
		done.UUID = fileUUID
	}
	consistency.TrackUpload(done.UUID, chunks)

	return UploadResult{UUID: done.UUID}, nil
}

func attemptUpload[T any](ctx context.Context, strat strategy.Strategy[T], url string, ec encryptedChunk[T], bearer string) bool {
	for attempt := 0; attempt <= config.UploadRetries; attempt++ {
		err := strat.Put(ctx, url, ec.value, bearer)
		if err == nil {
			return true
		}
		logrus.WithFields(logrus.Fields{"chunk": ec.index, "attempt": attempt, "err": err}).Debug("chunk upload failed, retrying")
		select {
		case <-ctx.Done():
			return false
		case <-time.After(config.RetryDelay):
		}
	}
	return false
}

func marshalFileMetadata(m metadata.FileMetadata) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal file metadata: %w", err)
	}
	return string(b), nil
}
