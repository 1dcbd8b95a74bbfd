// Package fileops implements file_info and the directory-content
// iterator: thin glue between the metadata codec, the HTTP envelope
// primitive, and the streaming JSON array decoder. Directory entries
// are yielded one at a time with their fields still encrypted.
package fileops

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/cloudvault/filesdk/config"
	"github.com/cloudvault/filesdk/consistency"
	"github.com/cloudvault/filesdk/dirlisting"
	"github.com/cloudvault/filesdk/endpoints"
	sdkerrors "github.com/cloudvault/filesdk/errors"
	"github.com/cloudvault/filesdk/httpapi"
	"github.com/cloudvault/filesdk/metadata"
)

// FileInfo is file_info's decrypted result: the wire fields plus the
// plaintext name/size/mime/key recovered from the metadata blob.
type FileInfo struct {
	UUID     string
	Region   string
	Bucket   string
	Parent   string
	Name     string
	Size     int64
	MimeType string
	ChunkKey string
	Chunks   uint64
	Trash    bool
}

type fileData struct {
	UUID     string `json:"uuid"`
	Region   string `json:"region"`
	Bucket   string `json:"bucket"`
	Metadata string `json:"metadata"`
	Size     int64  `json:"size"`
	Parent   string `json:"parent"`
	Trash    bool   `json:"trash"`
	Version  int    `json:"version"`
}

// GetFileInfo calls /v3/file and decrypts its metadata blob under
// masterKey to recover the file's plaintext name, size, mime type, and
// per-chunk key.
func GetFileInfo(ctx context.Context, client *http.Client, eps *endpoints.Config, bearer, masterKey, uuid string) (FileInfo, error) {
	if err := consistency.AwaitUpload(ctx, uuid); err != nil {
		return FileInfo{}, err
	}

	data, err := httpapi.APIRequest[fileData](ctx, client, httpapi.Request{
		Method: http.MethodPost,
		URL:    eps.File(),
		Bearer: bearer,
		Body:   map[string]string{"uuid": uuid},
	})
	if err != nil {
		return FileInfo{}, err
	}

	plain, err := metadata.Decrypt(data.Metadata, masterKey)
	if err != nil {
		return FileInfo{}, err
	}
	var fm metadata.FileMetadata
	if err := json.Unmarshal([]byte(plain), &fm); err != nil {
		return FileInfo{}, &sdkerrors.JSONError{Body: []byte(plain), Message: err.Error()}
	}

	size := data.Size
	if fm.Size != nil {
		size = *fm.Size
	}
	chunks := uint64((size + config.ChunkSize - 1) / config.ChunkSize)

	mimeType := ""
	if fm.MimeType != nil {
		mimeType = *fm.MimeType
	}

	return FileInfo{
		UUID: data.UUID, Region: data.Region, Bucket: data.Bucket, Parent: data.Parent,
		Name: fm.Name, Size: size, MimeType: mimeType, ChunkKey: fm.Key, Chunks: chunks,
		Trash: data.Trash,
	}, nil
}

// DirEntry is one entry yielded by DirContentsIterator.Next: Variant is
// "uploads" or "folders", Value is the corresponding encrypted record.
type DirEntry = dirlisting.Entry

// EncryptedUpload is the wire shape of one "uploads" array element.
type EncryptedUpload struct {
	UUID          string `json:"uuid"`
	NameEncrypted string `json:"nameEncrypted"`
	SizeEncrypted string `json:"sizeEncrypted"`
	MimeEncrypted string `json:"mimeEncrypted"`
	Metadata      string `json:"metadata"`
}

// EncryptedFolder is the wire shape of one "folders" array element.
type EncryptedFolder struct {
	UUID          string `json:"uuid"`
	NameEncrypted string `json:"nameEncrypted"`
}

// DirContentsIterator streams the /v3/dir/content response, decoding
// one entry at a time instead of buffering the whole body.
type DirContentsIterator struct {
	body io.ReadCloser
	dec  *dirlisting.Decoder
}

// NewDirContentsIterator calls /v3/dir/content and returns an iterator
// over the streamed response.
func NewDirContentsIterator(ctx context.Context, client *http.Client, eps *endpoints.Config, bearer, uuid string, foldersOnly bool) (*DirContentsIterator, error) {
	body, err := json.Marshal(map[string]any{"uuid": uuid, "foldersOnly": foldersOnly})
	if err != nil {
		return nil, &sdkerrors.JSONError{Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, eps.DirContent(), bytes.NewReader(body))
	if err != nil {
		return nil, &sdkerrors.NetworkError{Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &sdkerrors.NetworkError{Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, sdkerrors.NewHTTPError(resp, "dir_content")
	}

	jsonDec := json.NewDecoder(resp.Body)
	if err := scanToDataObject(jsonDec); err != nil {
		resp.Body.Close()
		return nil, err
	}

	variants := map[string]dirlisting.Factory{
		"uploads": func() any { return &EncryptedUpload{} },
		"folders": func() any { return &EncryptedFolder{} },
	}
	return &DirContentsIterator{
		body: resp.Body,
		dec:  dirlisting.NewDecoderFromToken(jsonDec, variants),
	}, nil
}

// scanToDataObject consumes the envelope's outer "{", "status",
// "message", optional "code", and "data" tokens, leaving dec positioned
// just past the "data" object's opening "{" so a dirlisting.Decoder can
// continue scanning from there.
func scanToDataObject(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return &sdkerrors.JSONError{Message: "dir_content response: " + err.Error()}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return &sdkerrors.JSONError{Message: "dir_content response is not a JSON object"}
	}

	for {
		keyTok, err := dec.Token()
		if err != nil {
			return &sdkerrors.JSONError{Message: "dir_content response: " + err.Error()}
		}
		key, ok := keyTok.(string)
		if !ok {
			return &sdkerrors.JSONError{Message: "dir_content response: expected key string"}
		}

		if key == "data" {
			dataTok, err := dec.Token()
			if err != nil {
				return &sdkerrors.JSONError{Message: "dir_content response: " + err.Error()}
			}
			if delim, ok := dataTok.(json.Delim); !ok || delim != '{' {
				return &sdkerrors.JSONError{Message: "dir_content response: data is not an object"}
			}
			return nil
		}

		// Any other top-level field (status, message, code, ...) is a
		// scalar; skip its value with Decode into a throwaway.
		var discard json.RawMessage
		if err := dec.Decode(&discard); err != nil {
			return &sdkerrors.JSONError{Message: "dir_content response: " + err.Error()}
		}
	}
}

// Next returns the next entry, or io.EOF once the listing is exhausted.
// Callers MUST eventually call Close.
func (it *DirContentsIterator) Next() (*DirEntry, error) {
	return it.dec.Next()
}

// Close releases the underlying HTTP response body.
func (it *DirContentsIterator) Close() error { return it.body.Close() }
