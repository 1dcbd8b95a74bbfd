package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"

	sdkerrors "github.com/cloudvault/filesdk/errors"
)

// DownloadIntoMemory GETs url and buffers the full response body.
func DownloadIntoMemory(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &sdkerrors.NetworkError{Cause: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &sdkerrors.NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, sdkerrors.NewHTTPError(resp, "download_into_memory")
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &sdkerrors.NetworkError{Cause: err}
	}
	return data, nil
}

// DownloadToFileStreamed GETs url and streams the response body directly
// to path, never holding the whole body in memory.
func DownloadToFileStreamed(ctx context.Context, client *http.Client, url, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &sdkerrors.NetworkError{Cause: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &sdkerrors.NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", sdkerrors.NewHTTPError(resp, "download_to_file_streamed")
	}

	f, err := os.Create(path)
	if err != nil {
		return "", &sdkerrors.InvalidPathError{Path: path}
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", &sdkerrors.NetworkError{Cause: err}
	}
	return path, nil
}

// UploadChunkResponse is the {bucket, region} data returned by a
// successful ingest PUT.
type UploadChunkResponse struct {
	Bucket string `json:"bucket"`
	Region string `json:"region"`
}

// UploadFromMemory PUTs data to url with the given bearer token.
func UploadFromMemory(ctx context.Context, client *http.Client, url string, data []byte, bearer string) (UploadChunkResponse, error) {
	return uploadBody(ctx, client, url, bytes.NewReader(data), int64(len(data)), bearer)
}

// UploadFromFileStreamed PUTs the contents of path to url, streaming it
// as the request body instead of reading it into memory first.
func UploadFromFileStreamed(ctx context.Context, client *http.Client, url, path, bearer string) (UploadChunkResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return UploadChunkResponse{}, &sdkerrors.FileNotFoundError{Path: path}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return UploadChunkResponse{}, &sdkerrors.InvalidPathError{Path: path}
	}
	return uploadBody(ctx, client, url, f, info.Size(), bearer)
}

func uploadBody(ctx context.Context, client *http.Client, url string, body io.Reader, size int64, bearer string) (UploadChunkResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return UploadChunkResponse{}, &sdkerrors.NetworkError{Cause: err}
	}
	req.ContentLength = size
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return UploadChunkResponse{}, &sdkerrors.NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return UploadChunkResponse{}, sdkerrors.NewHTTPError(resp, "upload")
	}

	var env envelope[UploadChunkResponse]
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return UploadChunkResponse{}, &sdkerrors.NetworkError{Cause: err}
	}
	if len(respBody) == 0 {
		return UploadChunkResponse{}, nil
	}
	if err := json.Unmarshal(respBody, &env); err != nil {
		return UploadChunkResponse{}, &sdkerrors.JSONError{Body: respBody, Message: err.Error()}
	}
	if !env.Status {
		return UploadChunkResponse{}, &sdkerrors.APIError{Message: env.Message, Code: env.Code}
	}
	var data UploadChunkResponse
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return UploadChunkResponse{}, &sdkerrors.JSONError{Body: env.Data, Message: err.Error()}
		}
	}
	return data, nil
}
