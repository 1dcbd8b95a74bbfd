// Package httpapi implements the HTTP primitives the transfer engine is
// built from: api_request plus the four edge I/O modes
// (download-into-memory, download-to-file-streamed, upload-from-memory,
// upload-from-file-streamed), and the shared {status, message, code,
// data} envelope every API JSON response uses.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	sdkerrors "github.com/cloudvault/filesdk/errors"
)

// envelope is the wire shape every API JSON response is wrapped in.
type envelope[T any] struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Code    string          `json:"code,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Request describes a single api_request call: method, URL, optional
// bearer token, and an optional JSON-serializable body.
type Request struct {
	Method string
	URL    string
	Bearer string
	Body   any
}

// APIRequest performs a single request/response cycle against the
// {status,message,code,data} envelope and unmarshals data into T. A
// false status or absent data is reported as *sdkerrors.APIError.
func APIRequest[T any](ctx context.Context, client *http.Client, r Request) (T, error) {
	var zero T

	var bodyReader io.Reader
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return zero, &sdkerrors.JSONError{Message: fmt.Sprintf("marshal request body: %v", err)}
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, bodyReader)
	if err != nil {
		return zero, &sdkerrors.NetworkError{Cause: err}
	}
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+r.Bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return zero, &sdkerrors.NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, &sdkerrors.NetworkError{Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return zero, sdkerrors.NewHTTPError(&http.Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: io.NopCloser(bytes.NewReader(body))}, r.URL)
	}

	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, &sdkerrors.JSONError{Body: body, Message: err.Error()}
	}
	if !env.Status {
		return zero, &sdkerrors.APIError{Message: env.Message, Code: env.Code}
	}
	if len(env.Data) == 0 {
		return zero, &sdkerrors.APIError{Message: "response envelope missing data", Code: env.Code}
	}

	var data T
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return zero, &sdkerrors.JSONError{Body: env.Data, Message: err.Error()}
	}
	return data, nil
}
