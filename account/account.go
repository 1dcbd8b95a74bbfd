// Package account exposes account-level storage figures by reading the
// maxStorage/storageUsed fields already present on the user/info
// response the login handshake uses for its base-folder lookup.
package account

import (
	"context"
	"net/http"

	"github.com/cloudvault/filesdk/endpoints"
	"github.com/cloudvault/filesdk/httpapi"
)

// Usage is an account's storage ceiling and current consumption, both
// in bytes.
type Usage struct {
	MaxStorageBytes int64
	UsedBytes       int64
}

type userInfoData struct {
	MaxStorage  int64 `json:"maxStorage"`
	StorageUsed int64 `json:"storageUsed"`
}

// GetUsage calls user/info and returns the account's storage ceiling
// and current usage.
func GetUsage(ctx context.Context, client *http.Client, eps *endpoints.Config, bearer string) (Usage, error) {
	data, err := httpapi.APIRequest[userInfoData](ctx, client, httpapi.Request{
		Method: http.MethodGet,
		URL:    eps.UserInfo(),
		Bearer: bearer,
	})
	if err != nil {
		return Usage{}, err
	}
	return Usage{MaxStorageBytes: data.MaxStorage, UsedBytes: data.StorageUsed}, nil
}
