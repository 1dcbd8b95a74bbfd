// Package auth implements the login handshake and persisted-credential
// round trip: a three-call AuthV2 login against auth/info, login, and
// user/info, producing a Credentials value ready to drive the transfer
// and fileops packages.
package auth

import (
	"context"
	"net/http"

	"github.com/cloudvault/filesdk/crypto"
	"github.com/cloudvault/filesdk/endpoints"
	sdkerrors "github.com/cloudvault/filesdk/errors"
	"github.com/cloudvault/filesdk/httpapi"
)

const authVersion2 = 2

// Credentials is the persisted session state returned by Login and
// accepted by every other package that needs to make an authenticated
// call or decrypt a file.
type Credentials struct {
	Email          string
	MasterKey      string
	APIKey         string
	PublicKey      string
	PrivateKey     string
	AuthVersion    int
	UserID         string
	BaseFolderUUID *string
}

type authInfoData struct {
	Email       string `json:"email"`
	AuthVersion int    `json:"authVersion"`
	Salt        string `json:"salt"`
	ID          string `json:"id"`
}

type loginData struct {
	APIKey     string `json:"apiKey"`
	MasterKeys string `json:"masterKeys"`
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

type userInfoData struct {
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	IsPremium      int     `json:"isPremium"`
	MaxStorage     int64   `json:"maxStorage"`
	StorageUsed    int64   `json:"storageUsed"`
	AvatarURL      string  `json:"avatarURL"`
	BaseFolderUUID *string `json:"baseFolderUUID"`
}

// Login runs the full three-call handshake: auth/info to fetch the salt
// and auth version, a local AuthV2 derivation, login to exchange the
// derived password for API credentials, and user/info to fetch the
// base folder UUID.
func Login(ctx context.Context, client *http.Client, eps *endpoints.Config, email, password, otp string) (Credentials, error) {
	info, err := httpapi.APIRequest[authInfoData](ctx, client, httpapi.Request{
		Method: http.MethodPost,
		URL:    eps.AuthInfo(),
		Body:   map[string]string{"email": email},
	})
	if err != nil {
		return Credentials{}, err
	}
	if info.AuthVersion != authVersion2 {
		return Credentials{}, &sdkerrors.AuthVersionError{Version: info.AuthVersion}
	}

	derived := crypto.DeriveAuthV2(password, info.Salt)

	login, err := httpapi.APIRequest[loginData](ctx, client, httpapi.Request{
		Method: http.MethodPost,
		URL:    eps.Login(),
		Body: map[string]any{
			"email":         email,
			"password":      derived.LoginPassword,
			"twoFactorCode": otp,
			"authVersion":   authVersion2,
		},
	})
	if err != nil {
		return Credentials{}, err
	}

	user, err := httpapi.APIRequest[userInfoData](ctx, client, httpapi.Request{
		Method: http.MethodGet,
		URL:    eps.UserInfo(),
		Bearer: login.APIKey,
	})
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{
		Email:          email,
		MasterKey:      derived.MasterKey,
		APIKey:         login.APIKey,
		PublicKey:      login.PublicKey,
		PrivateKey:     login.PrivateKey,
		AuthVersion:    authVersion2,
		UserID:         user.ID,
		BaseFolderUUID: user.BaseFolderUUID,
	}, nil
}
