package cloudsync

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
	"github.com/PolarWolf314/quill/internal/keys"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
)

var validate = validator.New()

// RemoteKeys are the key fields of the remote user profile.
type RemoteKeys struct {
	PublicKey           string `json:"public_key" validate:"required,base64"`
	EncryptedPrivateKey string `json:"encrypted_private_key" validate:"required,base64"`
}

// Validate checks shape and minimum sizes before any decryption is attempted.
func (r *RemoteKeys) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrInvalidStoredKeys, err)
	}
	if _, err := keys.DecodeKey(r.PublicKey); err != nil {
		return fmt.Errorf("%w: public key: %v", kerrors.ErrInvalidStoredKeys, err)
	}
	if !keys.IsBase64(r.EncryptedPrivateKey, keys.MinEncryptedSecretKeySize) {
		return fmt.Errorf("%w: encrypted private key is too short", kerrors.ErrInvalidStoredKeys)
	}
	return nil
}

// ProfileClient reads and writes the key fields of a remote user profile.
type ProfileClient interface {
	// Authenticated reports whether requests carry backend credentials.
	Authenticated() bool
	// GetKeys returns ErrCloudKeysNotFound when the profile has no keys.
	GetKeys(ctx context.Context, userID string) (*RemoteKeys, error)
	PutKeys(ctx context.Context, userID string, remote RemoteKeys) error
	// ClearKeys nulls the key fields on the profile.
	ClearKeys(ctx context.Context, userID string) error
}

// DefaultTimeout bounds each request to the backend.
const DefaultTimeout = 10 * time.Second

// RESTConfig configures a RESTClient.
type RESTConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// RESTClient talks to {base}/users/{id}/profile with a bearer token.
type RESTClient struct {
	client *resty.Client
	token  string
}

type profileKeys struct {
	PublicKey           *string `json:"public_key"`
	EncryptedPrivateKey *string `json:"encrypted_private_key"`
}

type apiError struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e *apiError) String() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// NewRESTClient returns ErrBackendNotConfigured when BaseURL is empty.
func NewRESTClient(cfg RESTConfig) (*RESTClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, kerrors.ErrBackendNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	cl := resty.New().SetBaseURL(base).SetTimeout(timeout)
	cl.SetHeader("Content-Type", "application/json")
	cl.SetHeader("Accept", "application/json")
	cl.SetHeader("User-Agent", "quill/1.0")
	if cfg.Token != "" {
		cl.SetAuthToken(cfg.Token)
	}

	return &RESTClient{client: cl, token: cfg.Token}, nil
}

func (c *RESTClient) Authenticated() bool {
	return c.token != ""
}

func (c *RESTClient) GetKeys(ctx context.Context, userID string) (*RemoteKeys, error) {
	var profile profileKeys
	var apiErr apiError

	response, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", userID).
		SetResult(&profile).
		SetError(&apiErr).
		ExpectContentType("application/json").
		Get("/users/{id}/profile")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrCloudRequestFailed, err)
	}
	if response.StatusCode() == http.StatusNotFound {
		return nil, kerrors.ErrCloudKeysNotFound
	}
	if response.IsError() {
		return nil, c.statusError(response, &apiErr)
	}

	if profile.PublicKey == nil || profile.EncryptedPrivateKey == nil ||
		*profile.PublicKey == "" || *profile.EncryptedPrivateKey == "" {
		return nil, kerrors.ErrCloudKeysNotFound
	}
	return &RemoteKeys{
		PublicKey:           *profile.PublicKey,
		EncryptedPrivateKey: *profile.EncryptedPrivateKey,
	}, nil
}

func (c *RESTClient) PutKeys(ctx context.Context, userID string, remote RemoteKeys) error {
	if err := remote.Validate(); err != nil {
		return err
	}
	return c.put(ctx, userID, profileKeys{
		PublicKey:           &remote.PublicKey,
		EncryptedPrivateKey: &remote.EncryptedPrivateKey,
	})
}

func (c *RESTClient) ClearKeys(ctx context.Context, userID string) error {
	return c.put(ctx, userID, profileKeys{})
}

func (c *RESTClient) put(ctx context.Context, userID string, body profileKeys) error {
	var apiErr apiError

	response, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", userID).
		SetBody(body).
		SetError(&apiErr).
		ExpectContentType("application/json").
		Put("/users/{id}/profile")
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrCloudRequestFailed, err)
	}
	if response.IsError() {
		return c.statusError(response, &apiErr)
	}
	return nil
}

func (c *RESTClient) statusError(response *resty.Response, apiErr *apiError) error {
	switch response.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return kerrors.ErrNotAuthenticated
	}
	if msg := apiErr.String(); msg != "" {
		return fmt.Errorf("%w: %d: %s", kerrors.ErrCloudRequestFailed, response.StatusCode(), msg)
	}
	return fmt.Errorf("%w: %d", kerrors.ErrCloudRequestFailed, response.StatusCode())
}
