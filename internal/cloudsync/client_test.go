package cloudsync

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
	"github.com/PolarWolf314/quill/internal/keys"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://api.quill.test"

var profileURL = baseURL + "/users/user-1/profile"

func newMockClient(t *testing.T, token string) *RESTClient {
	t.Helper()
	c, err := NewRESTClient(RESTConfig{BaseURL: baseURL + "/", Token: token})
	require.NoError(t, err)
	httpmock.ActivateNonDefault(c.client.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func sampleRemote() RemoteKeys {
	return RemoteKeys{
		PublicKey:           keys.EncodeKey(new([keys.KeySize]byte)),
		EncryptedPrivateKey: keys.EncodeBytes(make([]byte, keys.MinEncryptedSecretKeySize)),
	}
}

func TestNewRESTClientRequiresURL(t *testing.T) {
	_, err := NewRESTClient(RESTConfig{BaseURL: "  "})
	assert.ErrorIs(t, err, kerrors.ErrBackendNotConfigured)
}

func TestAuthenticated(t *testing.T) {
	c := newMockClient(t, "")
	assert.False(t, c.Authenticated())

	c = newMockClient(t, "secret-token")
	assert.True(t, c.Authenticated())
}

func TestGetKeys(t *testing.T) {
	c := newMockClient(t, "secret-token")
	remote := sampleRemote()

	httpmock.RegisterResponder("GET", profileURL, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "Bearer secret-token", req.Header.Get("Authorization"))
		return httpmock.NewJsonResponse(200, map[string]any{
			"id":                    "user-1",
			"public_key":            remote.PublicKey,
			"encrypted_private_key": remote.EncryptedPrivateKey,
		})
	})

	got, err := c.GetKeys(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, remote, *got)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestGetKeysMissing(t *testing.T) {
	c := newMockClient(t, "secret-token")

	empty, err := httpmock.NewJsonResponder(200, map[string]any{"id": "user-1", "public_key": nil, "encrypted_private_key": nil})
	require.NoError(t, err)
	httpmock.RegisterResponder("GET", profileURL, empty)
	_, err = c.GetKeys(context.Background(), "user-1")
	assert.ErrorIs(t, err, kerrors.ErrCloudKeysNotFound)

	httpmock.RegisterResponder("GET", profileURL, httpmock.NewStringResponder(404, `{"error":"not found"}`))
	_, err = c.GetKeys(context.Background(), "user-1")
	assert.ErrorIs(t, err, kerrors.ErrCloudKeysNotFound)
}

func TestGetKeysErrors(t *testing.T) {
	c := newMockClient(t, "secret-token")

	httpmock.RegisterResponder("GET", profileURL, httpmock.NewStringResponder(401, `{"error":"unauthorized"}`))
	_, err := c.GetKeys(context.Background(), "user-1")
	assert.ErrorIs(t, err, kerrors.ErrNotAuthenticated)

	httpmock.RegisterResponder("GET", profileURL, httpmock.NewStringResponder(500, `{"message":"database down"}`))
	_, err = c.GetKeys(context.Background(), "user-1")
	assert.ErrorIs(t, err, kerrors.ErrCloudRequestFailed)
	assert.Contains(t, err.Error(), "database down")
}

func TestPutKeys(t *testing.T) {
	c := newMockClient(t, "secret-token")
	remote := sampleRemote()

	var body map[string]any
	httpmock.RegisterResponder("PUT", profileURL, func(req *http.Request) (*http.Response, error) {
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return httpmock.NewStringResponse(400, ""), nil
		}
		return httpmock.NewStringResponse(204, ""), nil
	})

	require.NoError(t, c.PutKeys(context.Background(), "user-1", remote))
	assert.Equal(t, remote.PublicKey, body["public_key"])
	assert.Equal(t, remote.EncryptedPrivateKey, body["encrypted_private_key"])
}

func TestPutKeysRejectsMalformed(t *testing.T) {
	c := newMockClient(t, "secret-token")

	err := c.PutKeys(context.Background(), "user-1", RemoteKeys{PublicKey: "not base64!", EncryptedPrivateKey: "AAAA"})
	assert.ErrorIs(t, err, kerrors.ErrInvalidStoredKeys)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestClearKeysSendsNulls(t *testing.T) {
	c := newMockClient(t, "secret-token")

	var body map[string]any
	httpmock.RegisterResponder("PUT", profileURL, func(req *http.Request) (*http.Response, error) {
		_ = json.NewDecoder(req.Body).Decode(&body)
		return httpmock.NewStringResponse(200, `{}`), nil
	})

	require.NoError(t, c.ClearKeys(context.Background(), "user-1"))
	require.Contains(t, body, "public_key")
	assert.Nil(t, body["public_key"])
	assert.Nil(t, body["encrypted_private_key"])
}
