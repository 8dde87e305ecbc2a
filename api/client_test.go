package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/", srv.Client())
	require.NoError(t, err)
	return c
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "not a url", "/relative"} {
		_, err := New(raw, nil)
		assert.Error(t, err, raw)
	}
}

func TestCreateSessionTokenPaths(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = io.WriteString(w, `{"object":"token","jwt":"header.payload.sig"}`)
	})

	jwt, err := c.CreateSessionToken(context.Background(), "sess_1", "", SessionTokenParams{})
	require.NoError(t, err)
	assert.Equal(t, "header.payload.sig", jwt)

	_, err = c.CreateSessionToken(context.Background(), "sess_1", "supabase", SessionTokenParams{})
	require.NoError(t, err)

	assert.Equal(t, []string{"/v1/client/sessions/sess_1/tokens", "/v1/client/sessions/sess_1/tokens/supabase"}, paths)
}

func TestCreateSessionTokenRejectsEmptyJWT(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"object":"token"}`)
	})
	_, err := c.CreateSessionToken(context.Background(), "sess_1", "", SessionTokenParams{})
	assert.Error(t, err)
}

func TestErrorResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"errors":[{"code":"authentication_invalid","message":"Unauthorized","long_message":"Session is not active"}]}`)
	})

	_, err := c.CreateSessionToken(context.Background(), "sess_1", "", SessionTokenParams{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRequestFailed))

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.True(t, apiErr.HasCode("authentication_invalid"))
	assert.Contains(t, apiErr.Error(), "Session is not active")
}

func TestErrorResponseWithoutBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.GetClient(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Empty(t, apiErr.Errors)
}

func TestGetClientReadsResponseObject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/client", r.URL.Path)
		_, _ = io.WriteString(w, `{"response":{"object":"client","id":"client_1","sessions":[{"id":"sess_1","status":"active"}],"last_active_session_id":"sess_1"},"client":null}`)
	})

	client, err := c.GetClient(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "client_1", client.ID)
	_, ok := client.ActiveSession()
	assert.True(t, ok)
}

func TestEndSessionReadsSiblingClient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/client/sessions/sess_1/end", r.URL.Path)
		_, _ = io.WriteString(w, `{"response":{"object":"session","id":"sess_1","status":"ended"},"client":{"id":"client_1","sessions":[]}}`)
	})

	client, err := c.EndSession(context.Background(), "sess_1")
	require.NoError(t, err)
	assert.Equal(t, "client_1", client.ID)
	assert.Empty(t, client.Sessions)
}

func TestVerifyAttestationFormEncoding(t *testing.T) {
	var form url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		_, _ = io.WriteString(w, `{"response":{"object":"client","id":"client_1"}}`)
	})

	client, err := c.VerifyAttestation(context.Background(), "integrity-token", "com.example.app")
	require.NoError(t, err)
	assert.Equal(t, "client_1", client.ID)
	assert.Equal(t, "integrity-token", form.Get("token"))
	assert.Equal(t, "com.example.app", form.Get("client_id"))
}

func TestSignOutAllUsesDelete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v1/client/sessions", r.URL.Path)
		_, _ = io.WriteString(w, `{"response":{"object":"client","id":"client_1","sessions":[]}}`)
	})
	_, err := c.SignOutAll(context.Background())
	require.NoError(t, err)
}

func TestAttestationChallenge(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/client/device_attestation/challenges", r.URL.Path)
		_, _ = io.WriteString(w, `{"challenge":"nonce-123"}`)
	})
	challenge, err := c.AttestationChallenge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "nonce-123", challenge)
}

func TestMalformedSuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>oops</html>`)
	})
	_, err := c.GetClient(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRequestFailed))
}
