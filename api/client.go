package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/MrEthical07/goAuthClient/session"
)

const maxBodyBytes = 4 << 20

// Client calls the identity server. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for baseURL. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(u.String(), "/"), http: httpClient}, nil
}

// HTTPClient returns the underlying client.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

type tokenResponse struct {
	JWT string `json:"jwt"`
}

type envelope struct {
	Response json.RawMessage `json:"response"`
	Client   *session.Client `json:"client"`
}

// CreateSessionToken issues a JWT for sessionID, optionally for a named template.
func (c *Client) CreateSessionToken(ctx context.Context, sessionID, template string, params SessionTokenParams) (string, error) {
	path := "/v1/client/sessions/" + url.PathEscape(sessionID) + "/tokens"
	if template != "" {
		path += "/" + url.PathEscape(template)
	}

	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, path, params.Values(), &out); err != nil {
		return "", err
	}
	if out.JWT == "" {
		return "", errors.New("token response carried no jwt")
	}
	return out.JWT, nil
}

// GetClient returns the current client.
func (c *Client) GetClient(ctx context.Context) (*session.Client, error) {
	return c.clientCall(ctx, http.MethodGet, "/v1/client", nil)
}

// EndSession ends one session and returns the updated client.
func (c *Client) EndSession(ctx context.Context, sessionID string) (*session.Client, error) {
	return c.clientCall(ctx, http.MethodPost, "/v1/client/sessions/"+url.PathEscape(sessionID)+"/end", nil)
}

// SignOutAll ends every session of the client.
func (c *Client) SignOutAll(ctx context.Context) (*session.Client, error) {
	return c.clientCall(ctx, http.MethodDelete, "/v1/client/sessions", nil)
}

// SetActiveSession marks sessionID as the client's last active session.
func (c *Client) SetActiveSession(ctx context.Context, sessionID string, params SetActiveParams) (*session.Client, error) {
	return c.clientCall(ctx, http.MethodPost, "/v1/client/sessions/"+url.PathEscape(sessionID)+"/touch", params.Values())
}

type challengeResponse struct {
	Challenge string `json:"challenge"`
}

// AttestationChallenge requests a device attestation challenge.
func (c *Client) AttestationChallenge(ctx context.Context) (string, error) {
	var out challengeResponse
	if err := c.do(ctx, http.MethodPost, "/v1/client/device_attestation/challenges", nil, &out); err != nil {
		return "", err
	}
	return out.Challenge, nil
}

// VerifyAttestation submits an integrity token and returns the updated client.
func (c *Client) VerifyAttestation(ctx context.Context, token, applicationID string) (*session.Client, error) {
	params := VerifyAttestationParams{Token: token, ApplicationID: applicationID}
	return c.clientCall(ctx, http.MethodPost, "/v1/client/verify", params.Values())
}

// clientCall decodes a client from "response" or, failing that, "client".
func (c *Client) clientCall(ctx context.Context, method, path string, form url.Values) (*session.Client, error) {
	var env envelope
	if err := c.do(ctx, method, path, form, &env); err != nil {
		return nil, err
	}

	if len(env.Response) > 0 && !bytes.Equal(env.Response, []byte("null")) {
		var head struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(env.Response, &head); err == nil && head.Object == "client" {
			var client session.Client
			if err := json.Unmarshal(env.Response, &client); err != nil {
				return nil, fmt.Errorf("decode client: %w", err)
			}
			return &client, nil
		}
	}
	if env.Client != nil {
		return env.Client, nil
	}
	return &session.Client{}, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
