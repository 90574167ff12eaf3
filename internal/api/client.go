package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"student-connect/internal/storage"
)

// Client is the single point of outbound HTTP to the Student Connect API.
// Every request carries "Authorization: Bearer <token>" when a token is
// present in Tokens. Calls are fire-once: no retry, no caching.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     storage.TokenStore

	Auth  *AuthAPI
	Users *UsersAPI
	Posts *PostsAPI
}

func NewClient(baseURL string, tokens storage.TokenStore) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
		Tokens:     tokens,
	}
	c.Auth = &AuthAPI{c: c}
	c.Users = &UsersAPI{c: c}
	c.Posts = &PostsAPI{c: c}
	return c
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if c.Tokens != nil {
		token, err := c.Tokens.LoadToken()
		if err != nil {
			return nil, fmt.Errorf("load token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	if in == nil {
		return c.newRequest(ctx, method, path, nil, "")
	}
	reqBody, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return c.newRequest(ctx, method, path, bytes.NewReader(reqBody), "application/json")
}

// do sends req and decodes a 2xx JSON body into out (when non-nil). Other
// statuses become *Error classified by kindForStatus.
func (c *Client) do(req *http.Request, out any, overrides map[int]error) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &Error{Kind: ErrNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Kind:   kindForStatus(resp.StatusCode, overrides),
			Status: resp.StatusCode,
			Detail: decodeErrorDetail(resp.Body),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: ErrServer, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, overrides map[int]error) error {
	req, err := c.newJSONRequest(ctx, method, path, in)
	if err != nil {
		return err
	}
	return c.do(req, out, overrides)
}

// decodeErrorDetail extracts the human readable message from an error body.
// It understands {"detail": "..."}, {"detail": [{"msg": "..."}]} and
// {"message": "..."}.
func decodeErrorDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	if len(envelope.Detail) > 0 {
		var s string
		if err := json.Unmarshal(envelope.Detail, &s); err == nil {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(envelope.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	return envelope.Message
}
