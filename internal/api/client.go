package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Client is a thin JSON client for the lobby service.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     *zap.Logger
}

func NewClient(baseURL string, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: defaultTimeout},
		log:     log,
	}
}

func (c *Client) SetTimeout(d time.Duration) {
	c.httpc.Timeout = d
}

// call issues one request and decodes the JSON response into out (when
// non-nil). Error responses are decoded from the server's {"detail": ...}
// envelope into an *APIError.
func (c *Client) call(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug("api request", zap.String("method", method), zap.String("endpoint", endpoint))

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
			apiErr.Detail = envelope.Detail
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) CreateLobby(ctx context.Context, req CreateLobbyRequest) (*CreateLobbyResponse, error) {
	var resp CreateLobbyResponse
	if err := c.call(ctx, http.MethodPost, "/lobby/create", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) JoinLobby(ctx context.Context, req JoinLobbyRequest) (*JoinLobbyResponse, error) {
	var resp JoinLobbyResponse
	if err := c.call(ctx, http.MethodPost, "/lobby/join", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) StartLobby(ctx context.Context, req StartLobbyRequest) (*StartLobbyResponse, error) {
	var resp StartLobbyResponse
	if err := c.call(ctx, http.MethodPost, "/lobby/start", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetLobbyInfo fetches the authoritative lobby snapshot. The server decides
// field visibility from the requesting user id.
func (c *Client) GetLobbyInfo(ctx context.Context, pin, userID string) (*LobbyInfoResponse, error) {
	var resp LobbyInfoResponse
	endpoint := fmt.Sprintf("/lobby/%s?user_id=%s", url.PathEscape(pin), url.QueryEscape(userID))
	if err := c.call(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) AskQuestion(ctx context.Context, pin string, req AskQuestionRequest) (*AskQuestionResponse, error) {
	var resp AskQuestionResponse
	endpoint := fmt.Sprintf("/lobby/%s/question", url.PathEscape(pin))
	if err := c.call(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteLobby(ctx context.Context, pin, userID string) error {
	endpoint := fmt.Sprintf("/lobby/%s?user_id=%s", url.PathEscape(pin), url.QueryEscape(userID))
	return c.call(ctx, http.MethodDelete, endpoint, nil, nil)
}
