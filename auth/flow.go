package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Browser-auth endpoint paths on the chat backend.
const (
	startPath     = "/auth/browser/start"
	statusPath    = "/auth/browser/status"
	consumePath   = "/auth/browser/consume"
	getUserIDPath = "/get-user-id"
)

// ErrMissingConsumeCredentials reports a consume call without resolvable
// credentials in either the request or the environment.
var ErrMissingConsumeCredentials = errors.New(
	"missing auth_session_id/poll_token: provide in request body or set XO_AUTH_SESSION_ID and XO_POLL_TOKEN")

// ErrNotAuthenticated reports an operation that needs a stored token.
var ErrNotAuthenticated = errors.New("no stored access token; complete the auth flow first")

// UpstreamError carries a non-200 response from the auth backend.
type UpstreamError struct {
	Body   string
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("auth backend returned status %d: %s", e.Status, e.Body)
}

// Flow drives the browser auth flow and stores resulting tokens in State.
type Flow struct {
	State   *State
	httpc   *http.Client
	baseURL string
}

// NewFlow creates a flow client against the chat backend.
func NewFlow(baseURL string, state *State) *Flow {
	return &Flow{
		baseURL: strings.TrimRight(baseURL, "/"),
		State:   state,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// ResolveConsumeCredentials applies the body-first, env-fallback strategy
// for consume credentials.
func ResolveConsumeCredentials(authSessionID, pollToken string) (string, string, error) {
	id := strings.TrimSpace(authSessionID)
	if id == "" {
		id = strings.TrimSpace(os.Getenv("XO_AUTH_SESSION_ID"))
	}
	token := strings.TrimSpace(pollToken)
	if token == "" {
		token = strings.TrimSpace(os.Getenv("XO_POLL_TOKEN"))
	}
	if id == "" || token == "" {
		return "", "", ErrMissingConsumeCredentials
	}
	return id, token, nil
}

// Start begins a browser auth flow. The backend's response (authorize URL,
// auth session id, poll token) is passed through untouched.
func (f *Flow) Start(ctx context.Context, scopes, clientReference string) (map[string]any, error) {
	payload := map[string]string{}
	if scopes != "" {
		payload["scopes"] = scopes
	}
	if clientReference != "" {
		payload["client_reference"] = clientReference
	}
	return f.postJSON(ctx, f.baseURL+startPath, payload, nil)
}

// Status polls the auth flow state.
func (f *Flow) Status(ctx context.Context, authSessionID, pollToken string) (map[string]any, error) {
	url := fmt.Sprintf("%s%s/%s?poll_token=%s", f.baseURL, statusPath, authSessionID, pollToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return f.do(req)
}

// Consume completes the flow and stores the returned token in State.
func (f *Flow) Consume(ctx context.Context, authSessionID, pollToken string) (map[string]any, error) {
	payload := map[string]string{
		"auth_session_id": authSessionID,
		"poll_token":      pollToken,
	}
	result, err := f.postJSON(ctx, f.baseURL+consumePath, payload, nil)
	if err != nil {
		return nil, err
	}

	accessToken, _ := result["access_token"].(string)
	if accessToken == "" {
		return nil, errors.New("no access token in consume response")
	}

	refreshToken, _ := result["refresh_token"].(string)
	expiresIn := 0
	if v, ok := result["expires_in"].(float64); ok {
		expiresIn = int(v)
	}
	userID, _ := result["user_id"].(string)
	flowSessionID, _ := result["auth_session_id"].(string)

	f.State.SetToken(accessToken, refreshToken, expiresIn, userID, flowSessionID)

	return map[string]any{
		"success":    true,
		"message":    "authentication completed and token stored",
		"user_id":    result["user_id"],
		"expires_in": result["expires_in"],
		"scope":      result["scope"],
	}, nil
}

// WhoAmI validates the stored token against the backend and records the
// returned user id.
func (f *Flow) WhoAmI(ctx context.Context) (string, error) {
	token := f.State.Token()
	if token == "" {
		return "", ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+getUserIDPath, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	result, err := f.do(req)
	if err != nil {
		return "", err
	}

	userID, _ := result["user_id"].(string)
	f.State.SetUserID(userID)
	return userID, nil
}

func (f *Flow) postJSON(ctx context.Context, url string, payload any, headers map[string]string) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return f.do(req)
}

func (f *Flow) do(req *http.Request) (map[string]any, error) {
	resp, err := f.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}
