// Package ledger is the HTTP client for the central account system that
// tracks coins, tokens, XP and sessions across platforms.
package ledger

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
	"time"

	"quizhost-service/internal/app"
	"quizhost-service/internal/domain"
)

const defaultTimeout = 10 * time.Second

// ErrUnavailable wraps transport-level failures reaching the central API.
var ErrUnavailable = errors.New("central account service unavailable")

// APIError is a non-2xx response from the central API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("central api request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// Config identifies this platform to the central API.
type Config struct {
	BaseURL      string
	AdminEmail   string
	PlatformCode string
	PlatformKey  string
	Timeout      time.Duration
}

// Client talks to the central account API. It implements the app-layer
// AccountDirectory and Ledger interfaces.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.PlatformCode == "" {
		cfg.PlatformCode = "QUIZ"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type accountRecord struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	CoinWallets *struct {
		CoinsBalance  int `json:"coins_balance"`
		TokensBalance int `json:"tokens_balance"`
	} `json:"coin_wallets"`
	XPProfiles *struct {
		XPTotal int `json:"xp_total"`
		Level   int `json:"level"`
	} `json:"xp_profiles"`
}

func (r accountRecord) toCentral() *app.CentralAccount {
	account := &app.CentralAccount{ID: r.ID, Email: r.Email, Name: r.Name, Level: 1}
	if r.CoinWallets != nil {
		account.Coins = r.CoinWallets.CoinsBalance
		account.Tokens = r.CoinWallets.TokensBalance
	}
	if r.XPProfiles != nil {
		account.XP = r.XPProfiles.XPTotal
		if r.XPProfiles.Level > 0 {
			account.Level = r.XPProfiles.Level
		}
	}
	return account
}

type accountListResponse struct {
	Data []accountRecord `json:"data"`
}

type accountCreateResponse struct {
	Data accountRecord `json:"data"`
}

// FindAccount searches the central system by email; nil means no match.
func (c *Client) FindAccount(ctx context.Context, email string) (*app.CentralAccount, error) {
	path := "/api/accounts?search=" + url.QueryEscape(email)
	var payload accountListResponse
	if err := c.doJSON(ctx, http.MethodGet, path, c.adminHeaders(), nil, &payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 {
		return nil, nil
	}
	return payload.Data[0].toCentral(), nil
}

// CreateAccount creates a central account, returning the existing one's
// id when the email is already registered.
func (c *Client) CreateAccount(ctx context.Context, email, name, password string) (string, error) {
	existing, err := c.FindAccount(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}

	body := map[string]any{
		"email":          email,
		"name":           name,
		"password":       password,
		"initialBalance": 0,
	}
	var payload accountCreateResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/accounts", c.adminHeaders(), body, &payload); err != nil {
		return "", err
	}
	return payload.Data.ID, nil
}

// RecordCompletion posts the reward delta for a finished quiz.
func (c *Client) RecordCompletion(ctx context.Context, ev domain.RewardEvent) error {
	eventType := "quiz_completed"
	if ev.Perfect {
		eventType = "perfect_score"
	}
	percentage := 0.0
	if ev.MaxScore > 0 {
		percentage = float64(ev.Score) / float64(ev.MaxScore) * 100
	}

	body := map[string]any{
		"accountId":    ev.AccountID,
		"eventType":    eventType,
		"coinsChange":  ev.Coins,
		"tokensChange": ev.Tokens,
		"xpChange":     ev.XP,
		"metadata": map[string]any{
			"quizId":         ev.QuizID,
			"attemptId":      ev.AttemptID,
			"score":          ev.Score,
			"maxScore":       ev.MaxScore,
			"correctAnswers": ev.Correct,
			"percentage":     fmt.Sprintf("%.1f", percentage),
			"isPerfect":      ev.Perfect,
			"timestamp":      ev.CreatedAt.UTC().Format(time.RFC3339),
		},
	}
	headers := map[string]string{
		"x-platform-code": c.cfg.PlatformCode,
		"x-platform-key":  c.cfg.PlatformKey,
	}
	return c.doJSON(ctx, http.MethodPost, "/api/platforms", headers, body, nil)
}

// AuthUser identifies a central session's owner.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AuthSession is an access/refresh token pair.
type AuthSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthResponse is the common envelope of the central auth endpoints.
type AuthResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	User    *AuthUser       `json:"user,omitempty"`
	Session *AuthSession    `json:"session,omitempty"`
	Account json.RawMessage `json:"account,omitempty"`
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	return c.authCall(ctx, "/api/auth/login", map[string]string{"email": email, "password": password})
}

func (c *Client) Register(ctx context.Context, email, password, name string) (AuthResponse, error) {
	return c.authCall(ctx, "/api/auth/register", map[string]string{"email": email, "password": password, "name": name})
}

func (c *Client) Me(ctx context.Context, accessToken string) (AuthResponse, error) {
	var payload AuthResponse
	headers := map[string]string{"Authorization": "Bearer " + accessToken}
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", headers, nil, &payload); err != nil {
		return AuthResponse{}, err
	}
	return payload, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (AuthResponse, error) {
	return c.authCall(ctx, "/api/auth/refresh", map[string]string{"refresh_token": refreshToken})
}

func (c *Client) authCall(ctx context.Context, path string, body any) (AuthResponse, error) {
	var payload AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, path, nil, body, &payload); err != nil {
		return AuthResponse{}, err
	}
	return payload, nil
}

func (c *Client) adminHeaders() map[string]string {
	return map[string]string{"x-admin-email": c.cfg.AdminEmail}
}

func (c *Client) doJSON(ctx context.Context, method, path string, headers map[string]string, requestBody, responseBody any) error {
	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		request.Header.Set(k, v)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: response.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
			apiErr.Message = payload.Error
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return apiErr
	}

	if responseBody == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}
