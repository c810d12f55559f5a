package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/outsquaremd/medidash/speech"
)

// DefaultTokenURL exchanges an account API key for a short-lived realtime
// token. The exchange happens server-side only; the account key is never
// placed in a client-visible URL.
const DefaultTokenURL = "https://api.assemblyai.com/v2/realtime/token"

// TokenClient mints short-lived realtime session tokens.
type TokenClient struct {
	apiKey string
	url    string
	http   *http.Client
}

// NewTokenClient creates a token client over the given account API key.
func NewTokenClient(apiKey, tokenURL string) *TokenClient {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	return &TokenClient{
		apiKey: apiKey,
		url:    tokenURL,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Create requests a realtime token valid for expiresIn.
func (t *TokenClient) Create(ctx context.Context, expiresIn time.Duration) (string, error) {
	payload, err := json.Marshal(map[string]int64{
		"expires_in": int64(expiresIn.Seconds()),
	})
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Authorization", t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request realtime token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var parsed struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse token response: %w", err)
	}
	if parsed.Token == "" {
		return "", fmt.Errorf("token endpoint returned no token")
	}
	return parsed.Token, nil
}

// Dialer returns a speech.DialFunc that mints a fresh realtime token for
// each recording session and connects with it.
func Dialer(tokens *TokenClient, cfg Config) speech.DialFunc {
	return func(ctx context.Context) (speech.StreamClient, error) {
		token, err := tokens.Create(ctx, time.Hour)
		if err != nil {
			return nil, err
		}
		cfg := cfg
		cfg.Token = token
		return NewClient(cfg), nil
	}
}
