package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type dailyConfig struct {
	APIKey      string
	BaseURL     string
	Domain      string
	TokenExpiry time.Duration
	HTTPClient  *http.Client
}

// dailyProvider drives the Daily.co REST API. Rooms are private; joining
// requires a meeting token minted per participant.
type dailyProvider struct {
	apiKey      string
	baseURL     string
	domain      string
	tokenExpiry time.Duration
	httpClient  *http.Client
}

func newDailyProvider(cfg dailyConfig) (*dailyProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("video: daily API key is required")
	}
	if strings.TrimSpace(cfg.Domain) == "" {
		return nil, errors.New("video: daily domain is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.daily.co/v1"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &dailyProvider{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		domain:      cfg.Domain,
		tokenExpiry: cfg.TokenExpiry,
		httpClient:  httpClient,
	}, nil
}

func (p *dailyProvider) Name() string { return "daily" }

func (p *dailyProvider) CreateRoom(ctx context.Context, sessionID string) (*Room, error) {
	payload, err := json.Marshal(map[string]any{
		"name":    "session-" + sessionID,
		"privacy": "private",
		"properties": map[string]any{
			"enable_recording": "cloud",
			"exp":              time.Now().Add(24 * time.Hour).Unix(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("video: encode daily room: %w", err)
	}
	var decoded struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	if err := p.do(ctx, http.MethodPost, "/rooms", payload, &decoded); err != nil {
		return nil, err
	}
	return &Room{
		ID:       decoded.Name,
		Name:     decoded.Name,
		URL:      decoded.URL,
		Provider: p.Name(),
	}, nil
}

func (p *dailyProvider) JoinToken(ctx context.Context, room *Room, participant Participant) (*JoinGrant, error) {
	payload, err := json.Marshal(map[string]any{
		"properties": map[string]any{
			"room_name": room.Name,
			"user_id":   participant.UserID,
			"user_name": participant.Name,
			"is_owner":  participant.Host,
			"exp":       time.Now().Add(p.tokenExpiry).Unix(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("video: encode daily token: %w", err)
	}
	var decoded struct {
		Token string `json:"token"`
	}
	if err := p.do(ctx, http.MethodPost, "/meeting-tokens", payload, &decoded); err != nil {
		return nil, err
	}
	return &JoinGrant{
		Token: decoded.Token,
		URL:   fmt.Sprintf("https://%s.daily.co/%s?t=%s", p.domain, room.Name, decoded.Token),
	}, nil
}

func (p *dailyProvider) do(ctx context.Context, method, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("video: build daily request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("video: daily %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrRoomNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Info string `json:"info"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("video: daily %s %s returned %d: %s", method, path, resp.StatusCode, apiErr.Info)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("video: decode daily response: %w", err)
	}
	return nil
}
