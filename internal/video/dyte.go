package video

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type dyteConfig struct {
	APIKey     string
	OrgID      string
	BaseURL    string
	HTTPClient *http.Client
}

// dyteProvider drives the Dyte REST API. Dyte calls rooms "meetings" and
// join credentials come from adding a participant to a meeting.
type dyteProvider struct {
	orgID      string
	authHeader string
	baseURL    string
	httpClient *http.Client
}

func newDyteProvider(cfg dyteConfig) (*dyteProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("video: dyte API key is required")
	}
	if strings.TrimSpace(cfg.OrgID) == "" {
		return nil, errors.New("video: dyte org id is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.dyte.io/v2"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	creds := base64.StdEncoding.EncodeToString([]byte(cfg.OrgID + ":" + cfg.APIKey))
	return &dyteProvider{
		orgID:      cfg.OrgID,
		authHeader: "Basic " + creds,
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

func (p *dyteProvider) Name() string { return "dyte" }

func (p *dyteProvider) CreateRoom(ctx context.Context, sessionID string) (*Room, error) {
	payload, err := json.Marshal(map[string]any{
		"title": "session-" + sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("video: encode dyte meeting: %w", err)
	}
	var decoded struct {
		Data struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"data"`
	}
	if err := p.do(ctx, http.MethodPost, "/meetings", payload, &decoded); err != nil {
		return nil, err
	}
	return &Room{
		ID:       decoded.Data.ID,
		Name:     decoded.Data.Title,
		Provider: p.Name(),
	}, nil
}

func (p *dyteProvider) JoinToken(ctx context.Context, room *Room, participant Participant) (*JoinGrant, error) {
	preset := "group_call_participant"
	if participant.Host {
		preset = "group_call_host"
	}
	payload, err := json.Marshal(map[string]any{
		"name":               participant.Name,
		"custom_participant_id": participant.UserID,
		"preset_name":        preset,
	})
	if err != nil {
		return nil, fmt.Errorf("video: encode dyte participant: %w", err)
	}
	var decoded struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/meetings/%s/participants", room.ID)
	if err := p.do(ctx, http.MethodPost, path, payload, &decoded); err != nil {
		return nil, err
	}
	return &JoinGrant{Token: decoded.Data.Token}, nil
}

func (p *dyteProvider) do(ctx context.Context, method, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("video: build dyte request: %w", err)
	}
	req.Header.Set("Authorization", p.authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("video: dyte %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrRoomNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("video: dyte %s %s returned %d: %s", method, path, resp.StatusCode, apiErr.Error.Message)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("video: decode dyte response: %w", err)
	}
	return nil
}
