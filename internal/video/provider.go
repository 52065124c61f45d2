// Package video abstracts the conferencing vendors behind a single provider
// interface so sessions never know which vendor hosts the call.
package video

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrRoomNotFound = errors.New("video: room not found")

// Room is a provider-side meeting room tied to one session.
type Room struct {
	ID       string
	Name     string
	URL      string
	Provider string
}

// JoinGrant is what a participant needs to enter a room. Token may be empty
// for providers whose rooms are joined by URL alone.
type JoinGrant struct {
	Token string
	URL   string
}

// Participant identifies who is joining and with what privileges.
type Participant struct {
	UserID string
	Name   string
	Host   bool
}

// Provider creates rooms and mints join grants.
type Provider interface {
	Name() string
	CreateRoom(ctx context.Context, sessionID string) (*Room, error)
	JoinToken(ctx context.Context, room *Room, p Participant) (*JoinGrant, error)
}

// ProviderConfig selects and configures a vendor.
type ProviderConfig struct {
	Provider        string
	DyteAPIKey      string
	DyteOrgID       string
	DyteBaseURL     string
	DailyAPIKey     string
	DailyBaseURL    string
	DailyDomain     string
	JitsiAppID      string
	JitsiAppSecret  string
	JitsiDomain     string
	JoinTokenExpiry time.Duration
}

// NewProvider builds the configured vendor client.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	expiry := cfg.JoinTokenExpiry
	if expiry <= 0 {
		expiry = 2 * time.Hour
	}
	switch cfg.Provider {
	case "dyte":
		return newDyteProvider(dyteConfig{
			APIKey:  cfg.DyteAPIKey,
			OrgID:   cfg.DyteOrgID,
			BaseURL: cfg.DyteBaseURL,
		})
	case "daily":
		return newDailyProvider(dailyConfig{
			APIKey:      cfg.DailyAPIKey,
			BaseURL:     cfg.DailyBaseURL,
			Domain:      cfg.DailyDomain,
			TokenExpiry: expiry,
		})
	case "jitsi":
		return newJitsiProvider(jitsiConfig{
			AppID:       cfg.JitsiAppID,
			AppSecret:   cfg.JitsiAppSecret,
			Domain:      cfg.JitsiDomain,
			TokenExpiry: expiry,
		})
	default:
		return nil, fmt.Errorf("video: unknown provider %q", cfg.Provider)
	}
}
