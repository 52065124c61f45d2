package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/terapiaconect/platform/internal/tokenledger"
	"github.com/terapiaconect/platform/pkg/logging"
)

const defaultBaseURL = "https://api.openai.com/v1"

// ClientConfig controls the OpenAI client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client wraps the OpenAI REST endpoints the platform uses: chat completions
// for session insights and Whisper for transcription.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a configured Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("ai: API key is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// ChatResponse is the subset of the chat completions response the platform
// reads: the first choice's text and the provider's token accounting.
type ChatResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

type chatAPIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ChatCompletion sends a chat request and returns the first choice.
func (c *Client) ChatCompletion(ctx context.Context, model string, messages []tokenledger.Message, temperature float64) (*ChatResponse, error) {
	payload, err := json.Marshal(struct {
		Model       string                `json:"model"`
		Messages    []tokenledger.Message `json:"messages"`
		Temperature float64               `json:"temperature"`
	}{Model: model, Messages: messages, Temperature: temperature})
	if err != nil {
		return nil, fmt.Errorf("ai: encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ai: build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ai: chat completion: %w", err)
	}
	defer resp.Body.Close()

	var decoded chatAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("ai: decode chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := "unknown error"
		if decoded.Error != nil {
			msg = decoded.Error.Message
		}
		return nil, fmt.Errorf("ai: chat completion returned %d: %s", resp.StatusCode, msg)
	}
	if len(decoded.Choices) == 0 {
		return nil, errors.New("ai: chat completion returned no choices")
	}
	return &ChatResponse{
		Content:      decoded.Choices[0].Message.Content,
		InputTokens:  decoded.Usage.PromptTokens,
		OutputTokens: decoded.Usage.CompletionTokens,
	}, nil
}

type transcriptionAPIResponse struct {
	Text  string    `json:"text"`
	Error *apiError `json:"error"`
}

// Transcribe uploads audio to Whisper and returns the transcript text.
// filename carries the container format hint (e.g. "session.mp4").
func (c *Client) Transcribe(ctx context.Context, model, filename string, audio io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("ai: build transcription upload: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("ai: read audio: %w", err)
	}
	if err := mw.WriteField("model", model); err != nil {
		return "", fmt.Errorf("ai: build transcription upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("ai: build transcription upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("ai: build transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: transcription: %w", err)
	}
	defer resp.Body.Close()

	var decoded transcriptionAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("ai: decode transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := "unknown error"
		if decoded.Error != nil {
			msg = decoded.Error.Message
		}
		return "", fmt.Errorf("ai: transcription returned %d: %s", resp.StatusCode, msg)
	}
	return decoded.Text, nil
}
