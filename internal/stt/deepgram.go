package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const deepgramBaseURL = "https://api.deepgram.com/v1/listen"

// DeepgramClient implements Transcriber with Deepgram's pre-recorded API.
type DeepgramClient struct {
	apiKey     string
	model      string
	baseURL    string
	punctuate  bool
	httpClient *http.Client
}

// DeepgramConfig holds configuration for the Deepgram client.
type DeepgramConfig struct {
	APIKey     string
	Model      string // e.g., "nova-2"
	BaseURL    string
	Punctuate  bool
	HTTPClient *http.Client
}

// deepgramResponse is the subset of the pre-recorded response we read.
type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func NewDeepgramClient(cfg DeepgramConfig) *DeepgramClient {
	model := cfg.Model
	if model == "" {
		model = "nova-2"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = deepgramBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &DeepgramClient{
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
		punctuate:  cfg.Punctuate,
		httpClient: httpClient,
	}
}

// Transcribe uploads one window and returns the best alternative.
func (c *DeepgramClient) Transcribe(ctx context.Context, wav []byte, language string) (string, error) {
	q := url.Values{}
	q.Set("model", c.model)
	q.Set("smart_format", "true")
	q.Set("punctuate", fmt.Sprintf("%t", c.punctuate))
	if language != "" {
		q.Set("language", language)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"?"+q.Encode(), bytes.NewReader(wav))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("deepgram API error: %s - %s", resp.Status, string(body))
	}

	var dr deepgramResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(dr.Results.Channels) == 0 || len(dr.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return strings.TrimSpace(dr.Results.Channels[0].Alternatives[0].Transcript), nil
}
