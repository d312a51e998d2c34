package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/edel-social/edel-server/moderation"
)

const (
	defaultBaseURL = "https://api.openai.com"
	moderationPath = "/v1/moderations"
	model          = "omni-moderation-latest"
)

type Client struct {
	APIKey  string
	BaseURL string

	httpClient *http.Client
}

func NewClient(apiKey string, baseURL ...string) *Client {
	url := defaultBaseURL
	if len(baseURL) > 0 && baseURL[0] != "" {
		url = baseURL[0]
	}
	return &Client{APIKey: apiKey, BaseURL: url, httpClient: &http.Client{}}
}

func (c *Client) ClassifyText(ctx context.Context, text string) (*moderation.Result, error) {
	input := map[string]any{
		"model": model,
		"input": []map[string]string{{"type": "text", "text": text}},
	}
	return c.sendRequest(ctx, input)
}

func (c *Client) sendRequest(ctx context.Context, input map[string]any) (*moderation.Result, error) {
	jsonData, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+moderationPath, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("non-200 status code: %d, response: %s", resp.StatusCode, string(bodyBytes))
	}

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var openaiResponse struct {
		Results []struct {
			Flagged    bool            `json:"flagged"`
			Categories map[string]bool `json:"categories"`
		} `json:"results"`
	}
	if err := json.Unmarshal(responseBody, &openaiResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(openaiResponse.Results) == 0 {
		return nil, fmt.Errorf("no results in response")
	}

	first := openaiResponse.Results[0]
	result := &moderation.Result{
		Flagged: first.Flagged,
	}
	if first.Flagged {
		result.Reason = firstCategory(first.Categories)
	}

	return result, nil
}

// categoryOrder is the order categories are reported in, most severe first.
var categoryOrder = []string{
	"sexual/minors",
	"self-harm/instructions",
	"violence/graphic",
	"harassment/threatening",
	"hate/threatening",
	"illicit/violent",
	"self-harm/intent",
	"self-harm",
	"violence",
	"sexual",
	"hate",
	"harassment",
	"illicit",
}

func firstCategory(categories map[string]bool) string {
	for _, c := range categoryOrder {
		if categories[c] {
			return c
		}
	}
	return ""
}
