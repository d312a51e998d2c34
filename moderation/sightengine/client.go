// Package sightengine implements text and image moderation against the
// Sightengine API.
package sightengine

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/moderation"
)

const (
	defaultBaseURL = "https://api.sightengine.com"
	textPath       = "/1.0/text/check.json"
	imagePath      = "/1.0/check.json"

	textMode       = "standard"
	textLanguages  = "es,en"
	textCategories = "profanity,personal,link"
	imageModels    = "nudity-2.0,wad,offensive,gore,text-content"

	statusFailure = "failure"
)

type Client struct {
	APIUser   string
	APISecret string
	BaseURL   string

	log        *zap.Logger
	httpClient *http.Client
}

func NewClient(log *zap.Logger, apiUser, apiSecret string, baseURL ...string) *Client {
	u := defaultBaseURL
	if len(baseURL) > 0 && baseURL[0] != "" {
		u = baseURL[0]
	}
	return &Client{
		APIUser:    apiUser,
		APISecret:  apiSecret,
		BaseURL:    u,
		log:        log,
		httpClient: &http.Client{},
	}
}

type match struct {
	Type  string `json:"type"`
	Match string `json:"match"`
}

type textResponse struct {
	Status    string    `json:"status"`
	Error     *apiError `json:"error"`
	Profanity struct {
		Matches []match `json:"matches"`
	} `json:"profanity"`
	Personal struct {
		Matches []match `json:"matches"`
	} `json:"personal"`
}

// ClassifyText flags text with any profanity match. Personal information is
// reported in the logs but does not flag.
func (c *Client) ClassifyText(ctx context.Context, text string) (*moderation.Result, error) {
	params := url.Values{}
	params.Set("text", text)
	params.Set("mode", textMode)
	params.Set("lang", textLanguages)
	params.Set("categories", textCategories)

	var resp textResponse
	if err := c.get(ctx, textPath, params, &resp); err != nil {
		return nil, err
	}
	if resp.Status == statusFailure {
		return nil, errors.Errorf("text check failed: %s", errorMessage(resp.Error))
	}

	if len(resp.Personal.Matches) > 0 {
		c.log.Warn("Personal information detected in text", zap.Int("matches", len(resp.Personal.Matches)))
	}

	if len(resp.Profanity.Matches) > 0 {
		return &moderation.Result{Flagged: true, Reason: resp.Profanity.Matches[0].Type}, nil
	}
	return &moderation.Result{Flagged: false}, nil
}

// ClassifyImage runs the image categories in order and reports the first
// that exceeds its threshold.
func (c *Client) ClassifyImage(ctx context.Context, imageURL string) (*moderation.Result, error) {
	params := url.Values{}
	params.Set("url", imageURL)
	params.Set("models", imageModels)

	var resp ImageResponse
	if err := c.get(ctx, imagePath, params, &resp); err != nil {
		return nil, err
	}
	if resp.Status == statusFailure {
		return nil, errors.Errorf("image check failed: %s", errorMessage(resp.Error))
	}

	return Evaluate(&resp)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	params.Set("api_user", c.APIUser)
	params.Set("api_secret", c.APISecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "error creating request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "error sending request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "error reading response body")
	}

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(err, "error unmarshalling response")
	}
	return nil
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func errorMessage(e *apiError) string {
	if e == nil {
		return "unknown error"
	}
	return e.Message
}
