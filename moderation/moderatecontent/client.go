// Package moderatecontent rates text with the ModerateContent API.
package moderatecontent

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/edel-social/edel-server/moderation"
)

const (
	defaultBaseURL = "https://moderatecontent.com"
	ratingPath     = "/api/v1"

	ratingSafe = "safe"
)

type Client struct {
	APIKey  string
	BaseURL string

	httpClient *http.Client
}

func NewClient(apiKey string, baseURL ...string) *Client {
	u := defaultBaseURL
	if len(baseURL) > 0 && baseURL[0] != "" {
		u = baseURL[0]
	}
	return &Client{APIKey: apiKey, BaseURL: u, httpClient: &http.Client{}}
}

type ratingResponse struct {
	Rating *string `json:"rating"`
}

// ClassifyText flags text whose rating is anything other than "safe". A
// response without a rating counts as safe.
func (c *Client) ClassifyText(ctx context.Context, text string) (*moderation.Result, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, errors.Wrap(err, "error marshalling request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+ratingPath, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "error creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-KEY", c.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "error sending request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "error reading response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var rating ratingResponse
	if err := json.Unmarshal(body, &rating); err != nil {
		return nil, errors.Wrap(err, "error unmarshalling response")
	}

	if rating.Rating == nil || *rating.Rating == ratingSafe {
		return &moderation.Result{Flagged: false}, nil
	}
	return &moderation.Result{Flagged: true, Reason: *rating.Rating}, nil
}
