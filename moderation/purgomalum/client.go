// Package purgomalum checks text against the free PurgoMalum profanity
// filter. It requires no credentials.
package purgomalum

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/edel-social/edel-server/moderation"
)

const (
	defaultBaseURL = "https://www.purgomalum.com"
	checkPath      = "/service/containsprofanity"
)

type Client struct {
	BaseURL string

	httpClient *http.Client
}

func NewClient(baseURL ...string) *Client {
	u := defaultBaseURL
	if len(baseURL) > 0 && baseURL[0] != "" {
		u = baseURL[0]
	}
	return &Client{BaseURL: u, httpClient: &http.Client{}}
}

func (c *Client) ClassifyText(ctx context.Context, text string) (*moderation.Result, error) {
	params := url.Values{}
	params.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+checkPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "error creating request")
	}

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

	switch strings.ToLower(strings.TrimSpace(string(body))) {
	case "true":
		return &moderation.Result{Flagged: true, Reason: "profanity"}, nil
	case "false":
		return &moderation.Result{Flagged: false}, nil
	default:
		return nil, errors.Errorf("unexpected response body: %q", string(body))
	}
}
