// Package tmdb is the remote metadata provider client. The engine sees it
// as a capability: given a title substring, deliver candidate movie records
// or report a categorized failure.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cesargomez89/movielog/internal/constants"
	"github.com/cesargomez89/movielog/internal/faults"
	"github.com/cesargomez89/movielog/internal/httpclient"
	"github.com/cesargomez89/movielog/internal/logger"
)

type Client struct {
	baseURL    string
	httpClient *httpclient.Client
	log        *logger.Logger
}

// NewClient builds a provider client against baseURL. Passing nil for
// httpClient installs the default rate-limited client with the provider
// connect/read timeouts.
func NewClient(baseURL string, httpClient *httpclient.Client, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = httpclient.NewClient(nil, constants.MinRequestInterval)
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		log:        log.WithComponent("tmdb"),
	}
}

// SearchMovies returns partial-match candidates for the title fragment.
func (c *Client) SearchMovies(ctx context.Context, apiKey, query string) ([]SearchResult, error) {
	u := fmt.Sprintf("%s/search/movie?api_key=%s&query=%s",
		c.baseURL, url.QueryEscape(apiKey), url.QueryEscape(query))

	var resp SearchResponse
	if err := c.get(ctx, u, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// MovieDetails fetches the full record for a provider-supplied movie id.
func (c *Client) MovieDetails(ctx context.Context, apiKey string, id int) (*MovieDetails, error) {
	u := fmt.Sprintf("%s/movie/%d?api_key=%s", c.baseURL, id, url.QueryEscape(apiKey))

	var details MovieDetails
	if err := c.get(ctx, u, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// MovieCredits fetches cast and crew for a provider-supplied movie id.
func (c *Client) MovieCredits(ctx context.Context, apiKey string, id int) (*Credits, error) {
	u := fmt.Sprintf("%s/movie/%d/credits?api_key=%s", c.baseURL, id, url.QueryEscape(apiKey))

	var credits Credits
	if err := c.get(ctx, u, &credits); err != nil {
		return nil, err
	}
	return &credits, nil
}

// get runs one provider request and maps failures onto the closed taxonomy:
// transport errors and timeouts are ProviderUnreachable, 401 is
// InvalidAPIKey, 404 is ProviderRecordMissing, anything else non-OK is
// ProviderUnexpected.
func (c *Client) get(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return faults.New(faults.ProviderUnreachable, "provider did not respond", err.Error())
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return faults.New(faults.InvalidAPIKey, "provider rejected the API key")
	case http.StatusNotFound:
		return faults.New(faults.ProviderRecordMissing, "provider record not found", redactKey(u))
	default:
		c.log.Error("unexpected provider response", "status", resp.StatusCode, "url", redactKey(u))
		return faults.New(faults.ProviderUnexpected,
			fmt.Sprintf("provider returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return faults.Wrap(faults.ProviderUnexpected, err)
	}
	return nil
}

// redactKey masks the api_key credential in a request URL. Request URLs
// reach fault contexts and log attributes; the key must not.
func redactKey(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	q := parsed.Query()
	if q.Has("api_key") {
		q.Set("api_key", "redacted")
		parsed.RawQuery = q.Encode()
	}
	return parsed.String()
}
