package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"insight-stack/internal/models"
	"insight-stack/shared/errs"
)

const (
	searchEndpoint   = "/search/"
	commentsEndpoint = "/video/comments/"

	rapidAPIService   = "YouTube138 RapidAPI"
	defaultRetryAfter = 60 * time.Second
)

// RapidAPISource talks to the YouTube138 API on RapidAPI.
type RapidAPISource struct {
	baseURL string
	apiKey  string
	host    string
	client  *http.Client
}

func NewRapidAPISource(baseURL, apiKey, host string, httpClient *http.Client) *RapidAPISource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &RapidAPISource{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		host:    host,
		client:  httpClient,
	}
}

func (s *RapidAPISource) Search(ctx context.Context, query, lang, region, cursor string) (*models.SearchPage, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", lang)
	params.Set("gl", region)
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var page models.SearchPage
	if err := s.get(ctx, searchEndpoint, params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *RapidAPISource) Comments(ctx context.Context, videoID, lang, region, cursor string) (*models.CommentPage, error) {
	params := url.Values{}
	params.Set("id", videoID)
	params.Set("hl", lang)
	params.Set("gl", region)
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var page models.CommentPage
	if err := s.get(ctx, commentsEndpoint, params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *RapidAPISource) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	reqURL := s.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errs.Collection(endpoint, 0, "failed to create request", err)
	}
	req.Header.Set("x-rapidapi-key", s.apiKey)
	req.Header.Set("x-rapidapi-host", s.host)

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return errs.Collection(endpoint, 0, "request timed out", err)
		}
		return errs.Collection(endpoint, 0, "network error", err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(endpoint, resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Collection(endpoint, resp.StatusCode, "invalid response payload", err)
	}
	return nil
}

// classifyStatus maps a non-200 response onto the error taxonomy.
func classifyStatus(endpoint string, resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return errs.Auth("rapidapi", "Invalid or missing RapidAPI key")
	case http.StatusForbidden:
		return errs.Auth("rapidapi", "Access forbidden - check API key permissions")
	case http.StatusTooManyRequests:
		return errs.RateLimited(rapidAPIService, parseRetryAfter(resp.Header.Get("Retry-After")), "YouTube API rate limit exceeded")
	case http.StatusNotFound:
		return errs.Collection(endpoint, http.StatusNotFound, fmt.Sprintf("endpoint not found: %s", endpoint), nil)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return errs.Collection(endpoint, resp.StatusCode,
			fmt.Sprintf("YouTube API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
}

func parseRetryAfter(v string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return defaultRetryAfter
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
