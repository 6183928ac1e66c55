package twitter

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

	"tweet-telegram-relay/internal/domain"
	"tweet-telegram-relay/internal/domain/model"
	"tweet-telegram-relay/internal/domain/ports/adapter"

	"github.com/tidwall/gjson"
)

const defaultBaseURL = "https://api.twitter.com"

// MaxResponseBytes caps how much of a response body is read. A timeline page
// of 100 posts with expansions is well under 1 MiB.
const MaxResponseBytes = 4 << 20

var errResponseTooLarge = errors.New("response body exceeds size limit")

// Compile-time check
var _ adapter.PostSource = (*Client)(nil)

// Client is a minimal X/Twitter API v2 client covering user lookup and user
// timelines with app-only bearer authentication.
type Client struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
}

// NewClient creates a Twitter API client. If baseURL is empty it defaults to
// https://api.twitter.com.
func NewClient(baseURL, bearerToken string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		bearerToken: bearerToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// APIError is a non-success answer from the API.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
	// RateLimitReset is when the current window resets, if the API said so.
	RateLimitReset time.Time
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Title
	}
	return fmt.Sprintf("twitter api error (status %d): %s", e.StatusCode, msg)
}

// Unwrap lets callers match the 429 case with errors.Is(err, domain.ErrRateLimited).
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests {
		return domain.ErrRateLimited
	}
	return nil
}

// LookupUser resolves a username via GET /2/users/by/username/:username.
func (c *Client) LookupUser(ctx context.Context, username string) (model.MonitoredAccount, error) {
	acc, err := model.NewMonitoredAccount(username)
	if err != nil {
		return model.MonitoredAccount{}, err
	}

	var resp userLookupResponse
	body, err := c.get(ctx, "/2/users/by/username/"+url.PathEscape(acc.Username), url.Values{"user.fields": {"id"}}, &resp)
	if err != nil {
		return model.MonitoredAccount{}, fmt.Errorf("lookup @%s: %w", acc.Username, err)
	}
	// Unknown users come back as 200 with only an errors array.
	if resp.Data == nil || resp.Data.ID == "" {
		detail := gjson.GetBytes(body, "errors.0.detail").String()
		if detail == "" {
			detail = "no user data in response"
		}
		return model.MonitoredAccount{}, fmt.Errorf("lookup @%s: %w: %s", acc.Username, domain.ErrUserNotFound, detail)
	}

	acc.AccountID = resp.Data.ID
	if resp.Data.Username != "" {
		acc.Username = resp.Data.Username
	}
	return acc, nil
}

// ListPosts reads GET /2/users/:id/tweets. Posts come back newest first.
func (c *Client) ListPosts(ctx context.Context, accountID string, params adapter.ListPostsParams) ([]model.Post, error) {
	if accountID == "" {
		return nil, domain.ErrInvalidArgument
	}
	q := url.Values{
		"tweet.fields": {"created_at,author_id"},
		"expansions":   {"author_id"},
		"user.fields":  {"username"},
	}
	if params.MaxResults > 0 {
		q.Set("max_results", strconv.Itoa(params.MaxResults))
	}
	if params.SinceID != "" {
		q.Set("since_id", params.SinceID)
	}
	if !params.StartTime.IsZero() {
		q.Set("start_time", params.StartTime.UTC().Format(time.RFC3339))
	}

	var resp timelineResponse
	if _, err := c.get(ctx, "/2/users/"+url.PathEscape(accountID)+"/tweets", q, &resp); err != nil {
		return nil, fmt.Errorf("list posts for %s: %w", accountID, err)
	}

	authors := make(map[string]string, len(resp.Includes.Users))
	for _, u := range resp.Includes.Users {
		authors[u.ID] = u.Username
	}

	posts := make([]model.Post, 0, len(resp.Data))
	for _, tw := range resp.Data {
		p := model.Post{
			ID:             tw.ID,
			Text:           tw.Text,
			AuthorUsername: authors[tw.AuthorID],
		}
		if tw.CreatedAt != "" {
			if ts, err := time.Parse(time.RFC3339, tw.CreatedAt); err == nil {
				p.CreatedAt = ts
			}
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result any) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) > MaxResponseBytes {
		return nil, fmt.Errorf("read response (status %d): %w", resp.StatusCode, errResponseTooLarge)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, newAPIError(resp, body)
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return body, fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return body, nil
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if gjson.ValidBytes(body) {
		doc := gjson.ParseBytes(body)
		apiErr.Title = doc.Get("title").String()
		apiErr.Detail = doc.Get("detail").String()
		if apiErr.Detail == "" {
			apiErr.Detail = doc.Get("errors.0.message").String()
		}
	}
	if apiErr.Title == "" && apiErr.Detail == "" {
		apiErr.Detail = strings.TrimSpace(string(body))
	}
	if reset := resp.Header.Get("x-rate-limit-reset"); reset != "" {
		if sec, err := strconv.ParseInt(reset, 10, 64); err == nil {
			apiErr.RateLimitReset = time.Unix(sec, 0).UTC()
		}
	}
	return apiErr
}

type userLookupResponse struct {
	Data *apiUser `json:"data"`
}

type apiUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type timelineResponse struct {
	Data     []apiTweet `json:"data"`
	Includes struct {
		Users []apiUser `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NewestID    string `json:"newest_id"`
		OldestID    string `json:"oldest_id"`
	} `json:"meta"`
}

type apiTweet struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	AuthorID  string `json:"author_id"`
	CreatedAt string `json:"created_at"`
}
