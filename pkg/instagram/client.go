package instagram

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	errs "iganalytics/pkg/errors"
	"iganalytics/pkg/logger"
	"iganalytics/pkg/ratelimit"
)

// requestsPerMinute caps request bursts at the transport level. The
// analyzer's pacer spaces posts; this bounds everything else (profile
// loads, login, follower pages) sharing the client.
const requestsPerMinute = 200

// Client is an HTTP client for the Instagram web API
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewClient creates a new Instagram API client
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	// Cookie jar keeps csrftoken/sessionid across the login handshake
	jar, _ := cookiejar.New(nil)

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		headers: map[string]string{
			"User-Agent":       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			"Accept":           "*/*",
			"Accept-Language":  "en-US,en;q=0.9",
			"X-IG-App-ID":      "936619743392459",
			"X-Requested-With": "XMLHttpRequest",
			"Referer":          "https://www.instagram.com/",
		},
		baseURL: BaseURL,
		limiter: ratelimit.NewTokenBucket(requestsPerMinute, time.Minute),
		logger:  log,
	}
}

// SetLimiter replaces the request limiter; nil disables throttling
func (c *Client) SetLimiter(l ratelimit.Limiter) {
	c.limiter = l
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		c.limiter.Wait()
	}
	for key, value := range c.headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.New(errs.ErrorTypeConnection, fmt.Sprintf("connection error: %v", err))
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// Get performs a GET request to the specified URL
func (c *Client) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, fmt.Sprintf("failed to create request: %v", err))
	}

	return c.doRequest(req)
}

// GetJSON performs a GET request and decodes the JSON response
func (c *Client) GetJSON(url string, target interface{}) error {
	resp, err := c.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewWithCode(errs.ErrorTypeNetwork, fmt.Sprintf("failed to read response body: %v", err), resp.StatusCode)
	}

	if err := c.checkResponseStatus(resp, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errs.NewWithCode(errs.ErrorTypeParsing, fmt.Sprintf("failed to parse JSON: %v", err), resp.StatusCode)
	}

	return nil
}

// checkResponseStatus maps the HTTP response status to typed errors. The
// body is inspected because Instagram reports a temporary block with a
// message inside an otherwise generic 4xx response.
func (c *Client) checkResponseStatus(resp *http.Response, body []byte) error {
	if strings.Contains(string(body), "Please wait a few minutes before you try again") {
		c.logger.WarnWithFields("temporary block detected", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.NewWithCode(errs.ErrorTypeTemporaryBlock,
			"Please wait a few minutes before you try again", resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.NewWithCode(errs.ErrorTypeAuth, "authentication required", resp.StatusCode)
	case http.StatusNotFound:
		return errs.NewWithCode(errs.ErrorTypeNotFound, "resource not found", resp.StatusCode)
	case http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.NewWithCode(errs.ErrorTypeRateLimit, "rate limit exceeded", resp.StatusCode)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return errs.NewWithCode(errs.ErrorTypeServerError, "server error", resp.StatusCode)
	default:
		if resp.StatusCode >= 400 {
			return errs.NewWithCode(errs.ErrorTypeUnknown,
				fmt.Sprintf("unexpected status code: %d", resp.StatusCode), resp.StatusCode)
		}
		return nil
	}
}

// FetchProfile fetches a user's profile record
func (c *Client) FetchProfile(username string) (*User, error) {
	url := c.rebase(ProfileURL(username))

	c.logger.DebugWithFields("fetching profile", map[string]interface{}{
		"username": username,
	})

	var response ProfileResponse
	if err := c.GetJSON(url, &response); err != nil {
		return nil, err
	}

	if response.RequiresToLogin {
		return nil, errs.NewWithCode(errs.ErrorTypeAuth,
			"Instagram requires authentication to view this profile", http.StatusUnauthorized)
	}

	if response.Data.User.ID == "" && response.Data.User.Username == "" {
		return nil, errs.New(errs.ErrorTypeNotFound, fmt.Sprintf("profile %q not found", username))
	}

	return &response.Data.User, nil
}

// FetchPostPage fetches one page of a user's media
func (c *Client) FetchPostPage(userID string, after string, limit int) (*EdgeOwnerToTimelineMedia, error) {
	url := c.rebase(MediaURL(userID, after, limit))

	c.logger.DebugWithFields("fetching media page", map[string]interface{}{
		"user_id": userID,
		"after":   after,
	})

	var response MediaResponse
	if err := c.GetJSON(url, &response); err != nil {
		return nil, err
	}

	return &response.Data.User.EdgeOwnerToTimelineMedia, nil
}

// FetchFollowers fetches one page of a user's followers
func (c *Client) FetchFollowers(userID string, maxID string) (*UserListResponse, error) {
	return c.fetchUserList(c.rebase(FollowersURL(userID, maxID)))
}

// FetchFollowing fetches one page of the accounts a user follows
func (c *Client) FetchFollowing(userID string, maxID string) (*UserListResponse, error) {
	return c.fetchUserList(c.rebase(FollowingURL(userID, maxID)))
}

func (c *Client) fetchUserList(url string) (*UserListResponse, error) {
	var response UserListResponse
	if err := c.GetJSON(url, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// rebase rewrites an endpoint URL against the client's base URL so tests
// can point the client at a mock server.
func (c *Client) rebase(url string) string {
	return strings.Replace(url, BaseURL, c.baseURL, 1)
}

// SetBaseURL overrides the API base URL (used in tests)
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}
