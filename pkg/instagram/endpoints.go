package instagram

import (
	"fmt"
	"net/url"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// ProfileEndpoint is the endpoint pattern for user profiles
	ProfileEndpoint = "/api/v1/users/web_profile_info/"

	// MediaEndpoint is the endpoint pattern for paginated user media
	MediaEndpoint = "/graphql/query/"

	// LoginEndpoint is the web login endpoint
	LoginEndpoint = "/api/v1/web/accounts/login/ajax/"

	// MediaQueryHash is the query hash for fetching user media
	MediaQueryHash = "e769aa130647d2354c40ea6a439bfc08"

	// DefaultMediaLimit is the default number of media items per request
	DefaultMediaLimit = 12

	// MaxMediaLimit is the maximum number of media items per request
	MaxMediaLimit = 50

	// UserListLimit is the page size for follower/following requests
	UserListLimit = 100
)

// ProfileURL constructs the URL for fetching a user's profile
func ProfileURL(username string) string {
	params := url.Values{}
	params.Set("username", username)

	return fmt.Sprintf("%s%s?%s", BaseURL, ProfileEndpoint, params.Encode())
}

// MediaURL constructs the URL for fetching a page of a user's media
func MediaURL(userID string, after string, limit int) string {
	if limit <= 0 {
		limit = DefaultMediaLimit
	} else if limit > MaxMediaLimit {
		limit = MaxMediaLimit
	}

	params := url.Values{}
	params.Set("query_hash", MediaQueryHash)
	params.Set("variables", fmt.Sprintf(`{"id":"%s","first":%d,"after":"%s"}`, userID, limit, after))

	return fmt.Sprintf("%s%s?%s", BaseURL, MediaEndpoint, params.Encode())
}

// FollowersURL constructs the URL for a page of a user's followers
func FollowersURL(userID string, maxID string) string {
	return userListURL(userID, "followers", maxID)
}

// FollowingURL constructs the URL for a page of accounts a user follows
func FollowingURL(userID string, maxID string) string {
	return userListURL(userID, "following", maxID)
}

func userListURL(userID, kind, maxID string) string {
	params := url.Values{}
	params.Set("count", fmt.Sprintf("%d", UserListLimit))
	if maxID != "" {
		params.Set("max_id", maxID)
	}

	return fmt.Sprintf("%s/api/v1/friendships/%s/%s/?%s", BaseURL, userID, kind, params.Encode())
}

// LoginURL returns the web login endpoint
func LoginURL() string {
	return BaseURL + LoginEndpoint
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	// Usernames can only contain letters, numbers, periods, and underscores
	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}

	return true
}

// SanitizeUsername strips a leading '@' and trailing slashes or spaces
func SanitizeUsername(username string) string {
	if username == "" {
		return ""
	}

	if username[0] == '@' {
		username = username[1:]
	}

	for len(username) > 0 && (username[len(username)-1] == '/' || username[len(username)-1] == ' ') {
		username = username[:len(username)-1]
	}

	return username
}
