package instagram

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"iganalytics/pkg/config"
	errs "iganalytics/pkg/errors"
	"iganalytics/pkg/logger"
)

// Session wraps a Client with optional authentication state. Anonymous
// sessions can read public profiles; follower enumeration requires login.
type Session struct {
	client        *Client
	username      string
	sessionFile   string
	authenticated bool
	logger        logger.Logger
}

// sessionSnapshot is the on-disk representation of a logged-in session
type sessionSnapshot struct {
	Username string    `json:"username"`
	SavedAt  time.Time `json:"saved_at"`
	Cookies  []cookie  `json:"cookies"`
}

type cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// loginResponse is the shape of the web login endpoint response
type loginResponse struct {
	Authenticated bool   `json:"authenticated"`
	User          bool   `json:"user"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

// NewSession builds a session from configuration. When credentials are
// configured it tries, in order: reuse of the saved session snapshot,
// then a fresh login. Either failing degrades to an anonymous session
// rather than an error; public scraping still works without auth.
func NewSession(cfg *config.Config, log logger.Logger) *Session {
	if log == nil {
		log = logger.GetLogger()
	}

	client := NewClient(cfg.Scraper.RequestTimeout, log)
	if cfg.Instagram.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Instagram.UserAgent)
	}

	s := &Session{
		client:      client,
		username:    cfg.Instagram.Username,
		sessionFile: cfg.SessionFilePath(),
		logger:      log,
	}

	if cfg.Instagram.Username == "" {
		log.Info("no login account configured, using anonymous session")
		return s
	}

	if s.loadSnapshot() {
		log.WithField("username", cfg.Instagram.Username).Info("reusing saved session")
		s.authenticated = true
		return s
	}

	if cfg.Instagram.Password == "" {
		log.Warn("login account set but no password and no saved session, using anonymous session")
		return s
	}

	if err := s.login(cfg.Instagram.Username, cfg.Instagram.Password); err != nil {
		log.WithError(err).Warn("login failed, using anonymous session")
		return s
	}

	s.authenticated = true
	s.saveSnapshot()
	log.WithField("username", cfg.Instagram.Username).Info("logged in, session saved")
	return s
}

// Client returns the underlying HTTP client
func (s *Session) Client() *Client {
	return s.client
}

// Authenticated reports whether the session performed a successful login
func (s *Session) Authenticated() bool {
	return s.authenticated
}

// Username returns the login account username, or empty when anonymous
func (s *Session) Username() string {
	if !s.authenticated {
		return ""
	}
	return s.username
}

// login performs the Instagram web login handshake: a GET to pick up the
// CSRF cookie, then the login POST with the browser password envelope.
func (s *Session) login(username, password string) error {
	resp, err := s.client.Get(s.client.baseURL + "/")
	if err != nil {
		return fmt.Errorf("csrf preflight failed: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	csrf := s.cookieValue("csrftoken")
	if csrf == "" {
		return errs.New(errs.ErrorTypeAuth, "no csrf token in preflight response")
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("enc_password", fmt.Sprintf("#PWD_INSTAGRAM_BROWSER:0:%d:%s", time.Now().Unix(), password))

	req, err := http.NewRequest(http.MethodPost, s.client.rebase(LoginURL()), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRFToken", csrf)

	resp, err = s.client.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeNetwork, "failed to read login response", err)
	}

	if err := s.client.checkResponseStatus(resp, body); err != nil {
		return err
	}

	var login loginResponse
	if err := json.Unmarshal(body, &login); err != nil {
		return errs.Wrap(errs.ErrorTypeParsing, "failed to parse login response", err)
	}

	if !login.Authenticated {
		msg := login.Message
		if msg == "" {
			msg = "invalid credentials"
		}
		return errs.New(errs.ErrorTypeAuth, msg)
	}

	return nil
}

// cookieValue returns the value of a cookie held in the client's jar
func (s *Session) cookieValue(name string) string {
	u, err := url.Parse(s.client.baseURL)
	if err != nil {
		return ""
	}
	for _, c := range s.client.httpClient.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// saveSnapshot persists the session cookies so later runs can skip login
func (s *Session) saveSnapshot() {
	if s.sessionFile == "" {
		return
	}

	u, err := url.Parse(s.client.baseURL)
	if err != nil {
		return
	}

	snap := sessionSnapshot{
		Username: s.username,
		SavedAt:  time.Now(),
	}
	for _, c := range s.client.httpClient.Jar.Cookies(u) {
		snap.Cookies = append(snap.Cookies, cookie{Name: c.Name, Value: c.Value})
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(s.sessionFile, data, 0600); err != nil {
		s.logger.WithError(err).Warn("could not save session snapshot")
	}
}

// loadSnapshot restores cookies from a previously saved session file
func (s *Session) loadSnapshot() bool {
	if s.sessionFile == "" {
		return false
	}

	data, err := os.ReadFile(s.sessionFile)
	if err != nil {
		return false
	}

	var snap sessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil || snap.Username != s.username {
		return false
	}

	u, err := url.Parse(s.client.baseURL)
	if err != nil {
		return false
	}

	cookies := make([]*http.Cookie, 0, len(snap.Cookies))
	hasSession := false
	for _, c := range snap.Cookies {
		if c.Name == "sessionid" && c.Value != "" {
			hasSession = true
		}
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	if !hasSession {
		return false
	}

	s.client.httpClient.Jar.SetCookies(u, cookies)
	return true
}
