package zoho

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const (
	defaultAPIBaseURL  = "https://www.zohoapis.com/books/v3"
	defaultAccountsURL = "https://accounts.zoho.com"

	requestTimeout = 15 * time.Second
	pageSize       = 200

	maxRetries = 4
	baseDelay  = 500 * time.Millisecond
)

// HTTPError captures an unexpected status code and response body from Zoho.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("zoho: unexpected status code %d, body: %s", e.StatusCode, string(e.Body))
}

// Config carries the OAuth credentials and endpoints for a Client.
type Config struct {
	ClientID       string
	ClientSecret   string
	RefreshToken   string
	OrganizationID string
	// APIBaseURL and AccountsURL default to the public Zoho endpoints;
	// tests point them at a local server.
	APIBaseURL  string
	AccountsURL string
}

// TokenStatus reports the state of the OAuth access token for diagnostics.
type TokenStatus struct {
	HasToken    bool      `json:"hasToken"`
	Valid       bool      `json:"valid"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"`
	ExpiresIn   int64     `json:"expiresInSeconds"`
	LastRefresh time.Time `json:"lastRefresh,omitempty"`
}

// Client talks to the Zoho Books API. Access tokens are minted from the
// configured refresh token and renewed automatically when they expire.
type Client struct {
	baseURL    string
	orgID      string
	httpClient *http.Client
	tokens     oauth2.TokenSource

	mu          sync.Mutex
	current     *oauth2.Token
	lastRefresh time.Time

	// sleep is swapped out in tests so retries don't wait for real backoff.
	sleep func(time.Duration)
}

// NewClient constructs a Client for the given credentials.
func NewClient(cfg Config) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.AccountsURL == "" {
		cfg.AccountsURL = defaultAccountsURL
	}

	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AccountsURL + "/oauth/v2/auth",
			TokenURL: cfg.AccountsURL + "/oauth/v2/token",
		},
	}
	ts := oc.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})

	return &Client{
		baseURL:    cfg.APIBaseURL,
		orgID:      cfg.OrganizationID,
		httpClient: &http.Client{Timeout: requestTimeout},
		tokens:     oauth2.ReuseTokenSource(nil, ts),
		sleep:      time.Sleep,
	}
}

// Projects fetches all projects, following Zoho's pagination.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var all []Project
	for page := 1; ; page++ {
		var resp projectsPage
		if err := c.getJSON(ctx, "/projects", page, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Projects...)
		if !resp.PageContext.HasMorePage {
			return all, nil
		}
	}
}

// Invoices fetches all invoices, following Zoho's pagination.
func (c *Client) Invoices(ctx context.Context) ([]Invoice, error) {
	var all []Invoice
	for page := 1; ; page++ {
		var resp invoicesPage
		if err := c.getJSON(ctx, "/invoices", page, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Invoices...)
		if !resp.PageContext.HasMorePage {
			return all, nil
		}
	}
}

// TokenStatus reports whether an access token is held and how long it remains
// valid, for the dashboard's diagnostics endpoint.
func (c *Client) TokenStatus() TokenStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := TokenStatus{LastRefresh: c.lastRefresh}
	if c.current == nil {
		return st
	}
	st.HasToken = true
	st.Valid = c.current.Valid()
	st.ExpiresAt = c.current.Expiry
	if remaining := time.Until(c.current.Expiry); remaining > 0 {
		st.ExpiresIn = int64(remaining.Seconds())
	}
	return st
}

// token returns a valid access token, refreshing through the token source as
// needed, and records refreshes for TokenStatus.
func (c *Client) token() (*oauth2.Token, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("zoho: token refresh failed: %w", err)
	}
	c.mu.Lock()
	if c.current == nil || c.current.AccessToken != tok.AccessToken {
		c.current = tok
		c.lastRefresh = time.Now()
	}
	c.mu.Unlock()
	return tok, nil
}

// getJSON performs an authenticated GET with bounded exponential backoff on
// retryable statuses (429 and 5xx).
func (c *Client) getJSON(ctx context.Context, path string, page int, out any) error {
	delay := baseDelay
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			c.sleep(delay)
			delay *= 2
		}

		body, err := c.doGet(ctx, path, page)
		if err != nil {
			var httpErr *HTTPError
			if errors.As(err, &httpErr) && retryable(httpErr.StatusCode) {
				lastErr = err
				continue
			}
			return err
		}
		return json.Unmarshal(body, out)
	}
	return lastErr
}

func (c *Client) doGet(ctx context.Context, path string, page int) ([]byte, error) {
	tok, err := c.token()
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("organization_id", c.orgID)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+tok.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
