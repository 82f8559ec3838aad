// Package bring implements the shopping-list service over the Bring! REST API.
package bring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Superguppi/openclaw-bring-integration/internal/ratelimit"
	"github.com/Superguppi/openclaw-bring-integration/service"
)

const (
	// DefaultBaseURL is the Bring! REST API base URL
	DefaultBaseURL = "https://api.getbring.com/rest"
	// DefaultAPIKey is the public key the Bring! web client identifies with
	DefaultAPIKey = "cof4Nc6D8saplXjE3h3HXqHH8m7PT3xB"
	// DefaultCountry is sent as X-BRING-COUNTRY when none is configured
	DefaultCountry = "DE"

	clientSource = "webApp"
)

// Item operations understood by the list mutation endpoint
const (
	opPurchase = "TO_PURCHASE"
	opRecently = "TO_RECENTLY"
	opRemove   = "REMOVE"
)

// Config holds Bring! connection settings
type Config struct {
	Email    string
	Password string
	BaseURL  string // Override for testing
	Country  string // X-BRING-COUNTRY header, defaults to DefaultCountry
	APIKey   string // Override for the public web client key
}

// ConfigFromEnv creates a Config from environment variables
func ConfigFromEnv() Config {
	return Config{
		Email:    os.Getenv("BRING_EMAIL"),
		Password: os.Getenv("BRING_PASSWORD"),
	}
}

// Client implements service.ListService against the Bring! API.
// Credentials are checked at login, not construction; a client holds one
// authenticated session until Close.
type Client struct {
	config     Config
	client     *http.Client
	baseURL    string
	country    string
	apiKey     string
	instanceID string

	// Session state populated by Login. The renew-once flow can run from
	// concurrent requests, so loginMu serializes logins and mu guards the
	// token fields they replace.
	loginMu     sync.Mutex
	mu          sync.Mutex
	userUUID    string
	accessToken string
}

// New creates a new Bring! client. Both email and password are required;
// missing credentials fail fast before any network use.
func New(cfg Config) (*Client, error) {
	if cfg.Email == "" || cfg.Password == "" {
		return nil, fmt.Errorf("%w: set BRING_EMAIL and BRING_PASSWORD", service.ErrMissingCredentials)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	country := cfg.Country
	if country == "" {
		country = DefaultCountry
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = DefaultAPIKey
	}

	return &Client{
		config:     cfg,
		client:     createHTTPClient(),
		baseURL:    baseURL,
		country:    country,
		apiKey:     apiKey,
		instanceID: uuid.New().String(),
	}, nil
}

// createHTTPClient creates an HTTP client with proper configuration.
// 429 responses are retried with exponential backoff behind the transport,
// so the request code never sees them.
func createHTTPClient() *http.Client {
	// Three retries back off for at most 7s, fitting inside the client
	// timeout
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: ratelimit.NewTransport(nil, ratelimit.Config{
			Service:      "bring",
			MaxRetries:   3,
			EnableJitter: true,
		}),
	}
}

// Close releases the connection held by the client
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	c.mu.Lock()
	c.accessToken = ""
	c.userUUID = ""
	c.mu.Unlock()
	c.client.CloseIdleConnections()
	return nil
}

// Email returns the account the client was configured for
func (c *Client) Email() string {
	return c.config.Email
}

// Login authenticates with the Bring! API and stores the session token.
// Bad credentials fail immediately and are never retried.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{}
	form.Set("email", c.config.Email)
	form.Set("password", c.config.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/bringauth", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.setClientHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: check email and password", service.ErrAuthenticationFailed)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed: status %d", resp.StatusCode)
	}

	var auth struct {
		UUID        string `json:"uuid"`
		Name        string `json:"name"`
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return err
	}

	c.mu.Lock()
	c.userUUID = auth.UUID
	c.accessToken = auth.AccessToken
	c.mu.Unlock()

	return nil
}

// session returns the access token and user UUID of the current login
func (c *Client) session() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.userUUID
}

// ensureSession logs in on first use. Concurrent callers share one login.
func (c *Client) ensureSession(ctx context.Context) error {
	return c.renewSession(ctx, "")
}

// renewSession replaces the session whose token is stale. When another
// goroutine has already renewed it, the fresh token is kept and no second
// login goes out.
func (c *Client) renewSession(ctx context.Context, stale string) error {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()

	if token, _ := c.session(); token != stale {
		return nil
	}
	return c.Login(ctx)
}

// setClientHeaders sets the headers every Bring! request carries
func (c *Client) setClientHeaders(req *http.Request) {
	req.Header.Set("X-BRING-API-KEY", c.apiKey)
	req.Header.Set("X-BRING-CLIENT", clientSource)
	req.Header.Set("X-BRING-CLIENT-SOURCE", clientSource)
	req.Header.Set("X-BRING-CLIENT-INSTANCE-ID", c.instanceID)
	req.Header.Set("X-BRING-COUNTRY", c.country)
}

// doRequest performs an authenticated Bring! API request. The session is
// established on first use; an expired session is renewed once and the
// request retried, other failures propagate unchanged.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}

	token, userUUID := c.session()
	resp, err := c.send(ctx, method, path, token, userUUID, body)
	if err != nil {
		return nil, err
	}

	// Handle session expiry - renew once and retry
	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()

		if err := c.renewSession(ctx, token); err != nil {
			return nil, fmt.Errorf("session renewal failed: %w", err)
		}

		token, userUUID = c.session()
		resp, err = c.send(ctx, method, path, token, userUUID, body)
		if err != nil {
			return nil, err
		}
	}

	return resp, nil
}

// send builds and executes a single authenticated request
func (c *Client) send(ctx context.Context, method, path, token, userUUID string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-BRING-USER-UUID", userUUID)
	c.setClientHeaders(req)

	return c.client.Do(req)
}

// FetchCatalog returns all shopping lists of the account
func (c *Client) FetchCatalog(ctx context.Context) ([]service.ListSummary, error) {
	// The path contains the user UUID, which only exists after login
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}
	_, userUUID := c.session()

	resp, err := c.doRequest(ctx, http.MethodGet, "/bringusers/"+userUUID+"/lists", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get lists: status %d", resp.StatusCode)
	}

	var response struct {
		Lists []struct {
			ListUUID string `json:"listUuid"`
			Name     string `json:"name"`
			Theme    string `json:"theme"`
		} `json:"lists"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, err
	}

	lists := make([]service.ListSummary, len(response.Lists))
	for i, l := range response.Lists {
		lists[i] = service.ListSummary{
			ID:    l.ListUUID,
			Name:  l.Name,
			Theme: l.Theme,
		}
	}

	return lists, nil
}

// FetchItems returns the current contents of a list
func (c *Client) FetchItems(ctx context.Context, listID string) (*service.ListContents, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v2/bringlists/"+listID, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get list items: status %d", resp.StatusCode)
	}

	var response struct {
		Purchase []struct {
			Name          string `json:"name"`
			Specification string `json:"specification"`
		} `json:"purchase"`
		Recently []struct {
			Name          string `json:"name"`
			Specification string `json:"specification"`
		} `json:"recently"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, err
	}

	contents := &service.ListContents{
		ToBuy:             make([]service.Item, len(response.Purchase)),
		RecentlyCompleted: make([]service.Item, len(response.Recently)),
	}
	for i, it := range response.Purchase {
		contents.ToBuy[i] = service.Item{Name: it.Name, Specification: it.Specification}
	}
	for i, it := range response.Recently {
		contents.RecentlyCompleted[i] = service.Item{Name: it.Name, Specification: it.Specification}
	}

	return contents, nil
}

// itemChange is one entry of a list mutation request
type itemChange struct {
	ItemID    string `json:"itemId"`
	Spec      string `json:"spec,omitempty"`
	Operation string `json:"operation"`
}

// putChanges applies item changes to a list. All mutations go through the
// same endpoint; the vendor reports no partial success.
func (c *Client) putChanges(ctx context.Context, listID string, changes []itemChange) error {
	// The client identifies itself through the instance-id header; the
	// vendor expects an empty sender in the payload
	body := struct {
		Changes []itemChange `json:"changes"`
		Sender  string       `json:"sender"`
	}{
		Changes: changes,
		Sender:  "",
	}

	resp, err := c.doRequest(ctx, http.MethodPut, "/v2/bringlists/"+listID+"/items", body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("failed to update list: status %d", resp.StatusCode)
	}

	return nil
}

// AddItem puts an item on the to-buy section of a list
func (c *Client) AddItem(ctx context.Context, listID, name, specification string) error {
	return c.putChanges(ctx, listID, []itemChange{
		{ItemID: name, Spec: specification, Operation: opPurchase},
	})
}

// CompleteItem moves an item to the recently-completed section
func (c *Client) CompleteItem(ctx context.Context, listID, name string) error {
	return c.putChanges(ctx, listID, []itemChange{
		{ItemID: name, Operation: opRecently},
	})
}

// RemoveItem removes an item from a list entirely
func (c *Client) RemoveItem(ctx context.Context, listID, name string) error {
	return c.putChanges(ctx, listID, []itemChange{
		{ItemID: name, Operation: opRemove},
	})
}

// BatchAddItems adds several items with a single request
func (c *Client) BatchAddItems(ctx context.Context, listID string, items []service.ItemInput) error {
	if len(items) == 0 {
		return nil
	}

	changes := make([]itemChange, len(items))
	for i, item := range items {
		changes[i] = itemChange{ItemID: item.Name, Spec: item.Specification, Operation: opPurchase}
	}

	return c.putChanges(ctx, listID, changes)
}

// Verify interface compliance at compile time
var _ service.ListService = (*Client)(nil)
