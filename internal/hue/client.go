// internal/hue/client.go
package hue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/spatialhue/lightcontrol/internal/cache"
	"github.com/spatialhue/lightcontrol/internal/config"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

var (
	ErrNotFound             = errors.New("target not found")
	ErrInvalidResponse      = errors.New("invalid bridge response")
	ErrLinkButtonNotPressed = errors.New("link button not pressed")
	ErrNoUsername           = errors.New("no bridge username")
)

// errLinkButton is the bridge error type for an unpressed link button.
const errLinkButton = 101

// APIError is an error entry returned by the bridge inside a 200 response.
type APIError struct {
	Type        int    `json:"type"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bridge error %d at %q: %s", e.Type, e.Address, e.Description)
}

// Light is a light as listed by the bridge.
type Light struct {
	ID   string `json:"-"`
	Name string `json:"name"`
}

// Group is a light group as listed by the bridge.
type Group struct {
	ID     string   `json:"-"`
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Lights []string `json:"lights"`
}

// Inventory is every light and group known to the bridge, keyed by id.
type Inventory struct {
	Lights map[string]Light
	Groups map[string]Group
}

// Client handles communication with a Hue bridge.
type Client struct {
	baseURL    string
	deviceType string
	httpClient *http.Client
	names      *cache.NameCache

	mu       sync.RWMutex
	username string
}

// New creates a new bridge client. A nil cache gets a fresh one.
func New(cfg config.HueConfig, names *cache.NameCache) *Client {
	if names == nil {
		names = cache.NewNameCache()
	}
	base := strings.TrimRight(cfg.BridgeAddress, "/")
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL:    base,
		deviceType: cfg.DeviceType,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		names:      names,
		username:   cfg.Username,
	}
}

// Username returns the registered bridge user.
func (c *Client) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

// SetUsername replaces the bridge user.
func (c *Client) SetUsername(u string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = u
}

// Names exposes the resolved name cache.
func (c *Client) Names() *cache.NameCache {
	return c.names
}

// Refresh fetches the full bridge state and repopulates the name cache.
func (c *Client) Refresh(ctx context.Context) (Inventory, error) {
	var root struct {
		Lights map[string]Light `json:"lights"`
		Groups map[string]Group `json:"groups"`
	}
	if err := c.userRequest(ctx, http.MethodGet, "", nil, &root); err != nil {
		return Inventory{}, fmt.Errorf("refresh: %w", err)
	}

	inv := Inventory{
		Lights: make(map[string]Light, len(root.Lights)),
		Groups: make(map[string]Group, len(root.Groups)),
	}
	lightNames := make(map[string]string, len(root.Lights))
	for id, l := range root.Lights {
		l.ID = id
		inv.Lights[id] = l
		lightNames[id] = l.Name
	}
	groupNames := make(map[string]string, len(root.Groups))
	for id, g := range root.Groups {
		g.ID = id
		inv.Groups[id] = g
		groupNames[id] = g.Name
	}
	c.names.SetLights(lightNames)
	c.names.SetGroups(groupNames)
	return inv, nil
}

// ControlLight sends a state update to the named light.
func (c *Client) ControlLight(ctx context.Context, name string, state core.LightState) error {
	id, err := c.resolve(ctx, name, c.names.LightID)
	if err != nil {
		return fmt.Errorf("light %q: %w", name, err)
	}
	return c.userRequest(ctx, http.MethodPut, "/lights/"+id+"/state", state, nil)
}

// ControlGroup sends an action to every light in the named group.
func (c *Client) ControlGroup(ctx context.Context, name string, state core.LightState) error {
	id, err := c.resolve(ctx, name, c.names.GroupID)
	if err != nil {
		return fmt.Errorf("group %q: %w", name, err)
	}
	return c.userRequest(ctx, http.MethodPut, "/groups/"+id+"/action", state, nil)
}

// LightStatus returns the current state of the named light.
func (c *Client) LightStatus(ctx context.Context, name string) (core.LightStatus, error) {
	id, err := c.resolve(ctx, name, c.names.LightID)
	if err != nil {
		return core.LightStatus{}, fmt.Errorf("light %q: %w", name, err)
	}
	var body struct {
		State core.LightStatus `json:"state"`
	}
	if err := c.userRequest(ctx, http.MethodGet, "/lights/"+id, nil, &body); err != nil {
		return core.LightStatus{}, err
	}
	return body.State, nil
}

// GroupStatus returns the last action applied to the named group.
func (c *Client) GroupStatus(ctx context.Context, name string) (core.LightStatus, error) {
	id, err := c.resolve(ctx, name, c.names.GroupID)
	if err != nil {
		return core.LightStatus{}, fmt.Errorf("group %q: %w", name, err)
	}
	var body struct {
		Action core.LightStatus `json:"action"`
	}
	if err := c.userRequest(ctx, http.MethodGet, "/groups/"+id, nil, &body); err != nil {
		return core.LightStatus{}, err
	}
	return body.Action, nil
}

// Register creates a new bridge user. The bridge's link button must have been
// pressed shortly before. On success the client adopts the new username.
func (c *Client) Register(ctx context.Context) (string, error) {
	var results []struct {
		Success *struct {
			Username string `json:"username"`
		} `json:"success"`
		Error *APIError `json:"error"`
	}
	body := map[string]string{"devicetype": c.deviceType}
	data, err := c.send(ctx, http.MethodPost, c.baseURL+"/api", body)
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	if err := json.Unmarshal(data, &results); err != nil {
		return "", fmt.Errorf("register: %w: %v", ErrInvalidResponse, err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("register: %w", ErrInvalidResponse)
	}

	first := results[0]
	switch {
	case first.Success != nil && first.Success.Username != "":
		c.SetUsername(first.Success.Username)
		return first.Success.Username, nil
	case first.Error != nil && first.Error.Type == errLinkButton:
		return "", ErrLinkButtonNotPressed
	case first.Error != nil:
		return "", fmt.Errorf("register: %w", first.Error)
	}
	return "", fmt.Errorf("register: %w", ErrInvalidResponse)
}

// resolve looks a name up, refreshing the cache once on a miss.
func (c *Client) resolve(ctx context.Context, name string, lookup func(string) (string, bool)) (string, error) {
	if id, ok := lookup(name); ok {
		return id, nil
	}
	if _, err := c.Refresh(ctx); err != nil {
		return "", err
	}
	if id, ok := lookup(name); ok {
		return id, nil
	}
	return "", ErrNotFound
}

func (c *Client) userRequest(ctx context.Context, method, path string, body, out any) error {
	user := c.Username()
	if user == "" {
		return ErrNoUsername
	}
	return c.do(ctx, method, c.baseURL+"/api/"+user+path, body, out)
}

// do performs a request and decodes the response into out. A JSON array
// response carrying an error entry is returned as *APIError.
func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	data, err := c.send(ctx, method, url, body)
	if err != nil {
		return err
	}
	if apiErr := firstAPIError(data); apiErr != nil {
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, url string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", method, resp.StatusCode)
	}
	return data, nil
}

func firstAPIError(data []byte) *APIError {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}
	var entries []struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil
	}
	for _, e := range entries {
		if e.Error != nil {
			return e.Error
		}
	}
	return nil
}
