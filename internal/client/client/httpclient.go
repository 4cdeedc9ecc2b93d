package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophevents/internal/client/models"
)

// HTTPClient talks JSON to the gophevents API and sends the access token
// from the last successful login as a Bearer header.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPClient returns a client for the API rooted at baseURL
// (e.g. "http://127.0.0.1:8080"). Each request is bounded by timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// do sends in (if not nil) as JSON and decodes a 2xx body into out (if not nil).
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func mapError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var eb errorBody
	if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil {
		apiErr.Message = eb.Message
		apiErr.Fields = eb.Errors
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Name     string `json:"name,omitempty"`
}

type codeRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code,omitempty"`
	NewPassword string `json:"new_password,omitempty"`
}

type userResponse struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type imageRequest struct {
	ContentType string `json:"content_type"`
}

func (c *HTTPClient) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", credentialsRequest{Email: email, Password: password, Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Login stores the returned token for subsequent calls.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.User, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", credentialsRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp.User, nil
}

func (c *HTTPClient) VerifyAccount(ctx context.Context, email, code string) (*models.User, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/verify-account", codeRequest{Email: email, Code: code}, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// ForgotPassword returns the server's message, which is the same whether
// or not the account exists.
func (c *HTTPClient) ForgotPassword(ctx context.Context, email string) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/forgot-password", codeRequest{Email: email}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *HTTPClient) VerifyResetCode(ctx context.Context, email, code string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/verify-reset-code", codeRequest{Email: email, Code: code}, nil)
}

func (c *HTTPClient) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/reset-password", codeRequest{Email: email, Code: code, NewPassword: newPassword}, nil)
}

func (c *HTTPClient) EditProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodPut, "/api/auth/profile", upd, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Logout forgets the token even when the server call fails.
func (c *HTTPClient) Logout(ctx context.Context) error {
	defer c.SetToken("")
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *HTTPClient) events(ctx context.Context, path string) ([]*models.Event, error) {
	var list []*models.Event
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) event(ctx context.Context, method, path string, in any) (*models.Event, error) {
	var e models.Event
	if err := c.do(ctx, method, path, in, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func eventPath(id string, suffix ...string) string {
	p := "/api/events/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func (c *HTTPClient) ListEvents(ctx context.Context) ([]*models.Event, error) {
	return c.events(ctx, "/api/events")
}

func (c *HTTPClient) UpcomingEvents(ctx context.Context) ([]*models.Event, error) {
	return c.events(ctx, "/api/events/upcoming")
}

func (c *HTTPClient) PastEvents(ctx context.Context) ([]*models.Event, error) {
	return c.events(ctx, "/api/events/past")
}

func (c *HTTPClient) SearchEvents(ctx context.Context, q models.SearchQuery) ([]*models.Event, error) {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("q", q.Text)
	set("start_date", q.StartDate)
	set("end_date", q.EndDate)
	set("location", q.Location)
	set("min_price", q.MinPrice)
	set("max_price", q.MaxPrice)
	if q.HasAvailablePlaces {
		v.Set("has_available_places", "true")
	}

	path := "/api/events/search"
	if enc := v.Encode(); enc != "" {
		path += "?" + enc
	}
	return c.events(ctx, path)
}

func (c *HTTPClient) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	return c.event(ctx, http.MethodGet, eventPath(id), nil)
}

func (c *HTTPClient) EventStatistics(ctx context.Context, id string) (*models.EventStatistics, error) {
	var st models.EventStatistics
	if err := c.do(ctx, http.MethodGet, eventPath(id, "statistics"), nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *HTTPClient) EventParticipants(ctx context.Context, id string) (*models.EventParticipants, error) {
	var p models.EventParticipants
	if err := c.do(ctx, http.MethodGet, eventPath(id, "participants"), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) CreateEvent(ctx context.Context, in models.EventInput) (*models.Event, error) {
	return c.event(ctx, http.MethodPost, "/api/events", in)
}

func (c *HTTPClient) UpdateEvent(ctx context.Context, id string, in models.EventInput) (*models.Event, error) {
	return c.event(ctx, http.MethodPut, eventPath(id), in)
}

func (c *HTTPClient) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, eventPath(id), nil, nil)
}

func (c *HTTPClient) JoinEvent(ctx context.Context, id string) (*models.Event, error) {
	return c.event(ctx, http.MethodPost, eventPath(id, "join"), nil)
}

func (c *HTTPClient) LeaveEvent(ctx context.Context, id string) (*models.Event, error) {
	return c.event(ctx, http.MethodDelete, eventPath(id, "leave"), nil)
}

func (c *HTTPClient) PresignEventImage(ctx context.Context, id, contentType string) (*models.ImageUpload, error) {
	var up models.ImageUpload
	if err := c.do(ctx, http.MethodPost, eventPath(id, "image"), imageRequest{ContentType: contentType}, &up); err != nil {
		return nil, err
	}
	return &up, nil
}
