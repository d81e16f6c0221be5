package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/wastewatch/internal/common"
)

type Client interface {
	Signup(ctx context.Context, name, email string, password []byte) error
	Signin(ctx context.Context, email string, password []byte) (*Session, error)
	Dashboard(ctx context.Context, token string) (*Dashboard, error)
	Ping(ctx context.Context) error
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is what a successful sign-in yields. The token lives only in
// client memory; logging out simply forgets it.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Dashboard struct {
	Message string `json:"message"`
	User    struct {
		User
		Joined time.Time `json:"joined"`
	} `json:"user"`
}

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Signup(ctx context.Context, name, email string, password []byte) error {
	body := map[string]string{"name": name, "email": email, "password": string(password)}
	return c.do(ctx, http.MethodPost, "/signup", "", body, nil)
}

func (c *HTTPClient) Signin(ctx context.Context, email string, password []byte) (*Session, error) {
	body := map[string]string{"email": email, "password": string(password)}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/signin", "", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) Dashboard(ctx context.Context, token string) (*Dashboard, error) {
	var d Dashboard
	if err := c.do(ctx, http.MethodGet, "/dashboard", token, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Message string            `json:"message"`
			Errors  map[string]string `json:"errors"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil {
			apiErr.Message = payload.Message
			apiErr.Fields = payload.Errors
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: %v", ErrUnavailable, apiErr)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ Client = (*HTTPClient)(nil)
