package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"car-listing/internal/auth/domain/model"
	"car-listing/internal/client/session"
	"car-listing/internal/shared/logger"
)

// DefaultCookieName matches the server's default auth cookie.
const DefaultCookieName = "token"

const maxResponseBytes = 16 << 20

// ErrNetwork is returned when the server could not be reached at all.
var ErrNetwork = errors.New("network error, please check your connection")

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

func newStatusError(status int, message string) *StatusError {
	if message == "" {
		message = defaultMessage(status)
	}
	return &StatusError{Status: status, Message: message}
}

func defaultMessage(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return "Invalid request"
	case status == http.StatusUnauthorized:
		return "Please login to continue"
	case status == http.StatusForbidden:
		return "You are not authorized to perform this action"
	case status == http.StatusNotFound:
		return "Not found"
	case status == http.StatusRequestEntityTooLarge:
		return "Upload is too large"
	case status == http.StatusTooManyRequests:
		return "Too many requests, please try again later"
	case status >= 500:
		return "Server error, please try again later"
	default:
		return fmt.Sprintf("Request failed with status %d", status)
	}
}

// envelope is the part of every response the client inspects before the
// caller's own decoding.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
}

// Client talks to the car-listing HTTP API on behalf of a Session.
type Client struct {
	baseURL    string
	http       *http.Client
	session    *session.Session
	cookieName string
	log        logger.Logger
}

// NewClient creates a client for baseURL, the API root including its prefix.
func NewClient(baseURL string, timeout time.Duration, sess *session.Session, log logger.Logger) *Client {
	if log == nil {
		log = logger.Default()
	}
	if sess == nil {
		sess = session.New(nil)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: timeout},
		session:    sess,
		cookieName: DefaultCookieName,
		log:        log.WithComponent("api-client"),
	}
}

// Session returns the session the client reads its token from.
func (c *Client) Session() *session.Session {
	return c.session
}

// authorize attaches the current token and returns it.
func (c *Client) authorize(h http.Header) string {
	token := c.session.Token()
	if token == "" {
		return ""
	}
	h.Set("Authorization", "Bearer "+token)
	h.Add("Cookie", (&http.Cookie{Name: c.cookieName, Value: token}).String())
	return token
}

// signOut clears the session after the server rejected token. A session
// that has since moved on to another token is left alone.
func (c *Client) signOut(token string) {
	if _, err := c.session.ClearIfToken(token); err != nil {
		c.log.Warnf("failed to clear session: %v", err)
	}
}

// do sends one request and decodes the JSON answer into out. A token in
// the answer updates the session before out is filled in; a 401 signs the
// session out if it still holds the token that was sent.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	sent := c.authorize(req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Debugf("%s %s failed: %v", method, path, err)
		return ErrNetwork
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return ErrNetwork
	}

	var env envelope
	if len(data) > 0 {
		// Non-JSON bodies (proxies, panics) leave env empty.
		_ = json.Unmarshal(data, &env)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		if resp.StatusCode == http.StatusUnauthorized {
			c.signOut(sent)
		}
		return newStatusError(resp.StatusCode, env.Message)
	}

	if env.Token != "" {
		if err := c.session.Set(env.User, env.Token); err != nil {
			c.log.Warnf("failed to persist session: %v", err)
		}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	if in == nil {
		return c.do(ctx, method, path, nil, "", out)
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(payload), "application/json", out)
}
