package supabase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to the hosted auth (GoTrue) and storage REST APIs of one project.
// It never retries: every failure surfaces to the caller once.
type Client struct {
	http           *resty.Client
	baseURL        string
	anonKey        string
	serviceRoleKey string
}

type Options struct {
	BaseURL        string
	AnonKey        string
	ServiceRoleKey string
	Timeout        time.Duration
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	base := strings.TrimSuffix(opts.BaseURL, "/")
	hc := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("apikey", opts.AnonKey)

	return &Client{
		http:           hc,
		baseURL:        base,
		anonKey:        opts.AnonKey,
		serviceRoleKey: opts.ServiceRoleKey,
	}
}

// APIError carries the hosted backend's status and message for non-2xx responses.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("supabase api error: status=%d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("supabase api error: status=%d code=%s %s", e.Status, e.Code, e.Message)
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// errorBody covers the auth and storage error shapes; they differ per service and version.
type errorBody struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
}

func (b errorBody) code() string {
	if b.ErrorCode != "" {
		return b.ErrorCode
	}
	return b.Error
}

func (b errorBody) message() string {
	for _, s := range []string{b.Msg, b.ErrorDescription, b.Message} {
		if s != "" {
			return s
		}
	}
	return b.Error
}

func (c *Client) admin() *resty.Request {
	return c.http.R().
		SetHeader("apikey", c.serviceRoleKey).
		SetAuthToken(c.serviceRoleKey)
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		if m := body.message(); m != "" {
			apiErr.Message = m
		}
		apiErr.Code = body.code()
	}
	return apiErr
}
