package core

import (
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
)

// Response is an exchange reply passed through without transformation.
type Response struct {
	// StatusCode is the HTTP status code returned by the server.
	StatusCode int `json:"status_code"`

	// Body contains the raw response body bytes.
	Body []byte `json:"-"`

	// Headers contains the response headers as key-value pairs.
	Headers map[string]string `json:"-"`
}

// IsSuccess returns true if the response status code indicates success (2xx).
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the response status code indicates an error (4xx or 5xx).
func (r *Response) IsError() bool {
	return r.StatusCode >= http.StatusBadRequest
}

// Unmarshal parses the response body into the provided value using sonic.
func (r *Response) Unmarshal(v any) error {
	return sonic.Unmarshal(r.Body, v)
}

// JSON decodes the body into a generic map.
func (r *Response) JSON() (map[string]any, error) {
	var out map[string]any
	if err := r.Unmarshal(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// Data returns the raw JSON of a top-level field, e.g. "data" or "result".
func (r *Response) Data(key string) ([]byte, error) {
	node, err := sonic.Get(r.Body, key)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", key, err)
	}
	raw, err := node.Raw()
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", key, err)
	}
	return []byte(raw), nil
}

// String returns the body as text.
func (r *Response) String() string {
	return string(r.Body)
}
