package core

import "maps"

// Request is a fully assembled HTTP call. RawQuery and Body are transmitted
// byte-for-byte, which is what keeps them equal to the signed canonical message.
type Request struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	RawQuery    string            `json:"-"`
	Body        string            `json:"-"`
	Headers     map[string]string `json:"-"`
	RequireAuth bool              `json:"require_auth"`
}

func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Headers: make(map[string]string),
	}
}

func (r *Request) SetRawQuery(query string) *Request {
	r.RawQuery = query
	return r
}

func (r *Request) SetBody(body string) *Request {
	r.Body = body
	return r
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

func (r *Request) SetHeaders(headers map[string]string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	maps.Copy(r.Headers, headers)
	return r
}

func (r *Request) SetRequireAuth(require bool) *Request {
	r.RequireAuth = require
	return r
}

// URI returns the path with the raw query appended, as sent on the wire.
func (r *Request) URI() string {
	if r.RawQuery == "" {
		return r.Path
	}
	return r.Path + "?" + r.RawQuery
}
