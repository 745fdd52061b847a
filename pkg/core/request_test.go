package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRequest(t *testing.T) {
	req := NewRequest("GET", "/api/v3/order")

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/api/v3/order", req.Path)
	assert.NotNil(t, req.Headers)
	assert.Empty(t, req.RawQuery)
	assert.Empty(t, req.Body)
}

func TestRequest_SetRawQuery(t *testing.T) {
	req := NewRequest("GET", "/api/v3/order")
	result := req.SetRawQuery("symbol=BTCUSDT&timestamp=1")

	assert.Equal(t, req, result)
	assert.Equal(t, "symbol=BTCUSDT&timestamp=1", req.RawQuery)
}

func TestRequest_SetBody(t *testing.T) {
	req := NewRequest("POST", "/api/v3/order")
	result := req.SetBody(`{"symbol":"BTCUSDT"}`)

	assert.Equal(t, req, result)
	assert.Equal(t, `{"symbol":"BTCUSDT"}`, req.Body)
}

func TestRequest_SetHeader(t *testing.T) {
	req := &Request{}
	result := req.SetHeader("X-Custom", "value")

	assert.Equal(t, req, result)
	assert.Equal(t, "value", req.Headers["X-Custom"])
}

func TestRequest_SetHeaders(t *testing.T) {
	req := NewRequest("GET", "/")
	req.SetHeader("A", "1")
	req.SetHeaders(map[string]string{"B": "2", "A": "3"})

	assert.Equal(t, map[string]string{"A": "3", "B": "2"}, req.Headers)
}

func TestRequest_SetRequireAuth(t *testing.T) {
	req := NewRequest("GET", "/")
	assert.False(t, req.RequireAuth)

	req.SetRequireAuth(true)
	assert.True(t, req.RequireAuth)
}

func TestRequest_URI(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"no_query", "", "/api/v3/order"},
		{"with_query", "a=1&b=2", "/api/v3/order?a=1&b=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewRequest("GET", "/api/v3/order").SetRawQuery(tt.query)
			assert.Equal(t, tt.want, req.URI())
		})
	}
}

func TestParams_SetIfAndClone(t *testing.T) {
	p := Params{}
	p.SetIf("a", "").SetIf("b", nil).SetIf("c", "x").SetIf("d", false)

	assert.Equal(t, Params{"c": "x", "d": false}, p)

	clone := p.Clone()
	clone["e"] = 1
	assert.NotContains(t, p, "e")
}
