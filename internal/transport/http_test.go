package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sandi/pkg/core"
)

func newTestDispatcher(t *testing.T, baseURL string, opts ...Option) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(&Config{Exchange: "test", BaseURL: baseURL, Timeout: 2 * time.Second}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestNewDispatcher_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil", nil},
		{"missing_exchange", &Config{BaseURL: "https://api.example.com", Timeout: time.Second}},
		{"bad_url", &Config{Exchange: "x", BaseURL: "::", Timeout: time.Second}},
		{"zero_timeout", &Config{Exchange: "x", BaseURL: "https://api.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDispatcher(tt.cfg)
			assert.True(t, core.IsValidationError(err))
		})
	}
}

func TestDispatcher_GetPreservesRawQuery(t *testing.T) {
	var gotQuery, gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-MBX-APIKEY")
		w.Header().Set("X-Test", "yes")
		_, _ = w.Write([]byte(`{"orderId":1,"price":"0.00100000"}`))
	}))
	defer server.Close()

	d := newTestDispatcher(t, server.URL)
	req := core.NewRequest(http.MethodGet, "/api/v3/order").
		SetRawQuery("orderId=1&symbol=BTCUSDT&timestamp=1700000000000&signature=abc123").
		SetHeader("X-MBX-APIKEY", "key")

	resp, err := d.Do(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "/api/v3/order", gotPath)
	assert.Equal(t, "orderId=1&symbol=BTCUSDT&timestamp=1700000000000&signature=abc123", gotQuery)
	assert.Equal(t, "key", gotKey)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"orderId":1,"price":"0.00100000"}`, string(resp.Body))
	assert.Equal(t, "yes", resp.Headers["X-Test"])
}

func TestDispatcher_PostSendsBodyVerbatim(t *testing.T) {
	var gotBody, gotType, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		gotType = r.Header.Get("Content-Type")
		gotMethod = r.Method
		_, _ = w.Write([]byte(`{"code":"00000"}`))
	}))
	defer server.Close()

	d := newTestDispatcher(t, server.URL)
	body := `{"size":"0.001","symbol":"BTCUSDT_UMCBL"}`
	req := core.NewRequest("post", "/api/mix/v1/order/placeOrder").
		SetBody(body).
		SetHeader("Content-Type", "application/json")

	_, err := d.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, body, gotBody)
	assert.Equal(t, "application/json", gotType)
}

func TestDispatcher_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`slow down`))
	}))
	defer server.Close()

	d := newTestDispatcher(t, server.URL)
	resp, err := d.Do(context.Background(), core.NewRequest(http.MethodGet, "/x?signature=abc123"))
	require.Error(t, err)
	assert.Nil(t, resp)

	exErr, ok := core.AsExchangeError(err)
	require.True(t, ok)
	assert.Equal(t, "test", exErr.Exchange)
	assert.Equal(t, http.StatusTooManyRequests, exErr.StatusCode)
	assert.Equal(t, core.ErrorTypeRateLimit, exErr.Type)
	assert.Equal(t, core.KindExchange, exErr.Kind)
	assert.True(t, core.IsErrorCode(err, core.ErrCodeHTTPStatus))
	assert.Contains(t, exErr.Message, "slow down")

	var urlErr *url.Error
	assert.False(t, errors.As(err, &urlErr))
}

func TestDispatcher_ClassifierFindsErrorInSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"retCode":10004,"retMsg":"error sign!"}`))
	}))
	defer server.Close()

	classifier := JSONCodeClassifier(CodeRule{
		CodeField:    "retCode",
		MessageField: "retMsg",
		Success:      []string{"0"},
		Map: func(code string, _ int) core.ErrorType {
			if code == "10004" {
				return core.ErrorTypeAuthentication
			}
			return core.ErrorTypeUnknown
		},
	})
	d := newTestDispatcher(t, server.URL, WithClassifier(classifier))

	_, err := d.Do(context.Background(), core.NewRequest(http.MethodGet, "/v5/position/list"))
	require.Error(t, err)

	exErr, ok := core.AsExchangeError(err)
	require.True(t, ok)
	assert.Equal(t, "10004", exErr.Code)
	assert.Equal(t, "error sign!", exErr.Message)
	assert.Equal(t, http.StatusOK, exErr.StatusCode)
	assert.Equal(t, "test", exErr.Exchange)
	assert.True(t, core.IsAuthenticationError(err))
}

func TestDispatcher_ClassifierOnErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-2010,"msg":"Account has insufficient balance for requested action."}`))
	}))
	defer server.Close()

	classifier := JSONCodeClassifier(CodeRule{
		CodeField:    "code",
		MessageField: "msg",
		Map: func(code string, _ int) core.ErrorType {
			if code == "-2010" {
				return core.ErrorTypeInsufficientFunds
			}
			return core.ErrorTypeUnknown
		},
	})
	d := newTestDispatcher(t, server.URL, WithClassifier(classifier))

	_, err := d.Do(context.Background(), core.NewRequest(http.MethodPost, "/api/v3/order"))
	exErr, ok := core.AsExchangeError(err)
	require.True(t, ok)
	assert.Equal(t, "-2010", exErr.Code)
	assert.Equal(t, core.ErrorTypeInsufficientFunds, exErr.Type)
	assert.Equal(t, http.StatusBadRequest, exErr.StatusCode)
	assert.True(t, core.IsTerminalError(err))
	assert.False(t, exErr.OutcomeUnknown)
}

func TestDispatcher_ExactlyOneCall(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	d := newTestDispatcher(t, server.URL)
	_, err := d.Do(context.Background(), core.NewRequest(http.MethodPost, "/order"))
	require.Error(t, err)

	assert.Equal(t, int32(1), hits.Load())

	exErr, ok := core.AsExchangeError(err)
	require.True(t, ok)
	assert.Equal(t, core.ErrorTypeServerError, exErr.Type)
	assert.True(t, exErr.OutcomeUnknown)
	assert.False(t, exErr.Retryable())
}

func TestDispatcher_GatewayStatusOutcome(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		status      int
		wantKind    core.ErrorKind
		wantUnknown bool
	}{
		{"post 504", http.MethodPost, http.StatusGatewayTimeout, core.KindTransport, true},
		{"post 408", http.MethodPost, http.StatusRequestTimeout, core.KindTransport, true},
		{"post 502", http.MethodPost, http.StatusBadGateway, core.KindExchange, true},
		{"delete 503", http.MethodDelete, http.StatusServiceUnavailable, core.KindExchange, true},
		{"get 504", http.MethodGet, http.StatusGatewayTimeout, core.KindTransport, false},
		{"post 400", http.MethodPost, http.StatusBadRequest, core.KindExchange, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			d := newTestDispatcher(t, server.URL)
			_, err := d.Do(context.Background(), core.NewRequest(tt.method, "/api/v3/order"))

			exErr, ok := core.AsExchangeError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, exErr.Kind)
			assert.Equal(t, tt.wantUnknown, exErr.OutcomeUnknown)
			if tt.wantUnknown {
				assert.False(t, exErr.Retryable())
			}
		})
	}
}

func TestDispatcher_ExchangeCodeOn5xxIsNotAmbiguous(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":-1000,"msg":"unknown error"}`))
	}))
	defer server.Close()

	d := newTestDispatcher(t, server.URL, WithClassifier(JSONCodeClassifier(CodeRule{CodeField: "code", MessageField: "msg"})))
	_, err := d.Do(context.Background(), core.NewRequest(http.MethodPost, "/api/v3/order"))
	exErr, ok := core.AsExchangeError(err)
	require.True(t, ok)
	assert.Equal(t, "-1000", exErr.Code)
	assert.False(t, exErr.OutcomeUnknown)
}

func TestDispatcher_CallerCancel(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	d := newTestDispatcher(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := d.Do(ctx, core.NewRequest(http.MethodGet, "/slow"))
	exErr, ok := core.AsExchangeError(err)
	require.True(t, ok)
	assert.True(t, core.IsErrorCode(err, core.ErrCodeCanceled))
	assert.False(t, core.IsTimeoutError(err))
	assert.False(t, exErr.Retryable())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDispatcher_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	d, err := NewDispatcher(&Config{Exchange: "test", BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	defer d.Close()

	_, err = d.Do(context.Background(), core.NewRequest(http.MethodGet, "/slow"))
	require.Error(t, err)

	assert.True(t, core.IsTimeoutError(err))
	assert.True(t, core.IsTransportError(err))
	assert.False(t, core.IsOutcomeUnknown(err))
	assert.True(t, core.IsErrorCode(err, core.ErrCodeTimeout))
}

func TestDispatcher_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	d := newTestDispatcher(t, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := d.Do(ctx, core.NewRequest(http.MethodGet, "/slow"))
	assert.True(t, core.IsTimeoutError(err))
}

func TestDispatcher_TransportErrorOnPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	d := newTestDispatcher(t, baseURL)
	req := core.NewRequest(http.MethodPost, "/api/v3/order").
		SetRawQuery("symbol=BTCUSDT&signature=deadbeefcafe")

	_, err := d.Do(context.Background(), req)
	require.Error(t, err)

	exErr, ok := core.AsExchangeError(err)
	require.True(t, ok)
	assert.Equal(t, core.KindTransport, exErr.Kind)
	assert.Equal(t, core.ErrorTypeNetwork, exErr.Type)
	assert.True(t, exErr.OutcomeUnknown)
	assert.False(t, exErr.Retryable())
	assert.NotNil(t, errors.Unwrap(err))
	assert.NotContains(t, err.Error(), "deadbeefcafe")
	assert.Contains(t, err.Error(), "POST /api/v3/order")

	var urlErr *url.Error
	assert.False(t, errors.As(err, &urlErr))
}

func TestDispatcher_TransportErrorOnGetIsNotAmbiguous(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	d := newTestDispatcher(t, baseURL)
	_, err := d.Do(context.Background(), core.NewRequest(http.MethodGet, "/api/v3/order"))

	assert.True(t, core.IsTransportError(err))
	assert.False(t, core.IsOutcomeUnknown(err))
}

func TestDispatcher_LogsNeverContainSecrets(t *testing.T) {
	const signature = "5f0c1e2d3b4a5968778695a4b3c2d1e0"
	const secretBody = `{"apiSecretEcho":"sk_live_never_log_me"}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"40009","msg":"sign signature error"}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.TraceLevel)
	d := newTestDispatcher(t, server.URL, WithLogger(logger))

	req := core.NewRequest(http.MethodPost, "/api/spot/v1/trade/orders").
		SetRawQuery("signature="+signature).
		SetBody(secretBody).
		SetHeader("ACCESS-SIGN", signature)

	_, err := d.Do(context.Background(), req)
	require.Error(t, err)
	assert.True(t, core.IsAuthenticationError(err))

	out := buf.String()
	assert.Contains(t, out, "http response")
	assert.Contains(t, out, "/api/spot/v1/trade/orders")
	assert.NotContains(t, out, signature)
	assert.NotContains(t, out, "sk_live_never_log_me")
	assert.NotContains(t, err.Error(), signature)
}

func TestDispatcher_UnsupportedMethod(t *testing.T) {
	d := newTestDispatcher(t, "https://api.example.com")
	_, err := d.Do(context.Background(), core.NewRequest("PATCH", "/x"))
	assert.True(t, core.IsValidationError(err))
}

func TestDispatcher_Closed(t *testing.T) {
	d := newTestDispatcher(t, "https://api.example.com")
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	_, err := d.Do(context.Background(), core.NewRequest(http.MethodGet, "/x"))
	assert.ErrorIs(t, err, core.ErrClientClosed)
	assert.True(t, core.IsErrorCode(err, core.ErrCodeClientClosed))
}
