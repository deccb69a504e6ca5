package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/binrc/roma-client-go/internal/apierrors"
	"github.com/binrc/roma-client-go/internal/credentials"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

type recordingNavigator struct {
	mu        sync.Mutex
	location  string
	redirects []string
}

func (n *recordingNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *recordingNavigator) Redirect(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects = append(n.redirects, path)
	n.location = path
}

// newTestClient returns a client whose retry waits are recorded instead of
// slept.
func newTestClient(t *testing.T, cfg Config) (*Client, *[]time.Duration) {
	t.Helper()
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	var delays []time.Duration
	client.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	return client, &delays
}

func jsonResponse(r *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    r,
	}
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	if err == nil {
		t.Error("expected error for empty base URL")
	}
}

func TestNewClient_DefaultValues(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://example.com/api/v1/"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if client.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", client.timeout, DefaultTimeout)
	}
	if client.retry.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("MaxAttempts = %d, want %d", client.retry.MaxAttempts, DefaultMaxAttempts)
	}
	if client.retry.BaseDelay != DefaultRetryDelay {
		t.Errorf("BaseDelay = %v, want %v", client.retry.BaseDelay, DefaultRetryDelay)
	}
	if client.Store() == nil {
		t.Error("store is nil")
	}
	if client.HTTPClient() == nil {
		t.Error("httpClient is nil")
	}
	if client.userAgent != DefaultUserAgent {
		t.Errorf("userAgent = %q, want %q", client.userAgent, DefaultUserAgent)
	}
}

func TestNewClient_CustomValues(t *testing.T) {
	httpClient := &http.Client{}
	store := credentials.NewMemoryStore(credentials.Credentials{Token: "t"})

	client, err := NewClient(Config{
		BaseURL:     "https://custom.example.com/",
		Store:       store,
		HTTPClient:  httpClient,
		Timeout:     5 * time.Second,
		MaxAttempts: 5,
		RetryDelay:  2 * time.Second,
		UserAgent:   "roma-cli/1.0",
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if client.HTTPClient() != httpClient {
		t.Error("httpClient not set correctly")
	}
	if client.Store() != store {
		t.Error("store not set correctly")
	}
	if client.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", client.timeout)
	}
	if client.retry.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", client.retry.MaxAttempts)
	}
	if client.retry.BaseDelay != 2*time.Second {
		t.Errorf("BaseDelay = %v, want 2s", client.retry.BaseDelay)
	}
	if client.BaseURL() != "https://custom.example.com/" {
		t.Errorf("BaseURL() = %s", client.BaseURL())
	}
}

func TestClient_SetHTTPClient(t *testing.T) {
	client, _ := NewClient(Config{BaseURL: "https://example.com"})

	newHTTPClient := &http.Client{Timeout: 120 * time.Second}
	client.SetHTTPClient(newHTTPClient)

	if client.HTTPClient() != newHTTPClient {
		t.Error("SetHTTPClient() did not update the client")
	}
}

func TestClient_Do_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users/me" {
			t.Errorf("path = %s, want /api/v1/users/me", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want Bearer tok", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("X-Request-ID is empty")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":200,"msg":"success","data":{"username":"admin"}}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, Config{
		BaseURL: server.URL + "/api/v1",
		Store:   credentials.NewMemoryStore(credentials.Credentials{Token: "tok"}),
	})

	var result struct {
		Username string `json:"username"`
	}
	err := client.Do(context.Background(), Request{Method: "GET", Path: "/users/me"}, &result)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if result.Username != "admin" {
		t.Errorf("Username = %q, want admin", result.Username)
	}
}

func TestClient_Send_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, _ := newTestClient(t, Config{BaseURL: server.URL})

	data, err := client.Send(context.Background(), Request{Method: "DELETE", Path: "users/1"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if data != nil {
		t.Errorf("data = %s, want nil", data)
	}
}

func TestClient_Do_NullDataLeavesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":0,"msg":"ok","data":null}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, Config{BaseURL: server.URL})

	result := map[string]string{"keep": "me"}
	if err := client.Do(context.Background(), Request{Path: "x"}, &result); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if result["keep"] != "me" {
		t.Error("result was modified for null data")
	}
}

func TestClient_Send_NetworkErrorThenSuccess(t *testing.T) {
	var attempts int32
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return nil, errors.New("connection refused")
		}
		return jsonResponse(r, http.StatusOK, `{"code":200,"data":{"x":1}}`), nil
	})

	client, delays := newTestClient(t, Config{
		BaseURL:    "http://roma.invalid/api/v1/",
		HTTPClient: &http.Client{Transport: transport},
	})

	data, err := client.Send(context.Background(), Request{Path: "system/info"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if string(data) != `{"x":1}` {
		t.Errorf("data = %s, want {\"x\":1}", data)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("delays = %v, want %v", *delays, want)
	}
	for i := range want {
		if (*delays)[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, (*delays)[i], want[i])
		}
	}
}

func TestClient_Send_AlwaysTimesOut(t *testing.T) {
	var attempts int32
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&attempts, 1)
		<-r.Context().Done()
		return nil, r.Context().Err()
	})

	client, delays := newTestClient(t, Config{
		BaseURL:    "http://roma.invalid/",
		HTTPClient: &http.Client{Transport: transport},
		Timeout:    10 * time.Millisecond,
	})

	_, err := client.Send(context.Background(), Request{Path: "users"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, apierrors.ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	var apiErr *apierrors.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *apierrors.Error, got %T", err)
	}
	if apiErr.Message != apierrors.MsgTimeout {
		t.Errorf("Message = %q, want %q", apiErr.Message, apierrors.MsgTimeout)
	}
	if apiErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", apiErr.Attempts)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("transport attempts = %d, want 3", got)
	}
	if len(*delays) != 2 {
		t.Errorf("delays = %v, want 2 waits", *delays)
	}
}

// stallingBody sends a partial envelope and then blocks until ctx ends.
type stallingBody struct {
	ctx  context.Context
	sent bool
}

func (b *stallingBody) Read(p []byte) (int, error) {
	if !b.sent {
		b.sent = true
		return copy(p, `{"code":200,"data":`), nil
	}
	<-b.ctx.Done()
	return 0, b.ctx.Err()
}

func (b *stallingBody) Close() error { return nil }

func TestClient_Send_BodyStallsPastTimeout(t *testing.T) {
	var attempts int32
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&attempts, 1)
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       &stallingBody{ctx: r.Context()},
			Request:    r,
		}, nil
	})

	client, delays := newTestClient(t, Config{
		BaseURL:    "http://roma.invalid/",
		HTTPClient: &http.Client{Transport: transport},
		Timeout:    10 * time.Millisecond,
	})

	_, err := client.Send(context.Background(), Request{Path: "users"})
	if !errors.Is(err, apierrors.ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("transport attempts = %d, want 3", got)
	}
	if len(*delays) != 2 {
		t.Errorf("delays = %v, want 2 waits", *delays)
	}
}

func TestClient_Send_ResponseTooLarge(t *testing.T) {
	var attempts int32
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&attempts, 1)
		body := `{"code":200,"data":"` + strings.Repeat("a", maxBodyBytes) + `"}`
		return jsonResponse(r, http.StatusOK, body), nil
	})

	client, _ := newTestClient(t, Config{
		BaseURL:    "http://roma.invalid/",
		HTTPClient: &http.Client{Transport: transport},
	})

	_, err := client.Send(context.Background(), Request{Path: "users"})
	if !errors.Is(err, apierrors.ErrReadBody) {
		t.Fatalf("error = %v, want ErrReadBody", err)
	}
	var apiErr *apierrors.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *apierrors.Error, got %T", err)
	}
	if apiErr.Message != apierrors.MsgTooLarge {
		t.Errorf("Message = %q, want %q", apiErr.Message, apierrors.MsgTooLarge)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("transport attempts = %d, want 1", got)
	}
}

func TestClient_Send_NetworkExhausted(t *testing.T) {
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("no route to host")
	})

	client, _ := newTestClient(t, Config{
		BaseURL:    "http://roma.invalid/",
		HTTPClient: &http.Client{Transport: transport},
	})

	_, err := client.Send(context.Background(), Request{Path: "users"})
	if !errors.Is(err, apierrors.ErrNetworkUnreachable) {
		t.Fatalf("error = %v, want ErrNetworkUnreachable", err)
	}
	var apiErr *apierrors.Error
	errors.As(err, &apiErr)
	if apiErr.Message != apierrors.MsgNetwork {
		t.Errorf("Message = %q, want %q", apiErr.Message, apierrors.MsgNetwork)
	}
	if apiErr.Code != 0 {
		t.Errorf("Code = %d, want 0", apiErr.Code)
	}
}

func TestClient_Send_NoRetryWhenResponseReceived(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		target      error
	}{
		{"server error", 500, "application/json", `{"code":500,"msg":"boom"}`, apierrors.ErrHTTP},
		{"bad gateway html", 502, "text/html", "<html><body>Bad Gateway</body></html>", apierrors.ErrServerReturnedHTML},
		{"application error", 200, "application/json", `{"code":1001,"msg":"exists"}`, apierrors.ErrApplication},
		{"broken json", 200, "application/json", `{"code":`, apierrors.ErrMalformedJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&attempts, 1)
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, delays := newTestClient(t, Config{BaseURL: server.URL})

			_, err := client.Send(context.Background(), Request{Path: "users"})
			if !errors.Is(err, tt.target) {
				t.Fatalf("error = %v, want %v", err, tt.target)
			}
			if got := atomic.LoadInt32(&attempts); got != 1 {
				t.Errorf("attempts = %d, want 1", got)
			}
			if len(*delays) != 0 {
				t.Errorf("delays = %v, want none", *delays)
			}
		})
	}
}

func TestClient_Send_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":401,"msg":"token expired"}`))
	}))
	defer server.Close()

	store := credentials.NewMemoryStore(credentials.Credentials{
		Token:    "tok",
		APIKey:   "key",
		Username: "admin",
		Email:    "admin@example.com",
	})
	nav := &recordingNavigator{location: "/dashboard"}
	client, _ := newTestClient(t, Config{BaseURL: server.URL, Store: store, Navigator: nav})

	_, err := client.Send(context.Background(), Request{Path: "users"})
	if !errors.Is(err, apierrors.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	var apiErr *apierrors.Error
	errors.As(err, &apiErr)
	if apiErr.Message != apierrors.MsgUnauthorized {
		t.Errorf("Message = %q, want %q", apiErr.Message, apierrors.MsgUnauthorized)
	}
	if apiErr.Code != 401 {
		t.Errorf("Code = %d, want 401", apiErr.Code)
	}

	creds, _ := store.Get()
	if creds != (credentials.Credentials{}) {
		t.Errorf("credentials not cleared: %+v", creds)
	}
	if len(nav.redirects) != 1 || nav.redirects[0] != LoginPath {
		t.Errorf("redirects = %v, want [%s]", nav.redirects, LoginPath)
	}
}

func TestClient_Send_UnauthorizedOnLoginView(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	nav := &recordingNavigator{location: LoginPath}
	client, _ := newTestClient(t, Config{BaseURL: server.URL, Navigator: nav})

	_, err := client.Send(context.Background(), Request{Method: "POST", Path: "auth/login", Public: true})
	if !errors.Is(err, apierrors.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	if len(nav.redirects) != 0 {
		t.Errorf("redirects = %v, want none", nav.redirects)
	}
}

func TestClient_Send_ContextCanceled(t *testing.T) {
	var attempts int32
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&attempts, 1)
		<-r.Context().Done()
		return nil, r.Context().Err()
	})

	client, _ := newTestClient(t, Config{
		BaseURL:    "http://roma.invalid/",
		HTTPClient: &http.Client{Transport: transport},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Send(ctx, Request{Path: "users"})
	if !errors.Is(err, apierrors.ErrCanceled) {
		t.Fatalf("error = %v, want ErrCanceled", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("error should wrap context.Canceled")
	}
	if got := atomic.LoadInt32(&attempts); got > 1 {
		t.Errorf("attempts = %d, want at most 1", got)
	}
}

func TestClient_Send_FollowsPermanentRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old/users", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new/users", http.StatusPermanentRedirect)
	})
	mux.HandleFunc("/new/users", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body after redirect: %v", err)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":200,"data":{"name":` + mustJSON(t, body["name"]) + `}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, _ := newTestClient(t, Config{BaseURL: server.URL + "/old"})

	var result struct{ Name string }
	err := client.Do(context.Background(), Request{
		Method: "POST",
		Path:   "users",
		Params: map[string]any{"name": "ops"},
	}, &result)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if result.Name != "ops" {
		t.Errorf("Name = %q, want ops", result.Name)
	}
}

func TestClient_Send_ReadsStoreEveryRequest(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization")+"|"+r.Header.Get("apikey"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := credentials.NewMemoryStore(credentials.Credentials{APIKey: "key-1"})
	client, _ := newTestClient(t, Config{BaseURL: server.URL, Store: store})

	client.Send(context.Background(), Request{Method: "POST", Path: "a"})
	store.Set(credentials.Credentials{Token: "tok-2"})
	client.Send(context.Background(), Request{Method: "POST", Path: "a"})

	want := []string{"|key-1", "Bearer tok-2|"}
	if len(seen) != 2 || seen[0] != want[0] || seen[1] != want[1] {
		t.Errorf("seen = %v, want %v", seen, want)
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}
