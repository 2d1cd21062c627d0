package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_GetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); ua != DefaultUserAgent {
			t.Errorf("expected user agent %q, got %q", DefaultUserAgent, ua)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"hello": "world"})
	}))
	defer server.Close()

	client := New()
	var out map[string]string
	if err := client.GetJSON(context.Background(), server.URL, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out["hello"] != "world" {
		t.Errorf("unexpected body: %v", out)
	}
}

func TestClient_RetryOnRateLimit(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := New(WithMaxRetries(3), WithRetryDelay(time.Millisecond), WithMaxDelay(5*time.Millisecond))

	var out struct {
		OK bool `json:"ok"`
	}
	if err := client.GetJSON(context.Background(), server.URL, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if !out.OK {
		t.Error("expected ok=true")
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestClient_PostIsNeverRetried(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(WithMaxRetries(5), WithRetryDelay(time.Millisecond))

	err := client.PostJSON(context.Background(), server.URL, nil, map[string]string{"a": "b"}, nil, time.Second)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("expected exactly 1 attempt for POST, got %d", got)
	}
}

func TestClient_StatusErrorCarriesUpstreamMessage(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"error string", `{"error":"name already taken"}`, "name already taken"},
		{"message field", `{"success":false,"message":"rate limited, retry in 30s"}`, "rate limited, retry in 30s"},
		{"nested error", `{"error":{"message":"invalid api key"}}`, "invalid api key"},
		{"plain text", `bad request body`, "bad request body"},
		{"html", `<html>oops</html>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := New().PostJSON(context.Background(), server.URL, nil, struct{}{}, nil, time.Second)

			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected StatusError, got %T: %v", err, err)
			}
			if se.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", se.StatusCode)
			}
			if se.Message != tt.expected {
				t.Errorf("expected message %q, got %q", tt.expected, se.Message)
			}
			if tt.expected != "" && UpstreamMessage(err) != tt.expected {
				t.Errorf("UpstreamMessage = %q, want %q", UpstreamMessage(err), tt.expected)
			}
		})
	}
}

func TestClient_PerCallTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	start := time.Now()
	err := New().PostJSON(context.Background(), server.URL, nil, struct{}{}, nil, 50*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout not enforced, took %v", elapsed)
	}
}

func TestClient_HeadersAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("expected auth header, got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected json content type, got %q", got)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]string{"echo": body["name"]})
	}))
	defer server.Close()

	var out map[string]string
	err := New().PostJSON(context.Background(), server.URL,
		map[string]string{"Authorization": "Bearer key"},
		map[string]string{"name": "alpha"}, &out, time.Second)
	if err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if out["echo"] != "alpha" {
		t.Errorf("unexpected echo: %v", out)
	}
}
