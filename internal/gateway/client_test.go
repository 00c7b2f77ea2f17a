package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/threadlinehq/threadline/internal/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(nil, config.GatewayConfig{BaseURL: baseURL, TimeoutSeconds: 2})
}

func TestSendPostsPayloadAndParsesStatus(t *testing.T) {
	t.Parallel()

	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send-sms" {
			t.Errorf("path = %q, want /send-sms", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
	}))
	defer srv.Close()

	status, err := newTestClient(srv.URL).Send(context.Background(), "+15551234", "hello")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if status != "queued" {
		t.Fatalf("status = %q, want queued", status)
	}
	if got["phone"] != "+15551234" || got["message"] != "hello" {
		t.Fatalf("payload = %v", got)
	}
}

func TestSendBareOKCountsAsSent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	status, err := newTestClient(srv.URL).Send(context.Background(), "+15551234", "hello")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if status != "sent" {
		t.Fatalf("status = %q, want sent", status)
	}
}

func TestSendGatewayErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no credit", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Send(context.Background(), "+15551234", "hello"); err == nil {
		t.Fatal("expected error for non-2xx gateway response")
	}
}

func TestSendUnreachableGateway(t *testing.T) {
	t.Parallel()

	if _, err := newTestClient("http://127.0.0.1:1").Send(context.Background(), "+15551234", "hello"); err == nil {
		t.Fatal("expected error for unreachable gateway")
	}
}
