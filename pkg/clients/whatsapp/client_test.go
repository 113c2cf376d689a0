package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mamadbah2/farmerp/internal/config"
)

func newTestClient(url string) *APIClient {
	return NewClient(config.WhatsAppConfig{BaseURL: url + "/", APIVersion: "v20.0", AccessToken: "secret", PhoneNumberID: "123"})
}

func TestSendText(t *testing.T) {
	var got textPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v20.0/123/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	ids, err := newTestClient(srv.URL).SendText(context.Background(), "224600000000", "Low stock")
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if len(ids) != 1 || ids[0] != "wamid.1" {
		t.Errorf("unexpected ids: %v", ids)
	}
	if got.To != "224600000000" || got.Type != "text" || got.Text.Body != "Low stock" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestSendTextAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","code":100}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SendText(context.Background(), "224600000000", "hello")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != 100 || apiErr.Message != "Invalid parameter" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestSendTextRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":{"message":"try later","code":2}}`))
			return
		}
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.2"}]}`))
	}))
	defer srv.Close()

	ids, err := newTestClient(srv.URL).SendText(context.Background(), "224600000000", "hello")
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 || ids[0] != "wamid.2" {
		t.Errorf("expected one retry, got %d calls and ids %v", calls, ids)
	}
}

func TestSendTextRequiresRecipientAndBody(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1")
	if _, err := c.SendText(context.Background(), "", "hello"); err == nil {
		t.Error("expected missing recipient to fail")
	}
	if _, err := c.SendText(context.Background(), "224600000000", "  "); err == nil {
		t.Error("expected blank body to fail")
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"fits", "a\nb", 10, []string{"a\nb"}},
		{"on line breaks", "aaaa\nbbbb\ncccc", 10, []string{"aaaa\nbbbb", "cccc"}},
		{"long line cut", "abcdefghij\nk", 4, []string{"abcd", "efgh", "ij\nk"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.text, tt.limit)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("Split(%q, %d) = %q, want %q", tt.text, tt.limit, got, tt.want)
			}
			for _, p := range got {
				if len(p) > tt.limit {
					t.Errorf("part %q exceeds %d", p, tt.limit)
				}
			}
		})
	}
}
