package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/kv"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/shardqueue"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// newAuthServer accepts password "secret" and echoes registrations.
func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":  map[string]any{"id": 7, "username": req["username"], "first_name": "Marie", "last_name": "Dupont", "role": "client"},
			"token": "tok-7",
		})
	})
	mux.HandleFunc("/api/auth/register/", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "new-1", "username": req["username"], "email": req["email"],
			"first_name": req["first_name"], "last_name": req["last_name"], "role": req["role"],
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newTestClient builds a Client over store (a fresh memory store when nil).
func newTestClient(t *testing.T, authURL string, store kv.Store, opts ...Option) *Client {
	t.Helper()
	if store == nil {
		store = kv.NewMemory()
	}
	cfg := config.NewForTesting()
	cfg.AuthBaseURL = authURL + "/api"
	base := []Option{
		WithConfig(cfg),
		WithStore(store),
		WithExecutorConfig(shardqueue.Config{Shards: 2, QueueSize: 32, MaxAttempts: 2, BaseBackoff: time.Millisecond}),
	}
	c, err := New(context.Background(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}
