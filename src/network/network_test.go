package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"auction-predictor/src/models"
)

func newTestManager(retries int) *NetworkManager {
	cfg := &models.MConfig{}
	cfg.Network.RequestTimeout = 5
	cfg.Network.MaxRetries = retries
	cfg.Network.UserAgent = "test-agent"
	nm := NewNetworkManager(cfg, nil)
	nm.BaseDelay = time.Millisecond
	return nm
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.URL.Query().Get("metal") != "copper" {
			t.Errorf("metal param = %q", r.URL.Query().Get("metal"))
		}
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	body, err := newTestManager(3).Get(context.Background(), srv.URL, map[string]string{"metal": "copper"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != "ok" || atomic.LoadInt32(&calls) != 3 {
		t.Errorf("body=%q calls=%d", body, calls)
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := newTestManager(3).Get(context.Background(), srv.URL, nil); err == nil {
		t.Fatal("expected error for 404")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
