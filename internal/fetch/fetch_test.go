package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(maxRetries int, initialDelay time.Duration) (*Client, *[]time.Duration) {
	c := NewClientWithPolicy(&http.Client{Timeout: 2 * time.Second}, maxRetries, initialDelay)

	var sleeps []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return c, &sleeps
}

func TestGetRetriesThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c, sleeps := newTestClient(3, time.Second)

	body, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q, want %q", body, "ok")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}

	// two failures, so exactly two delayed retries at the constant delay
	want := []time.Duration{time.Second, time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *sleeps, want)
	}
	for i, d := range want {
		if (*sleeps)[i] != d {
			t.Errorf("sleep[%d] = %v, want %v", i, (*sleeps)[i], d)
		}
	}
}

func TestGetRateLimitDoublesDelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, sleeps := newTestClient(3, time.Second)

	if _, err := c.Get(context.Background(), srv.URL); err == nil {
		t.Fatal("Get should fail after exhausting retries")
	}

	// delay before attempt k is initialDelay * 2^(k-1)
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *sleeps, want)
	}
	for i, d := range want {
		if (*sleeps)[i] != d {
			t.Errorf("sleep[%d] = %v, want %v", i, (*sleeps)[i], d)
		}
	}
}

func TestGetConstantDelayWithoutRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, sleeps := newTestClient(3, 250*time.Millisecond)

	if _, err := c.Get(context.Background(), srv.URL); err == nil {
		t.Fatal("Get should fail after exhausting retries")
	}

	if len(*sleeps) != 3 {
		t.Fatalf("sleeps = %v, want 3 entries", *sleeps)
	}
	for i, d := range *sleeps {
		if d != 250*time.Millisecond {
			t.Errorf("sleep[%d] = %v, want constant 250ms", i, d)
		}
	}
}

func TestGetContextCancelAbortsWait(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClientWithPolicy(&http.Client{Timeout: 2 * time.Second}, 3, 10*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if _, err := c.Get(ctx, srv.URL); err == nil {
		t.Fatal("Get should fail when context is cancelled")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled Get took %v, should abort the retry wait", elapsed)
	}
}
