package recaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPProviderAcquireToken_Success(t *testing.T) {
	var got tokenRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok-1"}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "site-key", time.Second, nil)
	token, err := p.AcquireToken(context.Background(), ActionSubmit)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token != "tok-1" {
		t.Fatalf("unexpected token %q", token)
	}
	if got.SiteKey != "site-key" || got.Action != "submit" {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestHTTPProviderAcquireToken_Failures(t *testing.T) {
	t.Run("error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		p := NewHTTPProvider(srv.URL, "site-key", time.Second, nil)
		if _, err := p.AcquireToken(context.Background(), ActionSubmit); !errors.Is(err, ErrVerificationUnavailable) {
			t.Fatalf("expected ErrVerificationUnavailable, got %v", err)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"token":"  "}`))
		}))
		defer srv.Close()

		p := NewHTTPProvider(srv.URL, "site-key", time.Second, nil)
		if _, err := p.AcquireToken(context.Background(), ActionSubmit); !errors.Is(err, ErrVerificationUnavailable) {
			t.Fatalf("expected ErrVerificationUnavailable, got %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			<-release
		}))
		defer srv.Close()
		defer close(release)

		p := NewHTTPProvider(srv.URL, "site-key", 50*time.Millisecond, nil)
		if _, err := p.AcquireToken(context.Background(), ActionSubmit); !errors.Is(err, ErrVerificationUnavailable) {
			t.Fatalf("expected ErrVerificationUnavailable, got %v", err)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()

		p := NewHTTPProvider(url, "site-key", time.Second, nil)
		if _, err := p.AcquireToken(context.Background(), ActionSubmit); !errors.Is(err, ErrVerificationUnavailable) {
			t.Fatalf("expected ErrVerificationUnavailable, got %v", err)
		}
	})
}

func TestHTTPProviderAcquireToken_NotCached(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(tokenResponse{Token: "tok-" + string(rune('a'+calls))})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "site-key", time.Second, nil)
	first, err := p.AcquireToken(context.Background(), ActionSubmit)
	if err != nil {
		t.Fatalf("first token: %v", err)
	}
	second, err := p.AcquireToken(context.Background(), ActionSubmit)
	if err != nil {
		t.Fatalf("second token: %v", err)
	}
	if calls != 2 || first == second {
		t.Fatalf("expected a fresh token per call, calls=%d first=%q second=%q", calls, first, second)
	}
}

func TestDisabledProvider(t *testing.T) {
	p := NewDisabledProvider("site key not configured")
	if _, err := p.AcquireToken(context.Background(), ActionSubmit); !errors.Is(err, ErrVerificationUnavailable) {
		t.Fatalf("expected ErrVerificationUnavailable, got %v", err)
	}
}
