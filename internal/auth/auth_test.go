package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc123", "abc123", false},
		{"empty header", "", "", true},
		{"no scheme", "abc123", "", true},
		{"wrong scheme", "Basic abc123", "", true},
		{"empty token", "Bearer ", "", true},
		{"lowercase scheme", "bearer abc123", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if tt.wantErr {
				if !errors.Is(err, ErrMissingCredential) {
					t.Fatalf("expected ErrMissingCredential, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected token %q, got %q", tt.want, got)
			}
		})
	}
}

func TestStaticVerifier(t *testing.T) {
	v := NewStatic(map[string]string{"tok": "user-1"})

	userID, err := v.Verify(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("expected user-1, got %s", userID)
	}

	_, err = v.Verify(context.Background(), "nope")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestClientVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/user" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"user_id":"u-42"}`))
		case "Bearer hollow":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{}`))
		case "Bearer broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	userID, err := c.Verify(context.Background(), "good")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "u-42" {
		t.Errorf("expected u-42, got %s", userID)
	}

	if _, err := c.Verify(context.Background(), "bad"); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("rejected token: expected ErrInvalidCredential, got %v", err)
	}

	// A 200 with no user id is still an invalid credential.
	if _, err := c.Verify(context.Background(), "hollow"); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("empty user: expected ErrInvalidCredential, got %v", err)
	}

	// Server-side failures are not credential errors.
	if _, err := c.Verify(context.Background(), "broken"); err == nil || errors.Is(err, ErrInvalidCredential) {
		t.Errorf("5xx should surface as a plain error, got %v", err)
	}
}
