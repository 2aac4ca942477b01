package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer good-token":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"user-123","email":"a@b.c"}`))
		case "Bearer no-id-token":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"email":"a@b.c"}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	v, err := NewHTTPVerifier(Opts{UserInfoURL: srv.URL})
	if err != nil {
		t.Fatalf("NewHTTPVerifier: %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantID  string
		wantErr error
	}{
		{"valid token", "good-token", "user-123", nil},
		{"rejected token", "bad-token", "", ErrUnauthorized},
		{"empty token", "", "", ErrUnauthorized},
		{"missing id in response", "no-id-token", "", ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Resolve(context.Background(), tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if id != tt.wantID {
				t.Errorf("id = %q, want %q", id, tt.wantID)
			}
		})
	}
}

func TestResolve_TransportFailureIsNotUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	v, err := NewHTTPVerifier(Opts{UserInfoURL: srv.URL})
	if err != nil {
		t.Fatalf("NewHTTPVerifier: %v", err)
	}
	_, err = v.Resolve(context.Background(), "good-token")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Errorf("transport failure must not map to ErrUnauthorized, got %v", err)
	}
}

func TestNewHTTPVerifier_RequiresURL(t *testing.T) {
	if _, err := NewHTTPVerifier(Opts{}); err == nil {
		t.Error("expected error without url")
	}
}
