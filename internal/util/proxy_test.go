package util

import (
	"net/http"
	"net/url"
	"testing"
)

func proxyFor(t *testing.T, fn func(*http.Request) (*url.URL, error), rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatal(err)
	}
	p, err := fn(&http.Request{URL: u})
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if p == nil {
		return ""
	}
	return p.String()
}

func TestNewProxyFunc(t *testing.T) {
	fn := NewProxyFunc("http://proxy:3128", "http://secure-proxy:3128", "localhost, .internal.example")

	tests := []struct {
		url  string
		want string
	}{
		{"http://api.example.com/v1", "http://proxy:3128"},
		{"https://api.example.com/v1", "http://secure-proxy:3128"},
		{"http://localhost:11434/api/generate", ""},
		{"https://llm.internal.example/v1", ""},
		{"https://internal.example/v1", ""},
	}
	for _, tt := range tests {
		if got := proxyFor(t, fn, tt.url); got != tt.want {
			t.Errorf("proxy for %s: expected %q, got %q", tt.url, tt.want, got)
		}
	}
}

func TestNewProxyFunc_HTTPOnly(t *testing.T) {
	fn := NewProxyFunc("http://proxy:3128", "", "")
	if got := proxyFor(t, fn, "https://api.example.com"); got != "http://proxy:3128" {
		t.Errorf("expected http proxy for https URL, got %q", got)
	}
}
