package security

import (
	"net"
	"strings"
	"testing"
)

func TestValidateURLSchemes(t *testing.T) {
	v := NewHTTP()

	tests := []struct {
		name    string
		url     string
		wantErr string
	}{
		{"file scheme", "file:///etc/passwd", "disallowed scheme"},
		{"ftp scheme", "ftp://example.com/x", "disallowed scheme"},
		{"javascript scheme", "javascript:alert(1)", "disallowed scheme"},
		{"missing host", "http://", "invalid hostname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateURL(tt.url)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateURL(%q) = %v, want error containing %q", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURLDangerousHosts(t *testing.T) {
	v := NewHTTP()

	blocked := []string{
		"http://localhost/admin",
		"http://127.0.0.1:8080/",
		"https://169.254.169.254/latest/meta-data/",
		"http://metadata.google.internal/computeMetadata/v1/",
	}

	for _, u := range blocked {
		if err := v.ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want SSRF rejection", u)
		}
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip      string
		private bool
	}{
		{"10.0.0.1", true},
		{"172.16.5.5", true},
		{"192.168.1.1", true},
		{"127.0.0.1", true},
		{"169.254.169.254", true},
		{"fc00::1", true},
		{"fe80::1", true},
		{"8.8.8.8", false},
		{"1.1.1.1", false},
		{"2607:f8b0::1", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			ip := net.ParseIP(tt.ip)
			if ip == nil {
				t.Fatalf("bad test IP %q", tt.ip)
			}
			if got := isPrivateIP(ip); got != tt.private {
				t.Errorf("isPrivateIP(%s) = %v, want %v", tt.ip, got, tt.private)
			}
		})
	}
}

func TestClientConfigured(t *testing.T) {
	v := NewHTTP()
	c := v.Client()
	if c == nil {
		t.Fatal("Client() returned nil")
	}
	if c.Timeout == 0 {
		t.Error("client has no timeout")
	}
	if v.MaxResponseSize() <= 0 {
		t.Error("MaxResponseSize() must be positive")
	}
}
