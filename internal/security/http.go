package security

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// HTTP validates outbound requests to prevent SSRF (Server-Side Request
// Forgery). All collaborator-facing tools share one instance so they share
// the same client, limits, and blocklists.
type HTTP struct {
	maxResponseSize int64
	allowedSchemes  []string
	client          *http.Client
}

// NewHTTP creates an HTTP validator with a hardened shared client.
func NewHTTP() *HTTP {
	v := &HTTP{
		maxResponseSize: 5 << 20,
		allowedSchemes:  []string{"http", "https"},
	}
	v.client = &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			// Redirect targets get the same scrutiny as the original URL.
			if err := v.ValidateURL(req.URL.String()); err != nil {
				slog.Warn("unsafe redirect blocked",
					"redirect_url", req.URL.String(),
					"security_event", "ssrf_unsafe_redirect")
				return fmt.Errorf("redirect to unsafe URL: %w", err)
			}
			return nil
		},
	}
	return v
}

// ValidateURL validates whether a URL is safe to fetch: scheme allowlist,
// hostname blocklist, and private-range checks on every resolved IP.
func (v *HTTP) ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !slices.Contains(v.allowedSchemes, scheme) {
		return fmt.Errorf("disallowed scheme %q (only http/https)", parsed.Scheme)
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return fmt.Errorf("invalid hostname")
	}

	if isDangerousHostname(hostname) {
		slog.Warn("dangerous hostname blocked",
			"url", urlStr,
			"hostname", hostname,
			"security_event", "ssrf_dangerous_hostname")
		return fmt.Errorf("access denied: internal hosts and metadata services are not allowed")
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		return fmt.Errorf("resolving hostname: %w", err)
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			slog.Warn("private IP blocked",
				"url", urlStr,
				"hostname", hostname,
				"resolved_ip", ip.String(),
				"security_event", "ssrf_private_ip")
			return fmt.Errorf("access denied: %s resolves to a private address", hostname)
		}
	}

	return nil
}

// Client returns the shared hardened HTTP client.
func (v *HTTP) Client() *http.Client {
	return v.client
}

// MaxResponseSize returns the response body size limit in bytes.
func (v *HTTP) MaxResponseSize() int64 {
	return v.maxResponseSize
}

func isDangerousHostname(hostname string) bool {
	hostname = strings.ToLower(hostname)

	local := []string{"localhost", "127.0.0.1", "::1", "0.0.0.0"}
	if slices.Contains(local, hostname) {
		return true
	}

	// Cloud metadata endpoints.
	metadata := []string{"169.254.169.254", "metadata.google.internal", "metadata"}
	for _, m := range metadata {
		if hostname == m || strings.Contains(hostname, m) {
			return true
		}
	}

	return false
}

func isPrivateIP(ip net.IP) bool {
	privateCIDRs := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"169.254.0.0/16",
		"0.0.0.0/8",
		"224.0.0.0/4",
		"240.0.0.0/4",
	}
	for _, cidr := range privateCIDRs {
		_, subnet, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if subnet.Contains(ip) {
			return true
		}
	}

	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	// IPv6 unique local addresses, fc00::/7.
	if v6 := ip.To16(); v6 != nil && ip.To4() == nil && (v6[0] == 0xfc || v6[0] == 0xfd) {
		return true
	}

	return false
}
