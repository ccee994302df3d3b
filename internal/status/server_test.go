package status

import (
	"cross-price-arb/internal/config"
	"testing"
)

func TestIsOriginAllowedEmptyOriginPasses(t *testing.T) {
	t.Parallel()

	if !isOriginAllowed("", config.DashboardConfig{}, "example.com") {
		t.Error("expected an empty Origin header (non-browser client) to be allowed")
	}
}

func TestIsOriginAllowedLocalhostByDefault(t *testing.T) {
	t.Parallel()

	if !isOriginAllowed("http://localhost:3000", config.DashboardConfig{}, "example.com:8090") {
		t.Error("expected localhost origin to be allowed when no allowlist is configured")
	}
	if !isOriginAllowed("http://127.0.0.1:3000", config.DashboardConfig{}, "example.com:8090") {
		t.Error("expected 127.0.0.1 origin to be allowed when no allowlist is configured")
	}
}

func TestIsOriginAllowedMatchesRequestHost(t *testing.T) {
	t.Parallel()

	if !isOriginAllowed("http://example.com", config.DashboardConfig{}, "example.com:8090") {
		t.Error("expected origin matching the request host to be allowed")
	}
}

func TestIsOriginAllowedRejectsUnrelatedHost(t *testing.T) {
	t.Parallel()

	if isOriginAllowed("http://evil.com", config.DashboardConfig{}, "example.com:8090") {
		t.Error("expected an unrelated origin with no allowlist to be rejected")
	}
}

func TestIsOriginAllowedHonorsExplicitAllowlist(t *testing.T) {
	t.Parallel()

	cfg := config.DashboardConfig{AllowedOrigins: []string{"https://dashboard.example.com"}}

	if !isOriginAllowed("https://dashboard.example.com", cfg, "internal-host:8090") {
		t.Error("expected an allowlisted origin to be allowed")
	}
	if isOriginAllowed("https://other.example.com", cfg, "internal-host:8090") {
		t.Error("expected an origin outside the allowlist to be rejected once an allowlist is set")
	}
}

func TestIsOriginAllowedRejectsMalformedOrigin(t *testing.T) {
	t.Parallel()

	if isOriginAllowed("://not-a-url", config.DashboardConfig{}, "example.com") {
		t.Error("expected a malformed origin header to be rejected")
	}
}

func TestNormalizeOriginLowercasesAndJoins(t *testing.T) {
	t.Parallel()

	got := normalizeOrigin("HTTPS", "Example.COM")
	if got != "https://example.com" {
		t.Errorf("normalizeOrigin() = %q, want %q", got, "https://example.com")
	}
}

func TestNormalizeOriginRejectsMissingParts(t *testing.T) {
	t.Parallel()

	if normalizeOrigin("", "example.com") != "" {
		t.Error("expected empty scheme to normalize to empty string")
	}
	if normalizeOrigin("https", "") != "" {
		t.Error("expected empty host to normalize to empty string")
	}
}

func TestNormalizeHostStripsPort(t *testing.T) {
	t.Parallel()

	got := normalizeHost("Example.COM:8090")
	if got != "example.com" {
		t.Errorf("normalizeHost() = %q, want %q", got, "example.com")
	}
}

func TestNormalizeHostWithoutPort(t *testing.T) {
	t.Parallel()

	got := normalizeHost("Example.COM")
	if got != "example.com" {
		t.Errorf("normalizeHost() = %q, want %q", got, "example.com")
	}
}
