package entity

import (
	"fmt"
	"net"
	"net/url"
)

// maxTargetURLLength caps delivery target URLs to prevent DoS via oversized payloads.
const maxTargetURLLength = 2048

// ValidateTargetURL validates the format of a delivery target URL.
// Targets must be absolute https URLs with a host; plain http targets leak
// notification content in transit and are rejected outright.
// Returns a ValidationError if the URL is invalid or empty.
func ValidateTargetURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "target", Message: "target URL is required"}
	}

	if len(rawURL) > maxTargetURLLength {
		return &ValidationError{
			Field:   "target",
			Message: fmt.Sprintf("target must not exceed %d characters", maxTargetURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse target URL: %w", err)
	}

	if parsedURL.Scheme != "https" {
		return &ValidationError{Field: "target", Message: "target must use https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "target", Message: "target must have a valid host"}
	}

	return nil
}

// ValidatePublicHost resolves the target host and rejects private or
// restricted addresses. Targets come from caller-supplied payload data, so
// without this check a notification could be aimed at internal services.
func ValidatePublicHost(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse target URL: %w", err)
	}

	// SSRF対策: プライベートIPアドレスをブロック
	host := parsedURL.Hostname()
	ips, err := net.LookupIP(host)
	if err == nil && len(ips) > 0 {
		for _, ip := range ips {
			if isPrivateIP(ip) {
				return &ValidationError{
					Field:   "target",
					Message: "target cannot point to private network",
				}
			}
		}
	}

	return nil
}

// isPrivateIP checks if an IP address is in a private or restricted range.
// This blocks:
// - localhost (127.0.0.0/8, ::1)
// - link-local addresses (169.254.0.0/16, fe80::/10)
// - private networks (10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16)
// - cloud metadata endpoints (169.254.169.254)
func isPrivateIP(ip net.IP) bool {
	// localhost
	if ip.IsLoopback() {
		return true
	}

	// link-local
	if ip.IsLinkLocalUnicast() {
		return true
	}

	// Private IPv4 ranges
	privateIPv4Ranges := []string{
		"10.0.0.0/8",     // Private network
		"172.16.0.0/12",  // Private network
		"192.168.0.0/16", // Private network
		"169.254.0.0/16", // Link-local (includes cloud metadata)
	}

	for _, cidr := range privateIPv4Ranges {
		_, subnet, _ := net.ParseCIDR(cidr)
		if subnet.Contains(ip) {
			return true
		}
	}

	return false
}
