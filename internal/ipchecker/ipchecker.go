// Package ipchecker extracts the client IP from an HTTP request and
// checks it against a trusted subnet. The stats endpoint is only served
// to callers inside that subnet.
package ipchecker

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// IPChecker validates client addresses against a trusted subnet given in
// CIDR notation. With no subnet configured every check fails, which keeps
// the gated endpoints closed by default.
type IPChecker struct {
	trustedSubnet *net.IPNet
}

// New parses the trusted subnet. An empty string yields a checker that
// rejects everyone.
func New(trustedSubnet string) (*IPChecker, error) {
	if trustedSubnet == "" {
		return &IPChecker{}, nil
	}

	_, allowedNet, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("parsing the trusted subnet: %w", err)
	}

	return &IPChecker{trustedSubnet: allowedNet}, nil
}

// Check reports whether the IP belongs to the trusted subnet.
func (checker *IPChecker) Check(clientIP net.IP) bool {
	return checker.trustedSubnet != nil && clientIP != nil && checker.trustedSubnet.Contains(clientIP)
}

// ClientIP extracts the caller's address, preferring the X-Real-IP header,
// then the first X-Forwarded-For entry, then the connection's remote
// address.
func (checker *IPChecker) ClientIP(request *http.Request) (net.IP, error) {
	if ip := net.ParseIP(request.Header.Get("X-Real-IP")); ip != nil {
		return ip, nil
	}

	if xff := request.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		return net.ParseIP(first), nil
	}

	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("splitting the remote address: %w", err)
	}

	return net.ParseIP(host), nil
}
