package main

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// envServer names the environment variable holding a default server
// address, host[:port].
const envServer = "DICT_SERVER"

// parseServer splits a "host", "host:port", "[v6]:port" or bare IPv6
// address. A missing port is returned as zero.
func parseServer(s string) (host string, port int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", 0, fmt.Errorf("empty server address")
	}

	// A bare IPv6 address has several colons and no brackets.
	if strings.Count(s, ":") > 1 && !strings.HasPrefix(s, "[") {
		return s, 0, nil
	}

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return s[1 : len(s)-1], 0, nil
	}

	if !strings.Contains(s, ":") {
		return s, 0, nil
	}

	h, p, err := net.SplitHostPort(s)
	if err != nil {
		return "", 0, fmt.Errorf("invalid server address %q: %w", s, err)
	}
	if h == "" {
		return "", 0, fmt.Errorf("invalid server address %q: missing host", s)
	}
	if p == "" {
		return h, 0, nil
	}
	port, err = strconv.Atoi(p)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid server address %q: bad port %q", s, p)
	}
	return h, port, nil
}

// serverAddr formats host and port for display.
func serverAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
