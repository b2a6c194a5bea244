package tts

import (
	"errors"
	"net"
	"strings"
)

// Message markers that indicate a transient condition worth retrying.
// Matched case-insensitively against the full error chain's message.
var retryableMarkers = []string{
	"network is unreachable",
	"connection refused",
	"cannot connect",
	"temporary failure",
	"401",
	"authentication",
	"handshake",
}

// Retryable classifies a synthesis failure. Timeouts and known transient
// network or auth conditions are retryable; everything else fails fast.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range retryableMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
