package tui

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/studiowebux/dicomkit/internal/connection"
	"github.com/studiowebux/dicomkit/internal/settings"
	"github.com/studiowebux/dicomkit/internal/simulate"
	"github.com/studiowebux/dicomkit/internal/study"
	"github.com/studiowebux/dicomkit/internal/tagedit"
)

// describeError turns an operation error into a short actionable message for
// the status bar.
func describeError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.Canceled):
		return "Operation cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "Operation timed out - the peer took too long to respond"
	case errors.Is(err, study.ErrNoStudy):
		return "No study loaded - press L to load one"
	case errors.Is(err, study.ErrInvalidWindow):
		return "Window width must be at least 1"
	case errors.Is(err, study.ErrSeriesNotFound), errors.Is(err, study.ErrInstanceNotFound):
		return "Image is no longer part of the loaded study"
	case errors.Is(err, tagedit.ErrUnknownTag):
		return "Tag is not part of the displayed instance"
	case errors.Is(err, connection.ErrUnknownEndpoint):
		return "Endpoint is not configured"
	case errors.Is(err, settings.ErrInvalidPreset):
		return "Window preset has an invalid width"
	case errors.Is(err, simulate.ErrTransferFailed):
		return "Retrieve failed - the endpoint rejected a series, check the request history"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return describeNetError(opErr)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "DNS resolution failed - verify the peer hostname"
	}

	return strings.TrimPrefix(err.Error(), "Error: ")
}

// describeNetError handles association and transport failures from peers
func describeNetError(e *net.OpError) string {
	if e.Timeout() {
		return "Connection timeout - peer took too long to respond"
	}

	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED:
			return "Connection refused - check the peer host, port and that its SCP is running"
		case syscall.ECONNRESET:
			return "Connection reset by peer - the association may have been aborted"
		case syscall.ENETUNREACH, syscall.EHOSTUNREACH:
			return "Network unreachable - check network connection and firewall settings"
		}
	}

	return "Network error: " + e.Error()
}
