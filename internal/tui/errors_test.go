package tui

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/studiowebux/dicomkit/internal/simulate"
	"github.com/studiowebux/dicomkit/internal/study"
)

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantText string
	}{
		{
			name:     "nil error",
			err:      nil,
			wantText: "",
		},
		{
			name:     "cancelled",
			err:      fmt.Errorf("load: %w", context.Canceled),
			wantText: "Operation cancelled",
		},
		{
			name:     "deadline",
			err:      context.DeadlineExceeded,
			wantText: "Operation timed out - the peer took too long to respond",
		},
		{
			name:     "no study",
			err:      study.ErrNoStudy,
			wantText: "No study loaded - press L to load one",
		},
		{
			name:     "wrapped transfer failure",
			err:      fmt.Errorf("%w: series 2", simulate.ErrTransferFailed),
			wantText: "Retrieve failed - the endpoint rejected a series, check the request history",
		},
		{
			name: "connection refused",
			err: &net.OpError{Op: "dial", Net: "tcp",
				Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)},
			wantText: "Connection refused - check the peer host, port and that its SCP is running",
		},
		{
			name:     "dns",
			err:      fmt.Errorf("associate: %w", &net.DNSError{Err: "no such host", Name: "pacs.invalid"}),
			wantText: "DNS resolution failed - verify the peer hostname",
		},
		{
			name:     "unknown error",
			err:      errors.New("association rejected"),
			wantText: "association rejected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describeError(tt.err)
			if got != tt.wantText {
				t.Errorf("describeError() = %q, want %q", got, tt.wantText)
			}
		})
	}
}
