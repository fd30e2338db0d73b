package netutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad request"), false},
		{"cancelled", fmt.Errorf("send: %w", context.Canceled), false},
		{"unexpected eof", &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: io.ErrUnexpectedEOF}, true},
		{"reset", &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}, true},
		{"dial", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("no route")}, true},
		{"timeout", &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: timeoutErr{}}, true},
		{"dns temporary", &net.DNSError{Err: "server misbehaving", IsTemporary: true}, true},
		{"dns missing", &net.DNSError{Err: "no such host", IsNotFound: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ShouldRetry(tc.err))
		})
	}
}
