package telegram

import (
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubTransport struct {
	errs  []error
	calls int
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.calls++
	if s.calls <= len(s.errs) {
		return nil, s.errs[s.calls-1]
	}
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}")), Request: req}, nil
}

func newRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "https://api.telegram.org/botTOKEN/sendMessage", strings.NewReader(`{"text":"hi"}`))
	require.NoError(t, err)
	return req
}

func TestRetryTransportRetriesTransientErrors(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}
	stub := &stubTransport{errs: []error{dial, dial}}
	rt := &retryTransport{base: stub, maxRetries: 3, backoff: time.Millisecond}

	resp, err := rt.RoundTrip(newRequest(t))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 3, stub.calls)
}

func TestRetryTransportStopsOnPermanentError(t *testing.T) {
	stub := &stubTransport{errs: []error{&url.Error{Op: "Post", URL: "x", Err: errors.New("bad certificate")}}}
	rt := &retryTransport{base: stub, maxRetries: 3, backoff: time.Millisecond}

	_, err := rt.RoundTrip(newRequest(t))
	require.Error(t, err)
	require.Equal(t, 1, stub.calls)
}

func TestRetryTransportGivesUp(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}
	stub := &stubTransport{errs: []error{dial, dial, dial}}
	rt := &retryTransport{base: stub, maxRetries: 2, backoff: time.Millisecond}

	_, err := rt.RoundTrip(newRequest(t))
	require.ErrorIs(t, err, dial)
	require.Equal(t, 3, stub.calls)
}

func TestBuildHTTPClientLeavesRoomForLongPoll(t *testing.T) {
	c := BuildHTTPClient(HTTPClientOptions{LongPollTimeout: 25 * time.Second})
	require.Greater(t, c.Timeout, 25*time.Second)
	rt := c.Transport.(*retryTransport)
	require.Equal(t, defaultRetryAttempts, rt.maxRetries)
	require.Greater(t, rt.base.(*http.Transport).ResponseHeaderTimeout, 25*time.Second)
}

func TestAPIMethodHidesToken(t *testing.T) {
	require.Equal(t, "sendMessage", apiMethod(newRequest(t)))
}

func TestLongPollTimeout(t *testing.T) {
	require.Equal(t, 10*time.Second, longPollTimeout(0))
	require.Equal(t, 30*time.Second, longPollTimeout(30))
}
