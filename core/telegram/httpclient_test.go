package telegram

import (
	"errors"
	"net"
	"net/url"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetryTimeouts(t *testing.T) {
	if !shouldRetry(timeoutErr{}) {
		t.Fatal("timeout not retried")
	}
	if !shouldRetry(&net.OpError{Op: "dial", Err: errors.New("refused")}) {
		t.Fatal("dial failure not retried")
	}
	if !shouldRetry(&url.Error{Op: "Get", URL: "https://api.telegram.org", Err: timeoutErr{}}) {
		t.Fatal("wrapped timeout not retried")
	}
}

func TestShouldRetrySkipsPermanentErrors(t *testing.T) {
	if shouldRetry(nil) {
		t.Fatal("nil error retried")
	}
	if shouldRetry(errors.New("bad request")) {
		t.Fatal("plain error retried")
	}
}

func TestBuildPollerLongpollTimeout(t *testing.T) {
	poller := buildPoller(Options{RunMode: RunModeLongpoll, LongPollTimeoutSeconds: 25})
	lp, ok := poller.(*tele.LongPoller)
	if !ok {
		t.Fatalf("poller type %T, want *tele.LongPoller", poller)
	}
	if lp.Timeout != 25*time.Second {
		t.Fatalf("timeout = %v", lp.Timeout)
	}
}

func TestBuildPollerDefaultsTimeout(t *testing.T) {
	poller := buildPoller(Options{RunMode: RunModeLongpoll})
	lp, ok := poller.(*tele.LongPoller)
	if !ok {
		t.Fatalf("poller type %T, want *tele.LongPoller", poller)
	}
	if lp.Timeout != 10*time.Second {
		t.Fatalf("default timeout = %v", lp.Timeout)
	}
}
