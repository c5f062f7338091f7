package ai

import (
	"strings"
	"testing"
)

func TestTrimReplyShortPassesThrough(t *testing.T) {
	if got := trimReply("hello"); got != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestTrimReplyLongIsCapped(t *testing.T) {
	long := strings.Repeat("x", maxReplyLen+500)
	got := trimReply(long)
	if len(got) != maxReplyLen+3 {
		t.Fatalf("len = %d, want %d", len(got), maxReplyLen+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("missing ellipsis suffix")
	}
}
