package bot

import (
	"testing"

	"lectorium/storage"
)

func TestTargetTokenRoundTrip(t *testing.T) {
	topics := []string{
		"Networks",
		"Operating Systems II",
		"C++: templates & traits",
		"50% done",
		"tilde ~ topic",
	}
	for _, topic := range topics {
		token := encodeTarget(3, topic)
		course, got, err := decodeTarget(token)
		if err != nil {
			t.Fatalf("decodeTarget(%q): %v", token, err)
		}
		if course != 3 || got != topic {
			t.Fatalf("round trip of %q gave (%d, %q)", topic, course, got)
		}
	}
}

func TestFileTargetTokenRoundTrip(t *testing.T) {
	token := encodeFileTarget(storage.KindPresentation, 2, "Graph Theory")
	kind, course, topic, err := decodeFileTarget(token)
	if err != nil {
		t.Fatalf("decodeFileTarget: %v", err)
	}
	if kind != storage.KindPresentation || course != 2 || topic != "Graph Theory" {
		t.Fatalf("got (%s, %d, %q)", kind, course, topic)
	}
}

func TestDecodeTargetRejectsMalformed(t *testing.T) {
	for _, token := range []string{"", "no-separator", "x:topic", "1:%zz"} {
		if _, _, err := decodeTarget(token); err == nil {
			t.Fatalf("decodeTarget(%q) accepted malformed token", token)
		}
	}
}

func TestDecodeFileTargetRejectsUnknownKind(t *testing.T) {
	if _, _, _, err := decodeFileTarget("video:1:Topic"); err == nil {
		t.Fatal("unknown kind accepted")
	}
}
