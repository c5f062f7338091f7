package bot

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"lectorium/storage"
)

// Inline button unique keys. Telebot encodes callback data as
// \f<unique>|<payload>; the payload carries an action token built below.
const (
	cbShowLecture = "lecture_show"
	cbGetFile     = "lecture_file"
	cbViewPhoto   = "lecture_photo"
	cbDeleteAsk   = "lecture_delete"
	cbDeleteYes   = "delete_confirm"
	cbDeleteNo    = "delete_cancel"
)

// encodeTarget packs (course, topic) into a round-trip safe token. The topic
// is percent-encoded so names with spaces, colons or percent signs survive
// the trip through callback data unchanged.
func encodeTarget(course int, topic string) string {
	return strconv.Itoa(course) + ":" + url.QueryEscape(topic)
}

func decodeTarget(token string) (int, string, error) {
	courseStr, topicEnc, ok := strings.Cut(token, ":")
	if !ok {
		return 0, "", fmt.Errorf("bot: malformed action token %q", token)
	}
	course, err := strconv.Atoi(courseStr)
	if err != nil {
		return 0, "", fmt.Errorf("bot: bad course in action token %q: %w", token, err)
	}
	topic, err := url.QueryUnescape(topicEnc)
	if err != nil {
		return 0, "", fmt.Errorf("bot: bad topic in action token %q: %w", token, err)
	}
	return course, topic, nil
}

// encodeFileTarget extends the target token with the requested file kind.
func encodeFileTarget(kind storage.FileKind, course int, topic string) string {
	return string(kind) + ":" + encodeTarget(course, topic)
}

func decodeFileTarget(token string) (storage.FileKind, int, string, error) {
	kindStr, rest, ok := strings.Cut(token, ":")
	if !ok {
		return "", 0, "", fmt.Errorf("bot: malformed file token %q", token)
	}
	kind := storage.FileKind(kindStr)
	if !kind.Valid() {
		return "", 0, "", fmt.Errorf("bot: unknown file kind %q", kindStr)
	}
	course, topic, err := decodeTarget(rest)
	if err != nil {
		return "", 0, "", err
	}
	return kind, course, topic, nil
}
