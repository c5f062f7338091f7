package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSelectFormat(t *testing.T) {
	cases := []struct {
		opts Options
		want string
	}{
		{Options{Format: "json"}, "json"},
		{Options{Format: "kv"}, "text"},
		{Options{Format: "pretty"}, "text"},
		{Options{Profile: "debug"}, "text"},
		{Options{Profile: "prod"}, "json"},
		{Options{}, "json"},
	}
	for _, c := range cases {
		if got := selectFormat(c.opts); got != c.want {
			t.Errorf("selectFormat(%+v) = %s, want %s", c.opts, got, c.want)
		}
	}
}

func TestEventCarriesComponentAndRID(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(newHandler(buf, Options{Format: "text", Level: "debug"}))

	ctx := WithLogger(context.Background(), log)
	ctx = WithRID(ctx, BuildRID(42, 7, 9))

	Info(ctx, "tg", "update.received", slog.String("status", "ok"))

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log line")
	}
	for _, want := range []string{"component=tg", "msg=update.received", "status=ok", "rid=42:7:9"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line missing %q: %s", want, line)
		}
	}
}

func TestSelectLevel(t *testing.T) {
	if selectLevel("warn") != slog.LevelWarn {
		t.Error("warn not mapped")
	}
	if selectLevel("") != slog.LevelInfo {
		t.Error("default level should be info")
	}
	if selectLevel("nonsense") != slog.LevelInfo {
		t.Error("unknown level should fall back to info")
	}
}
