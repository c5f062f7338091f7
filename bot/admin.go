package bot

import (
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"lectorium/core/logger"
	"lectorium/core/telegram"
	"lectorium/core/telegram/keyboard"
	"lectorium/core/telegram/middleware"
	"lectorium/storage"
)

// Telegram caps message text at 4096 characters; chunk a bit below that.
const listingChunkSize = 4000

func (b *Bot) handleAddLecture(c tele.Context) error {
	out := b.machine.StartAddLecture(conversationKey(c))
	return b.renderOutcome(c, out)
}

func (b *Bot) handleAddFile(c tele.Context) error {
	out := b.machine.StartAddFile(conversationKey(c))
	return b.renderOutcome(c, out)
}

// handleDatabase prints the full lecture listing for admin review, split
// into message-sized chunks.
func (b *Bot) handleDatabase(c tele.Context) error {
	ctx := middleware.Ctx(c)
	lectures, err := b.store.All(ctx)
	if err != nil {
		logger.Error(ctx, "bot", "listing failed", slog.Any("err", err))
		return c.Send("⚠️ Failed to read the database.")
	}
	if len(lectures) == 0 {
		return c.Send("📭 The database has no lectures.")
	}

	lines := []string{"📚 Lecture listing:"}
	for _, lec := range lectures {
		line := fmt.Sprintf("Course %d — %s", lec.Course, lec.Topic)
		var files []string
		for _, kind := range storage.Kinds {
			if _, ok := lec.FileRef(kind); ok {
				files = append(files, string(kind))
			}
		}
		if len(files) > 0 {
			line += fmt.Sprintf(" (%s)", strings.Join(files, ", "))
		}
		lines = append(lines, line)
	}

	full := strings.Join(lines, "\n")
	for _, chunk := range chunkText(full, listingChunkSize) {
		if err := c.Send(chunk); err != nil {
			return err
		}
	}
	return nil
}

func chunkText(s string, size int) []string {
	if len(s) <= size {
		return []string{s}
	}
	var chunks []string
	for len(s) > size {
		cut := strings.LastIndexByte(s[:size], '\n')
		if cut <= 0 {
			cut = size
		}
		chunks = append(chunks, s[:cut])
		s = strings.TrimPrefix(s[cut:], "\n")
	}
	if s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

// handleDeleteAsk is deletion phase one: re-validate the target still exists
// and replace the lecture card with a confirm/cancel prompt. The tokens on
// both buttons carry the same (course, topic) pair.
func (b *Bot) handleDeleteAsk(c tele.Context) error {
	ctx := middleware.Ctx(c)
	course, topic, err := decodeTarget(telegram.CallbackPayload(c))
	if err != nil {
		logger.Warn(ctx, "bot", "bad delete token", slog.Any("err", err))
		return c.Respond(&tele.CallbackResponse{Text: "❌ Bad request data."})
	}

	exists, err := b.store.Exists(ctx, course, topic)
	if err != nil {
		logger.Error(ctx, "bot", "delete precheck failed", slog.Any("err", err))
		return c.Respond(&tele.CallbackResponse{Text: "⚠️ Deletion failed."})
	}
	if !exists {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Lecture not found."})
	}

	token := encodeTarget(course, topic)
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "✅ Yes", Unique: cbDeleteYes, Data: token},
		{Text: "❌ No", Unique: cbDeleteNo, Data: token},
	})
	return c.Edit(
		fmt.Sprintf("⚠️ Are you sure you want to delete lecture %q (course %d)?", topic, course),
		markup,
	)
}

// handleDeleteConfirm is phase two: delete if still present. Confirming a
// token for an already-deleted lecture degrades to a no-op success.
func (b *Bot) handleDeleteConfirm(c tele.Context) error {
	ctx := middleware.Ctx(c)
	course, topic, err := decodeTarget(telegram.CallbackPayload(c))
	if err != nil {
		logger.Warn(ctx, "bot", "bad delete token", slog.Any("err", err))
		return c.Respond(&tele.CallbackResponse{Text: "❌ Bad request data."})
	}

	deleted, err := b.store.Delete(ctx, course, topic)
	if err != nil {
		logger.Error(ctx, "bot", "delete failed", slog.Any("err", err))
		return c.Respond(&tele.CallbackResponse{Text: "⚠️ Deletion failed."})
	}

	logger.Info(ctx, "bot", "lecture deleted",
		slog.Int("course", course),
		slog.String("topic", topic),
		slog.Bool("was_present", deleted),
	)
	if !deleted {
		return c.Edit(fmt.Sprintf("🗑 Lecture %q (course %d) was already deleted.", topic, course))
	}
	return c.Edit(fmt.Sprintf("🗑 Lecture %q (course %d) deleted.", topic, course))
}

func (b *Bot) handleDeleteCancel(c tele.Context) error {
	return c.Edit("❌ Deletion cancelled.")
}
