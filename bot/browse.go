package bot

import (
	"fmt"
	"html"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"lectorium/core/logger"
	"lectorium/core/telegram"
	"lectorium/core/telegram/keyboard"
	"lectorium/core/telegram/middleware"
	"lectorium/storage"
)

func (b *Bot) handleLectures(c tele.Context) error {
	ctx := middleware.Ctx(c)
	courses, err := b.store.Courses(ctx)
	if err != nil {
		logger.Error(ctx, "bot", "courses lookup failed", slog.Any("err", err))
		return c.Send("⚠️ Failed to load courses.")
	}
	if len(courses) == 0 {
		return c.Send("📭 No courses available yet.")
	}
	return c.Send("Choose a course:", coursesMenu(courses))
}

func (b *Bot) handleCourseSelection(c tele.Context) error {
	ctx := middleware.Ctx(c)
	course, ok := parseCourseLabel(c.Text())
	if !ok {
		return c.Send("❌ Unknown course.")
	}

	topics, err := b.store.TopicsByCourse(ctx, course)
	if err != nil {
		logger.Error(ctx, "bot", "topics lookup failed", slog.Any("err", err), slog.Int("course", course))
		return c.Send("⚠️ Failed to load lectures.")
	}
	if len(topics) == 0 {
		return c.Send("📭 No lectures for this course yet.")
	}

	rows := make([][]keyboard.InlineBtn, 0, len(topics))
	for _, topic := range topics {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   topic,
			Unique: cbShowLecture,
			Data:   encodeTarget(course, topic),
		}})
	}
	return c.Send(fmt.Sprintf("📘 Course %d lectures:", course), keyboard.InlineButtonsRows(rows...))
}

// handleShowLecture renders the lecture card in place of the topic list:
// availability summary plus one button per attached file, and a delete
// button for admins.
func (b *Bot) handleShowLecture(c tele.Context) error {
	ctx := middleware.Ctx(c)
	course, topic, err := decodeTarget(telegram.CallbackPayload(c))
	if err != nil {
		logger.Warn(ctx, "bot", "bad lecture token", slog.Any("err", err))
		return c.Respond(&tele.CallbackResponse{Text: "❌ Bad request data."})
	}

	lecture, err := b.store.Get(ctx, course, topic)
	if err != nil {
		logger.Error(ctx, "bot", "lecture lookup failed", slog.Any("err", err))
		return c.Respond(&tele.CallbackResponse{Text: "⚠️ Failed to open the lecture."})
	}
	if lecture == nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Lecture not found."})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📖 <b>%s</b>\nCourse: %d\n\n", html.EscapeString(topic), course)

	available := []struct {
		kind storage.FileKind
		line string
	}{
		{storage.KindAudio, "🎧 Audio available"},
		{storage.KindDocument, "📄 Document available"},
		{storage.KindPresentation, "📊 Presentation available"},
		{storage.KindPhoto, "🖼 Photo available"},
	}
	var lines []string
	for _, a := range available {
		if _, ok := lecture.FileRef(a.kind); ok {
			lines = append(lines, a.line)
		}
	}
	if len(lines) == 0 {
		sb.WriteString("❌ No files for this lecture.")
	} else {
		sb.WriteString(strings.Join(lines, "\n"))
	}

	buttons := []struct {
		kind   storage.FileKind
		label  string
		unique string
	}{
		{storage.KindAudio, "🎧 Audio", cbGetFile},
		{storage.KindDocument, "📄 Document", cbGetFile},
		{storage.KindPresentation, "📊 Presentation", cbGetFile},
		{storage.KindPhoto, "🖼 Photo", cbViewPhoto},
	}
	var rows [][]keyboard.InlineBtn
	for _, btn := range buttons {
		if _, ok := lecture.FileRef(btn.kind); !ok {
			continue
		}
		data := encodeTarget(course, topic)
		if btn.unique == cbGetFile {
			data = encodeFileTarget(btn.kind, course, topic)
		}
		rows = append(rows, []keyboard.InlineBtn{{Text: btn.label, Unique: btn.unique, Data: data}})
	}
	if b.isAdmin(c) {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   "🗑 Delete lecture",
			Unique: cbDeleteAsk,
			Data:   encodeTarget(course, topic),
		}})
	}

	return c.Edit(sb.String(), keyboard.InlineButtonsRows(rows...), tele.ModeHTML)
}

// handleGetFile sends the requested audio, document or presentation to the
// chat.
func (b *Bot) handleGetFile(c tele.Context) error {
	ctx := middleware.Ctx(c)
	kind, course, topic, err := decodeFileTarget(telegram.CallbackPayload(c))
	if err != nil || kind == storage.KindPhoto {
		logger.Warn(ctx, "bot", "bad file token", slog.Any("err", err))
		return c.Respond(&tele.CallbackResponse{Text: "❌ Bad request data."})
	}

	fileRef, resp := b.lookupFileRef(c, course, topic, kind)
	if resp != nil {
		return resp(c)
	}

	var send error
	if kind == storage.KindAudio {
		send = c.Send(&tele.Audio{File: tele.File{FileID: fileRef}})
	} else {
		send = c.Send(&tele.Document{File: tele.File{FileID: fileRef}})
	}
	if send != nil {
		logger.Error(ctx, "bot", "file delivery failed", slog.Any("err", send), slog.String("kind", string(kind)))
		return c.Respond(&tele.CallbackResponse{Text: "⚠️ Failed to send the file."})
	}
	return c.Respond()
}

func (b *Bot) handleViewPhoto(c tele.Context) error {
	ctx := middleware.Ctx(c)
	course, topic, err := decodeTarget(telegram.CallbackPayload(c))
	if err != nil {
		logger.Warn(ctx, "bot", "bad photo token", slog.Any("err", err))
		return c.Respond(&tele.CallbackResponse{Text: "❌ Bad request data."})
	}

	fileRef, resp := b.lookupFileRef(c, course, topic, storage.KindPhoto)
	if resp != nil {
		return resp(c)
	}

	photo := &tele.Photo{
		File:    tele.File{FileID: fileRef},
		Caption: fmt.Sprintf("📸 Photo for %q (course %d)", topic, course),
	}
	if err := c.Send(photo); err != nil {
		logger.Error(ctx, "bot", "photo delivery failed", slog.Any("err", err))
		return c.Respond(&tele.CallbackResponse{Text: "⚠️ Failed to show the photo."})
	}
	return c.Respond()
}

// lookupFileRef resolves a file slot, returning either the reference or a
// ready callback response for the failure case.
func (b *Bot) lookupFileRef(c tele.Context, course int, topic string, kind storage.FileKind) (string, tele.HandlerFunc) {
	ctx := middleware.Ctx(c)
	lecture, err := b.store.Get(ctx, course, topic)
	if err != nil {
		logger.Error(ctx, "bot", "lecture lookup failed", slog.Any("err", err))
		return "", func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "⚠️ Failed to load the lecture."})
		}
	}
	if lecture == nil {
		return "", func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "❌ Lecture not found."})
		}
	}
	fileRef, ok := lecture.FileRef(kind)
	if !ok {
		return "", func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "❌ The file is missing."})
		}
	}
	return fileRef, nil
}
