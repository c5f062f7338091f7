package bot

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"lectorium/core/telegram/keyboard"
	"lectorium/flow"
)

// Menu button labels. CoursePrefix doubles as a protocol marker: a text
// message starting with it is a course selection.
const (
	btnLectures   = "📚 Lectures"
	btnHelp       = "❓ Help"
	btnAbout      = "ℹ️ About"
	btnChat       = "🤖 AI Chat"
	btnAddLecture = "➕ Add lecture"
	btnAddFile    = "📁 Add file"
	btnDatabase   = "📊 Database"

	coursePrefix = "📘 Course "
)

func mainMenu(admin bool) *tele.ReplyMarkup {
	labels := []string{btnLectures, btnHelp, btnAbout, btnChat}
	if admin {
		labels = []string{btnLectures, btnAddLecture, btnAddFile, btnDatabase, btnHelp, btnChat}
	}
	return keyboard.ReplyButtons(keyboard.ChunkLabels(labels, 2)...)
}

func backMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{flow.BackLabel})
}

func coursesMenu(courses []int) *tele.ReplyMarkup {
	labels := make([]string, 0, len(courses))
	for _, course := range courses {
		labels = append(labels, coursePrefix+strconv.Itoa(course))
	}
	return keyboard.ReplyColumn(labels, flow.BackLabel)
}

func topicsMenu(topics []string) *tele.ReplyMarkup {
	labels := make([]string, 0, len(topics))
	for _, topic := range topics {
		labels = append(labels, flow.TopicPrefix+topic)
	}
	return keyboard.ReplyColumn(labels, flow.BackLabel)
}

func kindsMenu() *tele.ReplyMarkup {
	rows := keyboard.ChunkLabels(flow.KindLabels(), 2)
	rows = append(rows, []string{flow.BackLabel})
	return keyboard.ReplyButtons(rows...)
}

// parseCourseLabel extracts the course number from a "📘 Course N" button.
func parseCourseLabel(text string) (int, bool) {
	rest, ok := strings.CutPrefix(text, coursePrefix)
	if !ok {
		return 0, false
	}
	course, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return course, true
}

func welcomeText(admin bool) string {
	text := "👋 Welcome to the Lectorium bot!"
	if admin {
		text += "\n👨‍💼 Admin mode"
	}
	return text
}

func helpText() string {
	return fmt.Sprintf(
		"🤖 Lectorium bot — help\n\n"+
			"%s — browse lecture materials\n"+
			"%s — project information\n"+
			"%s — talk to the AI assistant\n\n"+
			"👨‍💼 For admins:\n%s\n%s\n%s",
		btnLectures, btnAbout, btnChat, btnAddLecture, btnAddFile, btnDatabase,
	)
}

func aboutText() string {
	return "🤖 Lectorium bot\nAccess to lectures and course materials, built for students."
}
