// Package flow implements the multi-step admin conversations: adding a
// lecture and attaching a file to one. Each step validates a typed input and
// either advances the session, retries in place, or aborts back to idle.
package flow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"lectorium/storage"
)

// Course numbers form a closed range.
const (
	CourseMin = 1
	CourseMax = 4
)

// Protocol markers shared with the bot surface. BackLabel cancels any flow
// unconditionally; TopicPrefix distinguishes a topic selection from free text.
const (
	BackLabel   = "🔙 Back"
	TopicPrefix = "🔖 "
)

// Store is the slice of the lecture store the conversations need.
type Store interface {
	Exists(ctx context.Context, course int, topic string) (bool, error)
	Add(ctx context.Context, course int, topic string) error
	UpdateFile(ctx context.Context, course int, topic string, kind storage.FileKind, fileRef string) error
	TopicsByCourse(ctx context.Context, course int) ([]string, error)
}

// Photo is one resolution variant of an uploaded image.
type Photo struct {
	Ref    string
	Width  int
	Height int
}

// Input is a typed view of one incoming user event. Attachment fields carry
// opaque provider file references and are empty when absent.
type Input struct {
	Text     string
	Audio    string
	Voice    string
	Document string
	Photos   []Photo
}

// Screen tells the presentation layer which keyboard to show next.
type Screen int

const (
	// ScreenNone keeps the current keyboard (retry in place).
	ScreenNone Screen = iota
	// ScreenMenu returns to the top-level menu.
	ScreenMenu
	// ScreenBack shows only the cancel button.
	ScreenBack
	// ScreenTopics shows the topic selection for Outcome.Topics.
	ScreenTopics
	// ScreenKinds shows the four file kind buttons.
	ScreenKinds
)

// Outcome describes what to tell the user after processing a step.
type Outcome struct {
	Text   string
	Screen Screen
	Topics []string
	// Done reports that the flow ended (completed or aborted) and the
	// session was discarded.
	Done bool
}

var kindByLabel = map[string]storage.FileKind{
	"🎧 Audio (mp3)":  storage.KindAudio,
	"📄 Document":     storage.KindDocument,
	"📊 Presentation": storage.KindPresentation,
	"🖼 Photo":        storage.KindPhoto,
}

// KindLabels lists the file kind button labels in presentation order.
func KindLabels() []string {
	return []string{"🎧 Audio (mp3)", "📄 Document", "📊 Presentation", "🖼 Photo"}
}

// Machine drives the admin conversations against the lecture store.
type Machine struct {
	store    Store
	sessions *Sessions
}

// NewMachine builds a Machine on the given store and session manager.
func NewMachine(store Store, sessions *Sessions) *Machine {
	return &Machine{store: store, sessions: sessions}
}

// Sessions exposes the underlying session manager.
func (m *Machine) Sessions() *Sessions {
	return m.sessions
}

// StartAddLecture begins the add-lecture flow for key.
func (m *Machine) StartAddLecture(key Key) Outcome {
	m.sessions.Begin(key, FlowAddLecture, StepEnteringCourse)
	return Outcome{
		Text:   fmt.Sprintf("Enter the course number (%d–%d):", CourseMin, CourseMax),
		Screen: ScreenBack,
	}
}

// StartAddFile begins the add-file flow for key.
func (m *Machine) StartAddFile(key Key) Outcome {
	m.sessions.Begin(key, FlowAddFile, StepEnteringCourse)
	return Outcome{
		Text:   fmt.Sprintf("Enter the course number (%d–%d):", CourseMin, CourseMax),
		Screen: ScreenBack,
	}
}

// Active reports whether key is inside an admin flow.
func (m *Machine) Active(key Key) bool {
	flow := m.sessions.ActiveFlow(key)
	return flow == FlowAddLecture || flow == FlowAddFile
}

// Cancel discards the session for key unconditionally.
func (m *Machine) Cancel(key Key) {
	m.sessions.Clear(key)
}

// Handle processes one input for the current step. A returned error means an
// internal failure; the session is already discarded and the Outcome carries
// a generic notice, so the caller only needs to log and render.
func (m *Machine) Handle(ctx context.Context, key Key, in Input) (Outcome, error) {
	sess, ok := m.sessions.Get(key)
	if !ok {
		return m.abort(key, errors.New("flow: no active session"))
	}

	switch sess.Step {
	case StepEnteringCourse:
		return m.handleCourse(ctx, key, sess, in)
	case StepEnteringTopic:
		return m.handleTopic(ctx, key, sess, in)
	case StepChoosingTopic:
		return m.handleChooseTopic(ctx, key, sess, in)
	case StepChoosingFileKind:
		return m.handleChooseKind(key, sess, in)
	case StepAwaitingUpload:
		return m.handleUpload(ctx, key, sess, in)
	default:
		return m.abort(key, fmt.Errorf("flow: malformed session step %d", sess.Step))
	}
}

func (m *Machine) handleCourse(ctx context.Context, key Key, sess Session, in Input) (Outcome, error) {
	course, err := strconv.Atoi(strings.TrimSpace(in.Text))
	if err != nil || course < CourseMin || course > CourseMax {
		return Outcome{
			Text: fmt.Sprintf("❌ The course number must be between %d and %d. Enter the course number:", CourseMin, CourseMax),
		}, nil
	}

	sess.Course = course

	if sess.Flow == FlowAddLecture {
		sess.Step = StepEnteringTopic
		m.sessions.Put(key, sess)
		return Outcome{
			Text:   fmt.Sprintf("Enter the topic name for course %d:", course),
			Screen: ScreenBack,
		}, nil
	}

	topics, err := m.store.TopicsByCourse(ctx, course)
	if err != nil {
		return m.abort(key, err)
	}
	if len(topics) == 0 {
		m.sessions.Clear(key)
		return Outcome{
			Text:   "📭 This course has no lectures yet. Add a lecture first.",
			Screen: ScreenMenu,
			Done:   true,
		}, nil
	}

	sess.Step = StepChoosingTopic
	m.sessions.Put(key, sess)
	return Outcome{Text: "Choose a topic:", Screen: ScreenTopics, Topics: topics}, nil
}

func (m *Machine) handleTopic(ctx context.Context, key Key, sess Session, in Input) (Outcome, error) {
	topic := strings.TrimSpace(in.Text)
	if topic == "" {
		return Outcome{Text: "❌ The topic name cannot be empty. Enter the topic name:"}, nil
	}

	exists, err := m.store.Exists(ctx, sess.Course, topic)
	if err != nil {
		return m.abort(key, err)
	}
	if exists {
		// Re-entering the same name would only repeat the conflict, so the
		// flow terminates instead of retrying.
		m.sessions.Clear(key)
		return Outcome{Text: "❌ A lecture with this topic already exists.", Screen: ScreenMenu, Done: true}, nil
	}

	if err := m.store.Add(ctx, sess.Course, topic); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			m.sessions.Clear(key)
			return Outcome{Text: "❌ A lecture with this topic already exists.", Screen: ScreenMenu, Done: true}, nil
		}
		return m.abort(key, err)
	}

	m.sessions.Clear(key)
	return Outcome{
		Text:   fmt.Sprintf("✅ Lecture %q added to course %d.", topic, sess.Course),
		Screen: ScreenMenu,
		Done:   true,
	}, nil
}

func (m *Machine) handleChooseTopic(ctx context.Context, key Key, sess Session, in Input) (Outcome, error) {
	if !strings.HasPrefix(in.Text, TopicPrefix) {
		return Outcome{Text: fmt.Sprintf("❌ Pick a topic from the list or press %q.", BackLabel)}, nil
	}
	topic := strings.TrimSpace(strings.TrimPrefix(in.Text, TopicPrefix))

	exists, err := m.store.Exists(ctx, sess.Course, topic)
	if err != nil {
		return m.abort(key, err)
	}
	if !exists {
		return Outcome{Text: fmt.Sprintf("❌ Pick a topic from the list or press %q.", BackLabel)}, nil
	}

	sess.Topic = topic
	sess.Step = StepChoosingFileKind
	m.sessions.Put(key, sess)
	return Outcome{Text: "Choose the file type to upload:", Screen: ScreenKinds}, nil
}

func (m *Machine) handleChooseKind(key Key, sess Session, in Input) (Outcome, error) {
	kind, ok := kindByLabel[in.Text]
	if !ok {
		return Outcome{Text: "❌ Choose a file type from the menu first."}, nil
	}

	sess.Kind = kind
	sess.Step = StepAwaitingUpload
	m.sessions.Put(key, sess)
	return Outcome{
		Text:   "Now send the file itself. For audio, send it as an audio track or a voice message.",
		Screen: ScreenBack,
	}, nil
}

func (m *Machine) handleUpload(ctx context.Context, key Key, sess Session, in Input) (Outcome, error) {
	fileRef, ok := in.fileRefFor(sess.Kind)
	if !ok {
		return Outcome{
			Text: fmt.Sprintf("❌ Expected a %s attachment. Send the file or press %q.", kindNoun(sess.Kind), BackLabel),
		}, nil
	}

	if err := m.store.UpdateFile(ctx, sess.Course, sess.Topic, sess.Kind, fileRef); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted by another admin between steps; surfaces at commit time.
			m.sessions.Clear(key)
			return Outcome{Text: "❌ The lecture no longer exists.", Screen: ScreenMenu, Done: true}, nil
		}
		return m.abort(key, err)
	}

	m.sessions.Clear(key)
	return Outcome{
		Text:   fmt.Sprintf("✅ File (%s) attached to lecture %q, course %d.", kindNoun(sess.Kind), sess.Topic, sess.Course),
		Screen: ScreenMenu,
		Done:   true,
	}, nil
}

// abort discards the session and reports a generic failure; the error is
// returned for logging at the transport boundary.
func (m *Machine) abort(key Key, err error) (Outcome, error) {
	m.sessions.Clear(key)
	return Outcome{
		Text:   "⚠️ Something went wrong. Returning to the main menu.",
		Screen: ScreenMenu,
		Done:   true,
	}, err
}

// fileRefFor extracts the attachment reference matching the chosen kind.
// Audio accepts either an audio track or a voice note; document and
// presentation both ride on a generic document; photo picks the variant with
// the largest dimensions.
func (in Input) fileRefFor(kind storage.FileKind) (string, bool) {
	switch kind {
	case storage.KindAudio:
		if in.Audio != "" {
			return in.Audio, true
		}
		if in.Voice != "" {
			return in.Voice, true
		}
	case storage.KindDocument, storage.KindPresentation:
		if in.Document != "" {
			return in.Document, true
		}
	case storage.KindPhoto:
		if p, ok := largestPhoto(in.Photos); ok {
			return p.Ref, true
		}
	}
	return "", false
}

func largestPhoto(photos []Photo) (Photo, bool) {
	var best Photo
	found := false
	for _, p := range photos {
		if p.Ref == "" {
			continue
		}
		if !found || p.Width*p.Height > best.Width*best.Height {
			best = p
			found = true
		}
	}
	return best, found
}

func kindNoun(kind storage.FileKind) string {
	switch kind {
	case storage.KindAudio:
		return "audio"
	case storage.KindDocument:
		return "document"
	case storage.KindPresentation:
		return "presentation"
	case storage.KindPhoto:
		return "photo"
	default:
		return string(kind)
	}
}
