package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const testSchema = `
CREATE TABLE lectures (
    course INTEGER NOT NULL,
    topic TEXT NOT NULL,
    audio_file_id TEXT,
    document_file_id TEXT,
    presentation_file_id TEXT,
    photo_file_id TEXT,
    PRIMARY KEY (course, topic)
);`

func newTestStore(t *testing.T) *LectureStore {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return NewLectureStore(db)
}

func TestAddRejectsDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Add(ctx, 1, "Signals"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := s.Add(ctx, 1, "Signals"); !errors.Is(err, ErrConflict) {
		t.Fatalf("second add = %v, want ErrConflict", err)
	}

	// State after both calls equals state after the first alone.
	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 row, got %d", len(all))
	}

	// The same topic is still free in another course.
	if err := s.Add(ctx, 2, "Signals"); err != nil {
		t.Fatalf("add in other course: %v", err)
	}
}

func TestUpdateFileLastWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Add(ctx, 3, "Graphs"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.UpdateFile(ctx, 3, "Graphs", KindAudio, "A1"); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := s.UpdateFile(ctx, 3, "Graphs", KindAudio, "A2"); err != nil {
		t.Fatalf("second update: %v", err)
	}

	l, err := s.Get(ctx, 3, "Graphs")
	if err != nil || l == nil {
		t.Fatalf("get: %v %v", l, err)
	}
	if ref, ok := l.FileRef(KindAudio); !ok || ref != "A2" {
		t.Fatalf("audio ref = %q (%v), want A2", ref, ok)
	}
	for _, kind := range []FileKind{KindDocument, KindPresentation, KindPhoto} {
		if _, ok := l.FileRef(kind); ok {
			t.Errorf("kind %s unexpectedly set", kind)
		}
	}
}

func TestUpdateFileMissingLecture(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateFile(context.Background(), 1, "Nope", KindDocument, "D1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("update on missing lecture = %v, want ErrNotFound", err)
	}
}

func TestDeleteTargetsSingleRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, topic := range []string{"Alpha", "Beta"} {
		if err := s.Add(ctx, 1, topic); err != nil {
			t.Fatalf("add %s: %v", topic, err)
		}
	}
	if err := s.Add(ctx, 2, "Alpha"); err != nil {
		t.Fatalf("add: %v", err)
	}

	deleted, err := s.Delete(ctx, 1, "Alpha")
	if err != nil || !deleted {
		t.Fatalf("delete = %v %v, want true nil", deleted, err)
	}

	// Deleting again degrades to a no-op, data is not resurrected.
	deleted, err = s.Delete(ctx, 1, "Alpha")
	if err != nil || deleted {
		t.Fatalf("repeat delete = %v %v, want false nil", deleted, err)
	}

	topics, err := s.TopicsByCourse(ctx, 1)
	if err != nil {
		t.Fatalf("topics: %v", err)
	}
	if !reflect.DeepEqual(topics, []string{"Beta"}) {
		t.Fatalf("course 1 topics = %v", topics)
	}
	if ok, _ := s.Exists(ctx, 2, "Alpha"); !ok {
		t.Fatal("course 2 row must be untouched")
	}
}

func TestTopicsOrderingStable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, topic := range []string{"Zeta", "Alpha", "Mid"} {
		if err := s.Add(ctx, 4, topic); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	want := []string{"Alpha", "Mid", "Zeta"}
	for i := 0; i < 3; i++ {
		topics, err := s.TopicsByCourse(ctx, 4)
		if err != nil {
			t.Fatalf("topics: %v", err)
		}
		if !reflect.DeepEqual(topics, want) {
			t.Fatalf("call %d: topics = %v, want %v", i, topics, want)
		}
	}
}

func TestCoursesOnlyNonEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Add(ctx, 3, "One"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(ctx, 1, "Two"); err != nil {
		t.Fatalf("add: %v", err)
	}

	courses, err := s.Courses(ctx)
	if err != nil {
		t.Fatalf("courses: %v", err)
	}
	if !reflect.DeepEqual(courses, []int{1, 3}) {
		t.Fatalf("courses = %v, want [1 3]", courses)
	}
}

func TestLectureLifecycleScenario(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Add(ctx, 2, "Networks"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.UpdateFile(ctx, 2, "Networks", KindAudio, "A1"); err != nil {
		t.Fatalf("audio: %v", err)
	}
	if err := s.UpdateFile(ctx, 2, "Networks", KindDocument, "D1"); err != nil {
		t.Fatalf("document: %v", err)
	}

	l, err := s.Get(ctx, 2, "Networks")
	if err != nil || l == nil {
		t.Fatalf("get: %v %v", l, err)
	}
	if ref, _ := l.FileRef(KindAudio); ref != "A1" {
		t.Errorf("audio = %q", ref)
	}
	if ref, _ := l.FileRef(KindDocument); ref != "D1" {
		t.Errorf("document = %q", ref)
	}
	if _, ok := l.FileRef(KindPhoto); ok {
		t.Error("photo should be absent")
	}
	if _, ok := l.FileRef(KindPresentation); ok {
		t.Error("presentation should be absent")
	}

	if _, err := s.Delete(ctx, 2, "Networks"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := s.Exists(ctx, 2, "Networks"); ok {
		t.Error("lecture should no longer exist")
	}
	topics, _ := s.TopicsByCourse(ctx, 2)
	for _, topic := range topics {
		if topic == "Networks" {
			t.Error("deleted topic still listed")
		}
	}
}

func TestGetAbsentReturnsNil(t *testing.T) {
	s := newTestStore(t)
	l, err := s.Get(context.Background(), 1, "Ghost")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if l != nil {
		t.Fatalf("expected nil lecture, got %+v", l)
	}
}
