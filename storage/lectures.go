package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// FileKind identifies one of the four file slots a lecture can hold.
type FileKind string

const (
	KindAudio        FileKind = "audio"
	KindDocument     FileKind = "document"
	KindPresentation FileKind = "presentation"
	KindPhoto        FileKind = "photo"
)

// Kinds lists all file kinds in presentation order.
var Kinds = []FileKind{KindAudio, KindDocument, KindPresentation, KindPhoto}

// fileColumns maps a file kind to its table column. Serves as the whitelist
// for the dynamic column in UpdateFile.
var fileColumns = map[FileKind]string{
	KindAudio:        "audio_file_id",
	KindDocument:     "document_file_id",
	KindPresentation: "presentation_file_id",
	KindPhoto:        "photo_file_id",
}

// Valid reports whether k is one of the four known file kinds.
func (k FileKind) Valid() bool {
	_, ok := fileColumns[k]
	return ok
}

// Lecture is a stored lecture row. File references are opaque identifiers
// assigned by the transport provider.
type Lecture struct {
	Course       int            `db:"course"`
	Topic        string         `db:"topic"`
	Audio        sql.NullString `db:"audio_file_id"`
	Document     sql.NullString `db:"document_file_id"`
	Presentation sql.NullString `db:"presentation_file_id"`
	Photo        sql.NullString `db:"photo_file_id"`
}

// FileRef returns the stored reference for the given kind, if any.
func (l *Lecture) FileRef(kind FileKind) (string, bool) {
	var v sql.NullString
	switch kind {
	case KindAudio:
		v = l.Audio
	case KindDocument:
		v = l.Document
	case KindPresentation:
		v = l.Presentation
	case KindPhoto:
		v = l.Photo
	}
	return v.String, v.Valid && v.String != ""
}

// LectureStore persists lectures in the relational database.
type LectureStore struct {
	db *sqlx.DB
}

// NewLectureStore wraps the given database handle.
func NewLectureStore(db *sqlx.DB) *LectureStore {
	return &LectureStore{db: db}
}

// Exists reports whether a lecture with the given (course, topic) pair is stored.
func (s *LectureStore) Exists(ctx context.Context, course int, topic string) (bool, error) {
	var n int
	q := s.db.Rebind(`SELECT COUNT(*) FROM lectures WHERE course = ? AND topic = ?`)
	if err := s.db.GetContext(ctx, &n, q, course, topic); err != nil {
		return false, fmt.Errorf("lecture exists: %w", err)
	}
	return n > 0, nil
}

// Add creates a lecture with empty file slots.
// Returns ErrConflict when the (course, topic) pair is already taken; the
// uniqueness constraint on the table is the source of truth, callers merely
// pre-check with Exists for friendlier messages.
func (s *LectureStore) Add(ctx context.Context, course int, topic string) error {
	q := s.db.Rebind(`INSERT INTO lectures (course, topic) VALUES (?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, course, topic); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("add lecture: %w", err)
	}
	return nil
}

// UpdateFile upserts a single file slot; last write wins, other slots are untouched.
// Returns ErrNotFound when the lecture does not exist.
func (s *LectureStore) UpdateFile(ctx context.Context, course int, topic string, kind FileKind, fileRef string) error {
	column, ok := fileColumns[kind]
	if !ok {
		return fmt.Errorf("update lecture file: unknown kind %q", kind)
	}
	q := s.db.Rebind(fmt.Sprintf(`UPDATE lectures SET %s = ? WHERE course = ? AND topic = ?`, column))
	res, err := s.db.ExecContext(ctx, q, fileRef, course, topic)
	if err != nil {
		return fmt.Errorf("update lecture file: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lecture file: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the lecture row and all its file references.
// Deleting an absent lecture is not an error; the returned bool tells whether
// a row was actually removed.
func (s *LectureStore) Delete(ctx context.Context, course int, topic string) (bool, error) {
	q := s.db.Rebind(`DELETE FROM lectures WHERE course = ? AND topic = ?`)
	res, err := s.db.ExecContext(ctx, q, course, topic)
	if err != nil {
		return false, fmt.Errorf("delete lecture: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete lecture: %w", err)
	}
	return affected > 0, nil
}

// Get returns the lecture for (course, topic), or nil when absent.
func (s *LectureStore) Get(ctx context.Context, course int, topic string) (*Lecture, error) {
	var l Lecture
	q := s.db.Rebind(`SELECT * FROM lectures WHERE course = ? AND topic = ?`)
	if err := s.db.GetContext(ctx, &l, q, course, topic); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lecture: %w", err)
	}
	return &l, nil
}

// TopicsByCourse lists topic names for a course in lexical order.
// The ordering is stable across calls for a given table state.
func (s *LectureStore) TopicsByCourse(ctx context.Context, course int) ([]string, error) {
	var topics []string
	q := s.db.Rebind(`SELECT topic FROM lectures WHERE course = ? ORDER BY topic`)
	if err := s.db.SelectContext(ctx, &topics, q, course); err != nil {
		return nil, fmt.Errorf("topics by course: %w", err)
	}
	return topics, nil
}

// Courses lists the course numbers that have at least one topic, ascending.
func (s *LectureStore) Courses(ctx context.Context) ([]int, error) {
	var courses []int
	if err := s.db.SelectContext(ctx, &courses, `SELECT DISTINCT course FROM lectures ORDER BY course`); err != nil {
		return nil, fmt.Errorf("courses: %w", err)
	}
	return courses, nil
}

// All returns the full listing for administrative review, ordered by course then topic.
func (s *LectureStore) All(ctx context.Context) ([]Lecture, error) {
	var all []Lecture
	if err := s.db.SelectContext(ctx, &all, `SELECT * FROM lectures ORDER BY course, topic`); err != nil {
		return nil, fmt.Errorf("all lectures: %w", err)
	}
	return all, nil
}
