package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lectorium/core/config"
	"lectorium/storage"
)

type fakeReader struct {
	courses  []int
	topics   map[int][]string
	lectures map[string]*storage.Lecture
}

func (f *fakeReader) Courses(ctx context.Context) ([]int, error) {
	return f.courses, nil
}

func (f *fakeReader) TopicsByCourse(ctx context.Context, course int) ([]string, error) {
	return f.topics[course], nil
}

func (f *fakeReader) Get(ctx context.Context, course int, topic string) (*storage.Lecture, error) {
	return f.lectures[topic], nil
}

type fakeSender struct {
	calls int
	err   error
}

func (f *fakeSender) SendFile(ctx context.Context, recipient int64, fileRef string) error {
	f.calls++
	return f.err
}

func lectureWith(course int, topic, audioRef string) *storage.Lecture {
	lec := &storage.Lecture{Course: course, Topic: topic}
	if audioRef != "" {
		lec.Audio.String = audioRef
		lec.Audio.Valid = true
	}
	return lec
}

func newTestServer(t *testing.T, sender FileSender) *Server {
	t.Helper()
	reader := &fakeReader{
		courses: []int{1, 2},
		topics:  map[int][]string{2: {"Networks"}},
		lectures: map[string]*storage.Lecture{
			"Networks": lectureWith(2, "Networks", "A1"),
		},
	}
	cfg := config.WebConfig{
		Listen:          ":0",
		AccessToken:     "secret",
		CooldownSeconds: 2,
	}
	return New(cfg, "prod", reader, sender)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCoursesListing(t *testing.T) {
	srv := newTestServer(t, &fakeSender{})
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/courses", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var courses []courseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &courses); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(courses) != 2 || courses[0].ID != 1 || courses[1].Title != "Course 2" {
		t.Fatalf("unexpected payload: %+v", courses)
	}
}

func TestTopicsEmptyCourseIs404(t *testing.T) {
	srv := newTestServer(t, &fakeSender{})
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/topics/3", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestTopicsCarryFiles(t *testing.T) {
	srv := newTestServer(t, &fakeSender{})
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/topics/2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var topics []topicDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &topics); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(topics) != 1 || topics[0].Title != "Networks" {
		t.Fatalf("unexpected payload: %+v", topics)
	}
	files := topics[0].Files
	if len(files) != 1 || files[0].Type != "audio" || files[0].FileRef != "A1" {
		t.Fatalf("unexpected files: %+v", files)
	}
}

func TestRequestFileBadTokenIs403(t *testing.T) {
	sender := &fakeSender{}
	srv := newTestServer(t, sender)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/requestFile",
		fileRequest{RequesterID: 10, FileRef: "A1", AccessToken: "wrong"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if sender.calls != 0 {
		t.Fatal("delivery attempted with a bad token")
	}
}

func TestRequestFileCooldownScenario(t *testing.T) {
	sender := &fakeSender{}
	srv := newTestServer(t, sender)

	now := time.Unix(1000, 0)
	srv.limiter.now = func() time.Time { return now }

	req := fileRequest{RequesterID: 10, FileRef: "A1", AccessToken: "secret"}

	if rec := doJSON(t, srv.Handler(), http.MethodPost, "/requestFile", req); rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d", rec.Code)
	}
	if rec := doJSON(t, srv.Handler(), http.MethodPost, "/requestFile", req); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request within cooldown: status = %d", rec.Code)
	}

	now = now.Add(3 * time.Second)
	if rec := doJSON(t, srv.Handler(), http.MethodPost, "/requestFile", req); rec.Code != http.StatusOK {
		t.Fatalf("request after cooldown: status = %d", rec.Code)
	}
	if sender.calls != 2 {
		t.Fatalf("delivery calls = %d, want 2", sender.calls)
	}
}

func TestRequestFileDeliveryFailureIs500(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram down")}
	srv := newTestServer(t, sender)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/requestFile",
		fileRequest{RequesterID: 11, FileRef: "A1", AccessToken: "secret"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "error" {
		t.Fatalf("status field = %q", resp.Status)
	}
}
