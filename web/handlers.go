package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lectorium/core/logger"
	"lectorium/storage"
)

// LectureReader is the read-side slice of the lecture store the API serves.
type LectureReader interface {
	Courses(ctx context.Context) ([]int, error)
	TopicsByCourse(ctx context.Context, course int) ([]string, error)
	Get(ctx context.Context, course int, topic string) (*storage.Lecture, error)
}

// FileSender delivers an opaque file reference to a Telegram user.
type FileSender interface {
	SendFile(ctx context.Context, recipient int64, fileRef string) error
}

type courseDTO struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

type fileDTO struct {
	Type    string `json:"type"`
	FileRef string `json:"fileRef"`
	Name    string `json:"name"`
}

type topicDTO struct {
	Course int       `json:"course"`
	Title  string    `json:"title"`
	Files  []fileDTO `json:"files"`
}

type fileRequest struct {
	RequesterID int64  `json:"requesterId"`
	FileRef     string `json:"fileRef"`
	AccessToken string `json:"accessToken"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

var kindDisplayNames = map[storage.FileKind]string{
	storage.KindAudio:        "Audio recording",
	storage.KindDocument:     "Document",
	storage.KindPresentation: "Presentation",
	storage.KindPhoto:        "Photo",
}

func (s *Server) handleCourses(c *gin.Context) {
	courses, err := s.store.Courses(c.Request.Context())
	if err != nil {
		logger.WEB.Error("courses lookup failed", slog.String("event", "web.courses"), slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, statusResponse{Status: "error", Message: "Internal error"})
		return
	}

	out := make([]courseDTO, 0, len(courses))
	for _, course := range courses {
		out = append(out, courseDTO{ID: course, Title: fmt.Sprintf("Course %d", course)})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleTopics(c *gin.Context) {
	course, err := strconv.Atoi(c.Param("courseId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, statusResponse{Status: "error", Message: "Bad course id"})
		return
	}

	ctx := c.Request.Context()
	topics, err := s.store.TopicsByCourse(ctx, course)
	if err != nil {
		logger.WEB.Error("topics lookup failed", slog.String("event", "web.topics"), slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, statusResponse{Status: "error", Message: "Internal error"})
		return
	}
	if len(topics) == 0 {
		c.JSON(http.StatusNotFound, statusResponse{Status: "error", Message: "Course not found or empty"})
		return
	}

	out := make([]topicDTO, 0, len(topics))
	for _, topic := range topics {
		lecture, err := s.store.Get(ctx, course, topic)
		if err != nil {
			logger.WEB.Error("lecture lookup failed", slog.String("event", "web.topics"), slog.Any("err", err))
			c.JSON(http.StatusInternalServerError, statusResponse{Status: "error", Message: "Internal error"})
			return
		}
		if lecture == nil {
			continue
		}

		files := make([]fileDTO, 0, len(storage.Kinds))
		for _, kind := range storage.Kinds {
			if fileRef, ok := lecture.FileRef(kind); ok {
				files = append(files, fileDTO{Type: string(kind), FileRef: fileRef, Name: kindDisplayNames[kind]})
			}
		}
		out = append(out, topicDTO{Course: course, Title: topic, Files: files})
	}
	c.JSON(http.StatusOK, out)
}

// handleRequestFile delivers a file to the requester's Telegram chat. Checks
// run in order: access token, then cooldown, then delivery. Delivery failure
// is reported as an opaque server error and is not retried.
func (s *Server) handleRequestFile(c *gin.Context) {
	var req fileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, statusResponse{Status: "error", Message: "Bad request body"})
		return
	}

	if s.accessToken == "" || req.AccessToken != s.accessToken {
		c.JSON(http.StatusForbidden, statusResponse{Status: "error", Message: "Invalid access token"})
		return
	}

	if !s.limiter.Allow(req.RequesterID) {
		c.JSON(http.StatusTooManyRequests, statusResponse{Status: "error", Message: "Too many requests. Wait a couple of seconds."})
		return
	}

	if err := s.sender.SendFile(c.Request.Context(), req.RequesterID, req.FileRef); err != nil {
		logger.WEB.Error("file delivery failed",
			slog.String("event", "web.request_file"),
			slog.Int64("requester_id", req.RequesterID),
			slog.Any("err", err),
		)
		c.JSON(http.StatusInternalServerError, statusResponse{Status: "error", Message: "Failed to send the file"})
		return
	}

	logger.WEB.Info("file delivered",
		slog.String("event", "web.request_file"),
		slog.Int64("requester_id", req.RequesterID),
	)
	c.JSON(http.StatusOK, statusResponse{Status: "ok", Message: "File sent to your chat"})
}
