package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"blogapi/domain/entities"
	"blogapi/domain/services"
	"blogapi/logging"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	router "github.com/xandalm/go-router"
)

// PostService is the post resource the server exposes.
type PostService interface {
	List(ctx context.Context) ([]entities.Post, error)
	Get(ctx context.Context, id string) (*entities.Post, error)
	Create(ctx context.Context, req services.CreatePostRequest) (*entities.Post, error)
	Update(ctx context.Context, id string, req services.UpdatePostRequest) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

type Error struct {
	Message string   `json:"message,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

func NewError(message string) *Error {
	return &Error{
		Message: message,
	}
}

type ErrorModel struct {
	Error *Error `json:"error"`
}

// PostModel is the read representation of a post.
type PostModel struct {
	Id      string    `json:"id"`
	Author  string    `json:"author"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Created time.Time `json:"created"`
}

func NewPostModel(p entities.Post) PostModel {
	return PostModel{
		Id:      p.Id,
		Author:  p.Author.Name(),
		Title:   p.Title,
		Content: p.Content,
		Created: p.Created,
	}
}

type HealthModel struct {
	Status string `json:"status"`
	Posts  int64  `json:"posts"`
}

const (
	ErrPostNotFoundMessage     = "there is no such post here"
	ErrUnsupportedPostMessage  = "unsupported data to parse into post"
	ErrStoreUnavailableMessage = "post store is unavailable, try again later"
	ErrInternalMessage         = "something went wrong"
	ErrRequestTimeoutMessage   = "request took too long"
)

const (
	RequestIDHeader       = "X-Request-ID"
	maxBodyBytes          = 1 << 20
	defaultRequestTimeout = 10 * time.Second
	minRequestTimeout     = time.Second
)

type Server struct {
	posts  PostService
	router *router.Router
	log    *logrus.Logger
	to     time.Duration
}

func NewServer(posts PostService, log *logrus.Logger) *Server {
	s := &Server{
		posts:  posts,
		router: &router.Router{},
		log:    log,
		to:     defaultRequestTimeout,
	}

	s.router.GetFunc("/posts/{id}", s.getPostHandler)
	s.router.PutFunc("/posts/{id}", s.editPostHandler)
	s.router.DeleteFunc("/posts/{id}", s.deletePostHandler)
	s.router.GetFunc("/posts", s.getPostsHandler)
	s.router.PostFunc("/posts", s.storePostHandler)

	s.router.GetFunc("/health", s.healthHandler)

	return s
}

func (s *Server) SetTimeout(duration time.Duration) error {
	if duration < minRequestTimeout {
		return errors.New("timeout duration must be greater than 1s")
	}
	s.to = duration
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, requestID)

	entry := s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"method":     r.Method,
		"path":       r.URL.Path,
	})

	ctx, cancel := context.WithTimeout(r.Context(), s.to)
	defer cancel()
	r = r.WithContext(logging.WithEntry(ctx, entry))

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		if v := recover(); v != nil {
			entry.WithField("panic", v).Error("handler panicked")
			if !rec.wrote {
				writeJSON(rec, http.StatusInternalServerError, ErrorModel{NewError(ErrInternalMessage)})
			}
		}
		entry.WithFields(logrus.Fields{
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("HTTP request")
	}()

	s.router.ServeHTTP(rec, r)
}

func (s *Server) storePostHandler(w router.ResponseWriter, r *router.Request) {
	var req services.CreatePostRequest
	if err := decodeBody(r.Body, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	post, err := s.posts.Create(r.Context(), req)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	logging.FromContext(r.Context()).WithField("id", post.Id).Info("post created")
	writeJSON(w, http.StatusCreated, NewPostModel(*post))
}

func (s *Server) getPostsHandler(w router.ResponseWriter, r *router.Request) {
	posts, err := s.posts.List(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	models := make([]PostModel, 0, len(posts))
	for _, p := range posts {
		models = append(models, NewPostModel(p))
	}
	writeJSON(w, http.StatusOK, models)
}

func (s *Server) getPostHandler(w router.ResponseWriter, r *router.Request) {
	postId := r.Params()["id"]

	post, err := s.posts.Get(r.Context(), postId)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewPostModel(*post))
}

func (s *Server) editPostHandler(w router.ResponseWriter, r *router.Request) {
	postId := r.Params()["id"]

	var req services.UpdatePostRequest
	if err := decodeBody(r.Body, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	if err := s.posts.Update(r.Context(), postId, req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	logging.FromContext(r.Context()).WithField("id", postId).Info("post updated")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deletePostHandler(w router.ResponseWriter, r *router.Request) {
	postId := r.Params()["id"]

	if err := s.posts.Delete(r.Context(), postId); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	logging.FromContext(r.Context()).WithField("id", postId).Info("post deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) healthHandler(w router.ResponseWriter, r *router.Request) {
	if err := s.posts.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).WithError(err).Warn("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, HealthModel{Status: "unavailable"})
		return
	}

	n, err := s.posts.Count(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).Warn("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, HealthModel{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, HealthModel{Status: "healthy", Posts: n})
}

type malformedBodyError struct{ err error }

func (e *malformedBodyError) Error() string { return "malformed body: " + e.err.Error() }
func (e *malformedBodyError) Unwrap() error { return e.err }

func decodeBody(body io.Reader, v any) error {
	if body == nil {
		return &malformedBodyError{io.EOF}
	}
	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return &malformedBodyError{err}
	}
	// the body must hold exactly one JSON value
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after JSON value")
		}
		return &malformedBodyError{err}
	}
	return nil
}

// writeError maps an error to its status and body and logs it at a matching level.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	entry := logging.FromContext(ctx).WithError(err)

	var (
		malformed  *malformedBodyError
		validation *services.ValidationError
	)
	switch {
	case errors.As(err, &malformed):
		entry.Warn("invalid request")
		writeJSON(w, http.StatusBadRequest, ErrorModel{NewError(ErrUnsupportedPostMessage)})
	case errors.As(err, &validation):
		entry.Warn("invalid request")
		writeJSON(w, http.StatusBadRequest, ErrorModel{&Error{Message: validation.Message, Fields: validation.Fields}})
	case errors.Is(err, services.ErrPostNotFound):
		entry.Info("post not found")
		writeJSON(w, http.StatusNotFound, ErrorModel{NewError(ErrPostNotFoundMessage)})
	case errors.Is(err, services.ErrStoreUnavailable):
		entry.Error("post store unavailable")
		writeJSON(w, http.StatusServiceUnavailable, ErrorModel{NewError(ErrStoreUnavailableMessage)})
	case errors.Is(err, context.DeadlineExceeded):
		entry.Error("request timed out")
		writeJSON(w, http.StatusServiceUnavailable, ErrorModel{NewError(ErrRequestTimeoutMessage)})
	default:
		entry.Error("request failed")
		writeJSON(w, http.StatusInternalServerError, ErrorModel{NewError(ErrInternalMessage)})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.wrote {
		return
	}
	r.status = code
	r.wrote = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wrote {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}
