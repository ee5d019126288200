package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"blogapi/domain/entities"

	"github.com/go-playground/validator/v10"
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrStoreUnavailable = errors.New("post store unavailable")
)

// ValidationError reports the request fields that were missing or invalid.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

type AuthorRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

type CreatePostRequest struct {
	Author  AuthorRequest `json:"author"`
	Title   string        `json:"title" validate:"required"`
	Content string        `json:"content" validate:"required"`
}

// UpdatePostRequest carries the fields to change. Id is optional and, when set,
// must name the same post as the request path.
type UpdatePostRequest struct {
	Id      string  `json:"id"`
	Title   *string `json:"title" validate:"omitnil,min=1"`
	Content *string `json:"content" validate:"omitnil,min=1"`
}

const DefaultStoreTimeout = 5 * time.Second

// Posts is the post resource: every operation is one bounded call to the storage.
type Posts struct {
	storage  Storage
	timeout  time.Duration
	validate *validator.Validate
	now      func() time.Time
}

func NewPosts(storage Storage, timeout time.Duration) *Posts {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Posts{
		storage:  storage,
		timeout:  timeout,
		validate: v,
		now:      time.Now,
	}
}

func (p *Posts) List(ctx context.Context) ([]entities.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	posts, err := p.storage.FindAll(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	if posts == nil {
		posts = []entities.Post{}
	}
	return posts, nil
}

func (p *Posts) Get(ctx context.Context, id string) (*entities.Post, error) {
	if id == "" {
		return nil, ErrPostNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	post, err := p.storage.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return post, nil
}

func (p *Posts) Create(ctx context.Context, req CreatePostRequest) (*entities.Post, error) {
	if err := p.check(req, "missing post fields"); err != nil {
		return nil, err
	}

	post := entities.NewPost(
		entities.Author{FirstName: req.Author.FirstName, LastName: req.Author.LastName},
		req.Title,
		req.Content,
	)
	// stores keep millisecond precision
	post.Created = p.now().UTC().Truncate(time.Millisecond)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.storage.Insert(ctx, post); err != nil {
		return nil, storeError(err)
	}
	return post, nil
}

func (p *Posts) Update(ctx context.Context, id string, req UpdatePostRequest) error {
	if req.Id != "" && req.Id != id {
		return &ValidationError{
			Message: fmt.Sprintf("request path id (%s) and request body id (%s) must match", id, req.Id),
			Fields:  []string{"id"},
		}
	}
	if err := p.check(req, "invalid post fields"); err != nil {
		return err
	}
	if id == "" {
		return ErrPostNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	patch := entities.PostPatch{Title: req.Title, Content: req.Content}
	if err := p.storage.UpdateByID(ctx, id, patch); err != nil {
		return storeError(err)
	}
	return nil
}

func (p *Posts) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrPostNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.storage.DeleteByID(ctx, id); err != nil {
		return storeError(err)
	}
	return nil
}

func (p *Posts) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	n, err := p.storage.Count(ctx)
	if err != nil {
		return 0, storeError(err)
	}
	return n, nil
}

// Ping reports whether the storage backend is reachable.
func (p *Posts) Ping(ctx context.Context) error {
	pinger, ok := p.storage.(Pinger)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := pinger.Ping(ctx); err != nil {
		return storeError(err)
	}
	return nil
}

func (p *Posts) check(req any, message string) error {
	err := p.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Message: err.Error()}
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		// drop the struct name, keep the json path
		_, path, _ := strings.Cut(fe.Namespace(), ".")
		fields = append(fields, path)
	}
	return &ValidationError{Message: message, Fields: fields}
}

func storeError(err error) error {
	switch {
	case errors.Is(err, ErrNonExistentData):
		return ErrPostNotFound
	case errors.Is(err, ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
