package memory

import (
	"context"
	"sort"
	"sync"

	"blogapi/domain/entities"
	"blogapi/domain/services"

	"github.com/google/uuid"
)

type Storage struct {
	mu    sync.RWMutex
	posts map[string]entities.Post
}

func NewStorage() *Storage {
	return &Storage{
		posts: map[string]entities.Post{},
	}
}

func (s *Storage) Insert(_ context.Context, post *entities.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post.Id = uuid.NewString()
	s.posts[post.Id] = *post
	return nil
}

func (s *Storage) FindByID(_ context.Context, id string) (*entities.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found, ok := s.posts[id]
	if !ok {
		return nil, services.ErrNonExistentData
	}
	return &found, nil
}

func (s *Storage) FindAll(_ context.Context) ([]entities.Post, error) {
	s.mu.RLock()
	posts := make([]entities.Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, p)
	}
	s.mu.RUnlock()

	sort.Slice(posts, func(i, j int) bool {
		if posts[i].Created.Equal(posts[j].Created) {
			return posts[i].Id < posts[j].Id
		}
		return posts[i].Created.Before(posts[j].Created)
	})
	return posts, nil
}

func (s *Storage) UpdateByID(_ context.Context, id string, patch entities.PostPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found, ok := s.posts[id]
	if !ok {
		return services.ErrNonExistentData
	}
	patch.Apply(&found)
	s.posts[id] = found
	return nil
}

func (s *Storage) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return services.ErrNonExistentData
	}
	delete(s.posts, id)
	return nil
}

func (s *Storage) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.posts)), nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return ctx.Err()
}
