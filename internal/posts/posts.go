package posts

import (
	"context"
	"sync"

	"venturelens/internal/store"
)

// Repository persists the publish list across restarts.
type Repository interface {
	Publish(ctx context.Context, post store.PublishedPost) error
	List(ctx context.Context, limit int) ([]store.PublishedPost, error)
	Close()
}

// MemoryRepository is the fallback when no database is configured.
type MemoryRepository struct {
	mu    sync.Mutex
	posts []store.PublishedPost
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Publish(_ context.Context, post store.PublishedPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, post)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, limit int) ([]store.PublishedPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Newest first, matching the database ordering.
	out := make([]store.PublishedPost, 0, len(r.posts))
	for i := len(r.posts) - 1; i >= 0; i-- {
		out = append(out, r.posts[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryRepository) Close() {}
