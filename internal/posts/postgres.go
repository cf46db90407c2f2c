package posts

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"venturelens/internal/store"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, err
	}

	p := &Postgres{pool: pool}
	if err := p.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS published_posts (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			format TEXT NOT NULL DEFAULT '',
			published_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

func (p *Postgres) Publish(ctx context.Context, post store.PublishedPost) error {
	_, err := p.pool.Exec(
		ctx,
		`INSERT INTO published_posts (id, title, description, format, published_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		post.ID,
		post.Title,
		post.Description,
		post.Format,
		post.PublishedAt,
	)
	return err
}

func (p *Postgres) List(ctx context.Context, limit int) ([]store.PublishedPost, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.pool.Query(
		ctx,
		`SELECT id, title, description, format, published_at
		 FROM published_posts
		 ORDER BY published_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]store.PublishedPost, 0, limit)
	for rows.Next() {
		post := store.PublishedPost{}
		if err := rows.Scan(&post.ID, &post.Title, &post.Description, &post.Format, &post.PublishedAt); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (p *Postgres) Health(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}
