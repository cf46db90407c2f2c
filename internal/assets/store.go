package assets

import (
	"context"
	"encoding/base64"
	"fmt"
)

// Store persists generated media and returns the URL the job should
// carry. Implementations decide whether that URL is self-contained or
// points back at the asset-serving endpoint.
type Store interface {
	StoreImage(ctx context.Context, assetID string, data []byte) (string, error)
	LoadImage(ctx context.Context, assetID string) ([]byte, string, error)
	Close() error
}

// InlineStore is the fallback when no object storage is configured:
// images are handed back as data URLs and never persisted. Suitable for
// development only; a restart loses everything.
type InlineStore struct{}

func NewInlineStore() *InlineStore {
	return &InlineStore{}
}

func (s *InlineStore) StoreImage(_ context.Context, _ string, data []byte) (string, error) {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (s *InlineStore) LoadImage(_ context.Context, assetID string) ([]byte, string, error) {
	return nil, "", fmt.Errorf("asset %s is not persisted", assetID)
}

func (s *InlineStore) Close() error {
	return nil
}
