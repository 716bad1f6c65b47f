package kb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/sadreammm/Helply/internal/storage"
	"github.com/sadreammm/Helply/pkg/models"
)

// Store serves the current knowledge base snapshot and swaps it atomically
// on reload. Readers never block.
type Store struct {
	src     storage.Storage
	path    string
	current atomic.Pointer[KB]
}

// NewStore creates a store reading path from src. The store starts empty
// until Load succeeds.
func NewStore(src storage.Storage, path string) *Store {
	s := &Store{src: src, path: path}
	s.current.Store(New(Document{}))
	return s
}

// NewStaticStore wraps an already parsed knowledge base
func NewStaticStore(k *KB) *Store {
	s := &Store{}
	s.current.Store(k)
	return s
}

// Load reads and parses the document, replacing the current snapshot. On
// failure the previous snapshot stays active.
func (s *Store) Load(ctx context.Context) error {
	if s.src == nil {
		return errors.New("knowledge base store has no source")
	}
	data, err := s.src.Read(ctx, s.path)
	if err != nil {
		return fmt.Errorf("failed to read knowledge base %s: %w", s.path, err)
	}
	k, err := Parse(data)
	if err != nil {
		return err
	}
	s.current.Store(k)

	slog.InfoContext(ctx, "knowledge base loaded", "path", s.path, "definitions", k.Len())
	for _, p := range k.Validate() {
		slog.WarnContext(ctx, "knowledge base problem", "path", s.path, "problem", p)
	}
	return nil
}

// Path returns the storage path of the document
func (s *Store) Path() string {
	return s.path
}

// Current returns the active snapshot
func (s *Store) Current() *KB {
	return s.current.Load()
}

// Loaded reports whether the active snapshot holds any definition
func (s *Store) Loaded() bool {
	return s.Current().Len() > 0
}

func (s *Store) Lookup(platform, actionKey string) (*models.TaskDefinition, bool) {
	return s.Current().Lookup(platform, actionKey)
}

func (s *Store) Resolve(platform, ref string) (*models.TaskDefinition, error) {
	return s.Current().Resolve(platform, ref)
}

func (s *Store) List() []*models.TaskDefinition {
	return s.Current().List()
}

func (s *Store) Platform(key string) (*models.Platform, bool) {
	return s.Current().Platform(key)
}
