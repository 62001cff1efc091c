package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/PabloGalante/weekendship/internal/domain"
)

// FileStore is a simple in-memory implementation of domain.FileStore.
// It is NOT persistent and only keeps metadata.
type FileStore struct {
	mu    sync.RWMutex
	files map[domain.FileID]domain.FileUpload
}

// NewFileStore creates a new in-memory FileStore.
func NewFileStore() *FileStore {
	return &FileStore{
		files: make(map[domain.FileID]domain.FileUpload),
	}
}

func (s *FileStore) SaveFile(_ context.Context, f *domain.FileUpload) error {
	if f == nil || f.ID == "" {
		return fmt.Errorf("%w: file id is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[f.ID] = *f
	return nil
}

func (s *FileStore) GetFile(_ context.Context, id domain.FileID) (*domain.FileUpload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	return &f, nil
}

func (s *FileStore) DeleteFile(_ context.Context, id domain.FileID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	delete(s.files, id)
	return nil
}
