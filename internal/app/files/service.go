package files

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/PabloGalante/weekendship/internal/domain"
	"github.com/PabloGalante/weekendship/internal/observability"
)

var (
	imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"}
	wordExts  = []string{".doc", ".docx"}
)

// Service records simulated uploads. Only metadata is kept; content is
// never written anywhere.
type Service struct {
	store domain.FileStore
	newID func() domain.FileID
}

func NewService(store domain.FileStore) *Service {
	return &Service{
		store: store,
		newID: func() domain.FileID { return domain.FileID(uuid.NewString()) },
	}
}

type UploadInput struct {
	Filename    string
	Size        int64
	ContentType string
}

func (s *Service) Upload(ctx context.Context, in UploadInput) (*domain.FileUpload, error) {
	// Drop any client-supplied directories.
	name := path.Base(strings.ReplaceAll(in.Filename, `\`, "/"))
	if name == "" || name == "." || name == "/" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}

	id := s.newID()
	f := &domain.FileUpload{
		ID:       id,
		Path:     fmt.Sprintf("/uploads/%s/%s", id, name),
		Type:     DetectType(name, in.ContentType),
		Filename: name,
		Size:     in.Size,
	}

	if err := s.store.SaveFile(ctx, f); err != nil {
		return nil, fmt.Errorf("saving file metadata: %w", err)
	}

	observability.LoggerFromContext(ctx).Info("file uploaded",
		"file_id", f.ID, "type", f.Type, "size", f.Size)
	return f, nil
}

func (s *Service) Get(ctx context.Context, id domain.FileID) (*domain.FileUpload, error) {
	return s.store.GetFile(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id domain.FileID) error {
	if err := s.store.DeleteFile(ctx, id); err != nil {
		return err
	}
	observability.LoggerFromContext(ctx).Info("file deleted", "file_id", id)
	return nil
}

// DetectType classifies a file by content type first, then extension.
func DetectType(filename, contentType string) domain.FileType {
	name := strings.ToLower(filename)
	ct := strings.ToLower(contentType)

	switch {
	case strings.HasPrefix(ct, "image/") || hasAnySuffix(name, imageExts):
		return domain.FileTypeImage
	case strings.Contains(ct, "pdf") || strings.HasSuffix(name, ".pdf"):
		return domain.FileTypePDF
	case strings.Contains(ct, "word") || hasAnySuffix(name, wordExts):
		return domain.FileTypeWord
	default:
		return domain.FileTypeOther
	}
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
