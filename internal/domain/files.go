package domain

import "context"

// FileType classifies an uploaded file.
type FileType string

const (
	FileTypeImage FileType = "image"
	FileTypePDF   FileType = "pdf"
	FileTypeWord  FileType = "word"
	FileTypeOther FileType = "other"
)

// FileUpload is the metadata kept for a simulated upload. The content
// itself is never stored.
type FileUpload struct {
	ID       FileID   `json:"id"`
	Path     string   `json:"path"`
	Type     FileType `json:"type"`
	Filename string   `json:"filename"`
	Size     int64    `json:"size"`
}

// FileStore defines the minimum operations to keep upload metadata.
type FileStore interface {
	SaveFile(ctx context.Context, f *FileUpload) error
	GetFile(ctx context.Context, id FileID) (*FileUpload, error)
	DeleteFile(ctx context.Context, id FileID) error
}
