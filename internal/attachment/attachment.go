package attachment

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/civiclink/grievance-management/internal"
	"github.com/civiclink/grievance-management/internal/metrics"
	"github.com/google/uuid"
)

// allowedExtensions is the upload allow-list. Anything else is rejected
// before a single byte hits disk.
var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
}

// safeNamePattern rejects anything with path separators or shell-hostile
// characters before the name ever reaches the filesystem.
var safeNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\-_.() ]+$`)

// Stored describes a file persisted to the upload directory.
type Stored struct {
	OriginalName string
	StoredName   string
	Path         string
	MediaType    string
	Size         int64
	UploadedAt   time.Time
}

type Service struct {
	dir         string
	maxFileSize int64
	maxFiles    int
	logger      *slog.Logger
}

func NewService(dir string, maxFileSize int64, maxFiles int, logger *slog.Logger) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Service{
		dir:         dir,
		maxFileSize: maxFileSize,
		maxFiles:    maxFiles,
		logger:      logger,
	}, nil
}

// Store validates and persists a batch of uploads. The whole batch is
// checked before any file is written, so one bad file rejects them all.
func (s *Service) Store(files []*multipart.FileHeader) ([]Stored, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > s.maxFiles {
		return nil, internal.NewValidationError(
			fmt.Sprintf("At most %d files may be attached", s.maxFiles),
			internal.ErrCodeTooManyFiles)
	}

	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Filename))
		if _, ok := allowedExtensions[ext]; !ok {
			return nil, internal.NewUnsupportedMediaError(
				fmt.Sprintf("File type %q is not allowed", ext),
				internal.ErrCodeUnsupportedFile)
		}
		if f.Size > s.maxFileSize {
			return nil, internal.NewValidationError(
				fmt.Sprintf("File %q exceeds the %dMB size limit", f.Filename, s.maxFileSize>>20),
				internal.ErrCodeFileTooLarge)
		}
	}

	stored := make([]Stored, 0, len(files))
	for _, f := range files {
		rec, err := s.write(f)
		if err != nil {
			s.cleanup(stored)
			return nil, err
		}
		stored = append(stored, rec)
	}
	return stored, nil
}

func (s *Service) write(f *multipart.FileHeader) (Stored, error) {
	ext := strings.ToLower(filepath.Ext(f.Filename))
	storedName := uuid.New().String() + ext
	path := filepath.Join(s.dir, storedName)

	src, err := f.Open()
	if err != nil {
		return Stored{}, internal.NewInternalError("Failed to read uploaded file", err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return Stored{}, internal.NewInternalError("Failed to store uploaded file", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(src, s.maxFileSize+1))
	if err != nil {
		os.Remove(path)
		return Stored{}, internal.NewInternalError("Failed to store uploaded file", err)
	}
	if written > s.maxFileSize {
		os.Remove(path)
		return Stored{}, internal.NewValidationError(
			fmt.Sprintf("File %q exceeds the %dMB size limit", f.Filename, s.maxFileSize>>20),
			internal.ErrCodeFileTooLarge)
	}

	mediaType := f.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = allowedExtensions[ext]
	}

	s.logger.Info("attachment stored",
		"original_name", f.Filename,
		"stored_name", storedName,
		"size", written)

	metrics.RecordAttachmentStored()

	return Stored{
		OriginalName: f.Filename,
		StoredName:   storedName,
		Path:         path,
		MediaType:    mediaType,
		Size:         written,
		UploadedAt:   time.Now(),
	}, nil
}

// cleanup removes partially stored batch members after a mid-batch failure.
func (s *Service) cleanup(stored []Stored) {
	for _, rec := range stored {
		if err := os.Remove(rec.Path); err != nil {
			s.logger.Warn("failed to remove orphaned upload", "path", rec.Path, "error", err)
		}
	}
}

// Resolve maps a stored name back to a path inside the upload directory.
// The name is validated before any filesystem access: the character
// allow-list blocks separators, and dot-only names are rejected so the
// path can never climb out of the upload directory.
func (s *Service) Resolve(storedName string) (string, error) {
	if !safeNamePattern.MatchString(storedName) ||
		storedName != filepath.Base(storedName) ||
		strings.Trim(storedName, ".") == "" {
		return "", internal.NewValidationError("Invalid filename", internal.ErrCodeInvalidFilename)
	}

	path := filepath.Join(s.dir, storedName)
	if _, err := os.Stat(path); err != nil {
		return "", internal.ErrFileNotFound
	}
	return path, nil
}

// MediaTypeFor returns the media type recorded for a stored name's
// extension, defaulting to a binary stream.
func MediaTypeFor(storedName string) string {
	ext := strings.ToLower(filepath.Ext(storedName))
	if mt, ok := allowedExtensions[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}
