package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/dayflow/internal/pkg/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const MaxProfilePictureSize = 5 << 20

var (
	ErrInvalidFileType = errors.New("invalid file type: only jpg, jpeg, png, gif and webp images are allowed")
	ErrFileTooLarge    = errors.New("file too large: profile pictures may be at most 5MB")
)

var allowedImageTypes = map[string][]string{
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
	".gif":  {"image/gif"},
	".webp": {"image/webp"},
}

type FileService interface {
	// UploadProfilePicture stores the image and returns its public path.
	UploadProfilePicture(ctx context.Context, employeeID string, file io.Reader, filename string) (string, error)
	// DeleteProfilePicture removes a picture previously returned by UploadProfilePicture.
	DeleteProfilePicture(ctx context.Context, publicPath string) error
}

type fileServiceImpl struct {
	storage storage.FileStorage
	now     func() time.Time
	// suffix keeps names unique when one employee uploads twice in a millisecond.
	suffix func() string
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
		now:     time.Now,
		suffix:  func() string { return uuid.NewString()[:8] },
	}
}

// UploadProfilePicture implements FileService.
func (s *fileServiceImpl) UploadProfilePicture(ctx context.Context, employeeID string, file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	allowed, ok := allowedImageTypes[ext]
	if !ok {
		return "", ErrInvalidFileType
	}

	buffer, err := io.ReadAll(io.LimitReader(file, MaxProfilePictureSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read profile picture: %w", err)
	}
	if len(buffer) > MaxProfilePictureSize {
		return "", ErrFileTooLarge
	}

	// The extension has to agree with the actual bytes.
	detected := mimetype.Detect(buffer)
	if !matchesAny(detected, allowed) {
		return "", ErrInvalidFileType
	}

	newFilename := fmt.Sprintf("%s-%d-%s%s", employeeID, s.now().UnixMilli(), s.suffix(), ext)
	stored, err := s.storage.Upload(ctx, bytes.NewReader(buffer), path.Join("profiles", newFilename), detected.String())
	if err != nil {
		return "", fmt.Errorf("failed to upload profile picture: %w", err)
	}

	return s.storage.URL(stored), nil
}

// DeleteProfilePicture implements FileService.
func (s *fileServiceImpl) DeleteProfilePicture(ctx context.Context, publicPath string) error {
	rel, ok := s.storage.PathFromURL(publicPath)
	if !ok {
		slog.Warn("File: refusing to delete path outside upload storage", "path", publicPath)
		return nil
	}
	return s.storage.Delete(ctx, rel)
}

func matchesAny(detected *mimetype.MIME, types []string) bool {
	for _, t := range types {
		if detected.Is(t) {
			return true
		}
	}
	return false
}
