package filestorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string // The root directory where files will be stored
	baseURL  string // The base URL the directory is served under
	logger   zerolog.Logger
}

// NewLocalStorage creates a new LocalStorage instance, creating basePath when missing
func NewLocalStorage(basePath, baseURL string, logger zerolog.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}, nil
}

// BasePath returns the directory files are written to
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// Store implements FileStorage
func (ls *LocalStorage) Store(ctx context.Context, nameHint string, r io.Reader) (*StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	uniqueFilename := uuid.New().String() + strings.ToLower(filepath.Ext(nameHint))
	dstPath := filepath.Join(ls.basePath, uniqueFilename)

	dst, err := os.Create(dstPath)
	if err != nil {
		ls.logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}

	size, err := io.Copy(dst, r)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		ls.logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		_ = os.Remove(dstPath)
		return nil, fmt.Errorf("failed to save file content: %w", err)
	}

	url := "uploads/" + uniqueFilename
	if ls.baseURL != "" {
		url = ls.baseURL + "/" + uniqueFilename
	}

	ls.logger.Info().Str("filename", nameHint).Str("saved_as", uniqueFilename).Msg("File saved successfully")
	return &StoredFile{URL: url, Key: uniqueFilename, Size: size}, nil
}

// Delete implements FileStorage. Only the base name of key is used, so a key
// can never point outside the storage directory.
func (ls *LocalStorage) Delete(_ context.Context, key string) error {
	filename := filepath.Base(key)
	if key == "" || filename == "." || filename == "/" || filename == ".." {
		return fmt.Errorf("invalid file key: %q", key)
	}

	physicalPath := filepath.Join(ls.basePath, filename)
	if err := os.Remove(physicalPath); err != nil {
		if os.IsNotExist(err) {
			ls.logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
			return nil
		}
		ls.logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	ls.logger.Info().Str("path", physicalPath).Msg("File deleted successfully")
	return nil
}
