package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/cmcs/claims-api/internal/application/port"
)

// LocalFileStore implements port.FileStore on the local filesystem. Stored
// names are generated by the service layer, but every path is still checked
// against the base directory before use.
type LocalFileStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFileStore creates a new LocalFileStore
func NewLocalFileStore(baseDir string, logger *zap.Logger) port.FileStore {
	return &LocalFileStore{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Save writes document content under the stored name
func (s *LocalFileStore) Save(ctx context.Context, storedName string, content []byte) error {
	fullPath, err := s.resolve(storedName)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create storage directory",
			zap.String("path", filepath.Dir(fullPath)),
			zap.Error(err))
		return fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write file",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("File saved",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))

	return nil
}

// Read returns the content stored under the name
func (s *LocalFileStore) Read(ctx context.Context, storedName string) ([]byte, error) {
	fullPath, err := s.resolve(storedName)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		s.logger.Error("Failed to read file",
			zap.String("path", fullPath),
			zap.Error(err))
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return content, nil
}

// Exists checks whether a file is stored under the name
func (s *LocalFileStore) Exists(ctx context.Context, storedName string) bool {
	fullPath, err := s.resolve(storedName)
	if err != nil {
		return false
	}
	_, err = os.Stat(fullPath)
	return err == nil
}

// Delete removes the stored file. Deleting a missing file is not an error.
func (s *LocalFileStore) Delete(ctx context.Context, storedName string) error {
	fullPath, err := s.resolve(storedName)
	if err != nil {
		return err
	}

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(fullPath); err != nil {
		s.logger.Error("Failed to delete file",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to delete file: %w", err)
	}

	s.logger.Debug("File deleted", zap.String("path", fullPath))
	return nil
}

// resolve joins the stored name to the base directory and rejects any path
// that escapes it
func (s *LocalFileStore) resolve(storedName string) (string, error) {
	fullPath := filepath.Join(s.baseDir, storedName)

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return "", fmt.Errorf("path escapes base directory: %s", storedName)
	}
	return absPath, nil
}
