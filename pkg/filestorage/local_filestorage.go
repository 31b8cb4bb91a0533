package filestorage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileStorageInterface: хранилище загруженных файлов (логотипы настроек).
type FileStorageInterface interface {
	Save(file io.Reader, originalFileName string, prefix string) (filePath string, err error)
	Delete(filePath string) error
	// Resolve превращает сохранённый относительный путь в путь на диске.
	Resolve(filePath string) (string, bool)
}

type LocalFileStorage struct {
	basePath string
	now      func() time.Time
}

func NewLocalFileStorage(basePath string) (FileStorageInterface, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию: %w", err)
	}
	return &LocalFileStorage{basePath: basePath, now: time.Now}, nil
}

func (s *LocalFileStorage) Save(file io.Reader, originalFileName string, prefix string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalFileName))
	uniqueFileName := fmt.Sprintf("%s-%s%s", s.now().Format("2006-01-02"), uuid.New().String(), ext)

	fullDirPath := filepath.Join(s.basePath, prefix)
	if err := os.MkdirAll(fullDirPath, 0o755); err != nil {
		return "", err
	}

	dst, err := os.Create(filepath.Join(fullDirPath, uniqueFileName))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err = io.Copy(dst, file); err != nil {
		return "", err
	}

	return filepath.ToSlash(filepath.Join(prefix, uniqueFileName)), nil
}

func (s *LocalFileStorage) Delete(filePath string) error {
	fullPath, ok := s.Resolve(filePath)
	if !ok {
		return nil
	}
	return os.Remove(fullPath)
}

func (s *LocalFileStorage) Resolve(filePath string) (string, bool) {
	clean := filepath.Clean("/" + filePath)
	fullPath := filepath.Join(s.basePath, clean)
	if _, err := os.Stat(fullPath); err != nil {
		return "", false
	}
	return fullPath, true
}
