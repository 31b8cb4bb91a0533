package validation

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"

	"permanence-system/pkg/config"
	apperrors "permanence-system/pkg/errors"
)

// ValidateFile проверяет размер и MIME-тип файла по содержимому.
// contextName: ключ из config.UploadContexts (например, "logo").
func ValidateFile(fileHeader *multipart.FileHeader, file io.ReadSeeker, contextName string) error {
	rules, ok := config.UploadContexts[contextName]
	if !ok {
		return fmt.Errorf("внутренняя ошибка: неизвестный контекст загрузки '%s'", contextName)
	}

	if rules.MaxSizeMB > 0 {
		maxSizeBytes := rules.MaxSizeMB * 1024 * 1024
		if fileHeader.Size > maxSizeBytes {
			return apperrors.NewInvalidInputError("la taille du fichier (%.2f Mo) dépasse la limite de %d Mo", float64(fileHeader.Size)/1024/1024, rules.MaxSizeMB)
		}
	}

	// первые 512 байт достаточно для DetectContentType
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("ошибка чтения файла: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("ошибка обработки файла: %w", err)
	}

	mimeType := http.DetectContentType(buffer[:n])
	if !slices.Contains(rules.AllowedMimeTypes, mimeType) {
		return apperrors.NewInvalidInputError("format de fichier non autorisé: %s", mimeType)
	}

	return nil
}
