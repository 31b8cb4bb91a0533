package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"go.uber.org/zap"

	"permanence-system/internal/authz"
	"permanence-system/internal/entities"
	"permanence-system/internal/repositories"
	"permanence-system/pkg/config"
	apperrors "permanence-system/pkg/errors"
	"permanence-system/pkg/filestorage"
	"permanence-system/pkg/validation"
)

type SettingServiceInterface interface {
	// Get: чтение через кеш, без проверки прав (используется печатью).
	Get(ctx context.Context, key string) (*entities.Setting, error)
	Value(ctx context.Context, key, def string) string
	File(ctx context.Context, key string) entities.FileValue

	List(ctx context.Context) ([]entities.Setting, error)
	GetGroup(ctx context.Context, group string) ([]entities.Setting, error)
	Set(ctx context.Context, key string, value *string) (*entities.Setting, error)
	UploadFile(ctx context.Context, key string, header *multipart.FileHeader) (*entities.Setting, error)
	// CleanFileValues обслуживание: мусорные значения файлов -> NULL, сброс кеша.
	CleanFileValues(ctx context.Context) ([]string, error)
}

type SettingService struct {
	settingRepo repositories.SettingRepositoryInterface
	cacheRepo   repositories.CacheRepositoryInterface
	files       filestorage.FileStorageInterface
	gate        *authz.Gatekeeper
	ttl         time.Duration
	logger      *zap.Logger
}

func NewSettingService(
	settingRepo repositories.SettingRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	files filestorage.FileStorageInterface,
	cfg config.SettingsConfig,
	logger *zap.Logger,
) SettingServiceInterface {
	return &SettingService{
		settingRepo: settingRepo,
		cacheRepo:   cacheRepo,
		files:       files,
		gate:        authz.NewGatekeeper(),
		ttl:         cfg.CacheTTL,
		logger:      logger,
	}
}

func (s *SettingService) Get(ctx context.Context, key string) (*entities.Setting, error) {
	cacheKey := repositories.SettingCacheKey(key)
	raw, err := s.cacheRepo.Get(ctx, cacheKey)
	if err == nil {
		var cached entities.Setting
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			return &cached, nil
		}
		s.logger.Warn("SettingService: повреждённая запись в кеше", zap.String("key", key))
	} else if !errors.Is(err, repositories.ErrCacheMiss) {
		s.logger.Warn("SettingService: кеш недоступен, читаем из БД", zap.String("key", key), zap.Error(err))
	}

	setting, err := s.settingRepo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(setting); err == nil {
		if err := s.cacheRepo.Set(ctx, cacheKey, data, s.ttl); err != nil {
			s.logger.Warn("SettingService: не удалось закешировать", zap.String("key", key), zap.Error(err))
		}
	}
	return setting, nil
}

func (s *SettingService) Value(ctx context.Context, key, def string) string {
	setting, err := s.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("SettingService: ошибка чтения настройки", zap.String("key", key), zap.Error(err))
		}
		return def
	}
	return setting.StringOr(def)
}

func (s *SettingService) File(ctx context.Context, key string) entities.FileValue {
	setting, err := s.Get(ctx, key)
	if err != nil {
		return entities.NoFile()
	}
	return setting.File()
}

func (s *SettingService) List(ctx context.Context) ([]entities.Setting, error) {
	if err := s.check(ctx, authz.ActionViewAny); err != nil {
		return nil, err
	}
	return s.settingRepo.GetAll(ctx)
}

func (s *SettingService) GetGroup(ctx context.Context, group string) ([]entities.Setting, error) {
	if err := s.check(ctx, authz.ActionViewAny); err != nil {
		return nil, err
	}
	return s.settingRepo.GetGroup(ctx, group)
}

func (s *SettingService) Set(ctx context.Context, key string, value *string) (*entities.Setting, error) {
	if err := s.check(ctx, authz.ActionUpdate); err != nil {
		return nil, err
	}
	current, err := s.settingRepo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.write(ctx, current, normalizeSettingValue(current.Type, value)); err != nil {
		return nil, err
	}
	return s.settingRepo.FindByKey(ctx, key)
}

// UploadFile сохраняет логотип и записывает путь в файловую настройку.
func (s *SettingService) UploadFile(ctx context.Context, key string, header *multipart.FileHeader) (*entities.Setting, error) {
	if err := s.check(ctx, authz.ActionUpdate); err != nil {
		return nil, err
	}
	current, err := s.settingRepo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if current.Type != entities.SettingFile {
		return nil, apperrors.NewInvalidInputError("le paramètre %s n'accepte pas de fichier", key)
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть файл: %w", err)
	}
	defer src.Close()
	if err := validation.ValidateFile(header, src, "logo"); err != nil {
		return nil, err
	}

	path, err := s.files.Save(src, header.Filename, config.UploadContexts["logo"].PathPrefix)
	if err != nil {
		return nil, fmt.Errorf("не удалось сохранить файл: %w", err)
	}
	if err := s.write(ctx, current, &path); err != nil {
		_ = s.files.Delete(path)
		return nil, err
	}

	if old, ok := current.File().Path(); ok && old != path {
		if err := s.files.Delete(old); err != nil {
			s.logger.Warn("SettingService: старый файл не удалён", zap.String("path", old), zap.Error(err))
		}
	}
	return s.settingRepo.FindByKey(ctx, key)
}

func (s *SettingService) CleanFileValues(ctx context.Context) ([]string, error) {
	keys, err := s.settingRepo.CleanFileSentinels(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) > 0 {
		cacheKeys := make([]string, 0, len(keys))
		for _, k := range keys {
			cacheKeys = append(cacheKeys, repositories.SettingCacheKey(k))
		}
		if err := s.cacheRepo.Del(ctx, cacheKeys...); err != nil {
			return keys, fmt.Errorf("значения очищены, но кеш не сброшен: %w", err)
		}
	}
	s.logger.Info("SettingService: очистка файловых настроек", zap.Strings("keys", keys))
	return keys, nil
}

// write: кеш сбрасывается до и после записи. Если сброс не удался, запись считается неудачной.
func (s *SettingService) write(ctx context.Context, current *entities.Setting, value *string) error {
	cacheKey := repositories.SettingCacheKey(current.Key)
	if err := s.cacheRepo.Del(ctx, cacheKey); err != nil {
		return fmt.Errorf("не удалось сбросить кеш настройки %s: %w", current.Key, err)
	}
	if err := s.settingRepo.UpdateValue(ctx, current.Key, value); err != nil {
		return err
	}
	if err := s.cacheRepo.Del(ctx, cacheKey); err != nil {
		return fmt.Errorf("не удалось сбросить кеш настройки %s: %w", current.Key, err)
	}
	s.logger.Info("SettingService: настройка изменена", zap.String("key", current.Key))
	return nil
}

func (s *SettingService) check(ctx context.Context, action authz.Action) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	return s.gate.Check(action, authz.KindSetting, authz.Context{Actor: actor})
}

// normalizeSettingValue приводит значение к виду, в котором оно хранится.
func normalizeSettingValue(t entities.SettingType, value *string) *string {
	if value == nil {
		return nil
	}
	switch t {
	case entities.SettingFile:
		if path, ok := entities.ParseFileValue(value).Path(); ok {
			return &path
		}
		return nil
	case entities.SettingBoolean:
		v := "0"
		switch strings.ToLower(strings.TrimSpace(*value)) {
		case "1", "true", "on", "yes":
			v = "1"
		}
		return &v
	}
	return value
}
