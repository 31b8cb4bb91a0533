package entities

import "strings"

type SettingType string

const (
	SettingString  SettingType = "string"
	SettingText    SettingType = "text"
	SettingBoolean SettingType = "boolean"
	SettingFile    SettingType = "file"
)

// FileValue: путь к файлу либо его отсутствие. Невалидных промежуточных состояний нет.
type FileValue struct {
	path  string
	valid bool
}

func SomeFile(path string) FileValue { return FileValue{path: path, valid: true} }
func NoFile() FileValue              { return FileValue{} }

func (f FileValue) Path() (string, bool) { return f.path, f.valid }
func (f FileValue) IsSome() bool        { return f.valid }

// invalidFileSentinels: значения, которые исторически сохранялись вместо NULL.
var invalidFileSentinels = map[string]struct{}{
	"":      {},
	"false": {},
	"0":     {},
	"[]":    {},
	`""`:    {},
	"null":  {},
}

func IsInvalidFileSentinel(raw string) bool {
	_, ok := invalidFileSentinels[strings.TrimSpace(raw)]
	return ok
}

// InvalidFileSentinels возвращает список для SQL-очистки.
func InvalidFileSentinels() []string {
	out := make([]string, 0, len(invalidFileSentinels))
	for k := range invalidFileSentinels {
		out = append(out, k)
	}
	return out
}

// ParseFileValue: единственная точка нормализации файлового значения.
func ParseFileValue(raw *string) FileValue {
	if raw == nil || IsInvalidFileSentinel(*raw) {
		return NoFile()
	}
	return SomeFile(strings.TrimSpace(*raw))
}

type Setting struct {
	ID    uint64      `json:"id" db:"id"`
	Key   string      `json:"key" db:"key"`
	Value *string     `json:"value" db:"value"`
	Type  SettingType `json:"type" db:"type"`
	Group string      `json:"group" db:"group"`
	Label string      `json:"label" db:"label"`

	Timestamps
}

func (s *Setting) File() FileValue {
	if s.Type != SettingFile {
		return NoFile()
	}
	return ParseFileValue(s.Value)
}

func (s *Setting) Bool() bool {
	if s.Value == nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(*s.Value)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// StringOr: значение или запасное, если пусто.
func (s *Setting) StringOr(def string) string {
	if s == nil || s.Value == nil || *s.Value == "" {
		return def
	}
	return *s.Value
}
