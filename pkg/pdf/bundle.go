package pdf

import (
	"io"
	"time"

	"permanence-system/internal/entities"
)

// Header: институциональные настройки шапки и подвала.
type Header struct {
	InstitutionName string
	DirectionName   string
	SystemName      string
	Title           string
	Footer          string
	// пути на диске; пустая строка: логотипа нет
	LogoInstitution string
	LogoDirection   string
}

// AuthorGroup: записи одного sous-officier (или оператора) в отдельном блоке.
type AuthorGroup struct {
	Name      string
	Fonction  string
	Matricule string
	Events    []entities.RelationManageriale
	Material  []entities.ReceptionMateriel
}

// Bundle: всё, что нужно для печати одной validée permanence.
type Bundle struct {
	Locale      string
	Header      Header
	Shift       *entities.Permanence
	Officer     *entities.User
	Assignments []entities.Affectation

	OfficerEvents    []entities.RelationManageriale
	NCOEvents        []AuthorGroup
	OfficerMaterial  []entities.ReceptionMateriel
	OperatorMaterial []AuthorGroup

	EditedAt time.Time
}

func (b *Bundle) IsRTL() bool {
	return b.Locale == LocaleAR
}

// Filename: имя файла для Content-Disposition.
func (b *Bundle) Filename() string {
	prefix := "registre_permanence"
	if b.IsRTL() {
		prefix = "سجل_المداومة"
	}
	return prefix + "_" + b.Shift.Date.Format("2006-01-02") + ".pdf"
}

type Renderer interface {
	Render(w io.Writer, b *Bundle) error
}
