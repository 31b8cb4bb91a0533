package entities

import (
	"fmt"
	"time"
)

// PermanenceStatus жизненный цикл permanence: planifiee -> en_cours -> validee.
type PermanenceStatus string

const (
	StatusPlanifiee PermanenceStatus = "planifiee"
	StatusEnCours   PermanenceStatus = "en_cours"
	StatusValidee   PermanenceStatus = "validee"
)

func ParsePermanenceStatus(s string) (PermanenceStatus, error) {
	switch st := PermanenceStatus(s); st {
	case StatusPlanifiee, StatusEnCours, StatusValidee:
		return st, nil
	}
	return "", fmt.Errorf("statut inconnu: %q", s)
}

func (s PermanenceStatus) Label() string {
	switch s {
	case StatusPlanifiee:
		return "Planifiée"
	case StatusEnCours:
		return "En cours"
	case StatusValidee:
		return "Validée"
	}
	return string(s)
}

func (s PermanenceStatus) Color() string {
	switch s {
	case StatusPlanifiee:
		return "gray"
	case StatusEnCours:
		return "warning"
	case StatusValidee:
		return "success"
	}
	return "gray"
}

func (s PermanenceStatus) IsLocked() bool {
	return s == StatusValidee
}

// Permanence: дежурство на одну календарную дату.
type Permanence struct {
	ID                  uint64           `json:"id" db:"id"`
	Date                time.Time        `json:"date" db:"date"`
	HeureDebut          string           `json:"heure_debut" db:"heure_debut"`
	HeureFin            string           `json:"heure_fin" db:"heure_fin"`
	OfficierID          uint64           `json:"officier_id" db:"officier_id"`
	Statut              PermanenceStatus `json:"statut" db:"statut"`
	CommentaireOfficier *string          `json:"commentaire_officier,omitempty" db:"commentaire_officier"`
	ValidatedAt         *time.Time       `json:"validated_at,omitempty" db:"validated_at"`

	Timestamps
}

// IsLocked: единственный предикат блокировки для всех под-ресурсов.
func (p *Permanence) IsLocked() bool {
	return p.Statut.IsLocked()
}

func (p *Permanence) IsResponsible(userID uint64) bool {
	return p.OfficierID == userID
}

// Affectation: назначение sous-officier на permanence с привязкой к сайту.
type Affectation struct {
	ID             uint64 `json:"id" db:"id"`
	PermanenceID   uint64 `json:"permanence_id" db:"permanence_id"`
	SousOfficierID uint64 `json:"sous_officier_id" db:"sous_officier_id"`
	SiteID         uint64 `json:"site_id" db:"site_id"`

	SousOfficierNom string `json:"sous_officier_nom,omitempty" db:"-"`
	SiteNom         string `json:"site_nom,omitempty" db:"-"`

	Timestamps
}
