package dto

import (
	"github.com/aarondl/null/v8"

	"permanence-system/internal/authz"
	"permanence-system/internal/entities"
)

// PermanenceDTO: создание и полная замена permanence (PUT).
type PermanenceDTO struct {
	Date                string      `json:"date" validate:"required,datetime=2006-01-02"`
	HeureDebut          string      `json:"heure_debut" validate:"required,hhmm"`
	HeureFin            string      `json:"heure_fin" validate:"required,hhmm"`
	OfficierID          uint64      `json:"officier_id" validate:"required,gt=0"`
	CommentaireOfficier null.String `json:"commentaire_officier" validate:"omitempty,max=5000"`
}

// PermanenceResponseDTO: permanence с метками статуса и доступными действиями.
type PermanenceResponseDTO struct {
	entities.Permanence
	StatutLabel string           `json:"statut_label"`
	StatutColor string           `json:"statut_color"`
	Abilities   *authz.Abilities `json:"abilities,omitempty"`
}

func NewPermanenceResponse(p entities.Permanence, abilities *authz.Abilities) PermanenceResponseDTO {
	return PermanenceResponseDTO{
		Permanence:  p,
		StatutLabel: p.Statut.Label(),
		StatutColor: p.Statut.Color(),
		Abilities:   abilities,
	}
}

type AssignmentDTO struct {
	SousOfficierID uint64 `json:"sous_officier_id" validate:"required,gt=0"`
	SiteID         uint64 `json:"site_id" validate:"required,gt=0"`
}
