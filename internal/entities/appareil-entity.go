package entities

import "fmt"

type StatutAppareil string

const (
	AppareilActif       StatutAppareil = "actif"
	AppareilHorsService StatutAppareil = "hors_service"
)

func ParseStatutAppareil(s string) (StatutAppareil, error) {
	switch st := StatutAppareil(s); st {
	case AppareilActif, AppareilHorsService:
		return st, nil
	}
	return "", fmt.Errorf("statut d'appareil inconnu: %q", s)
}

// Destinataire: кому предназначен аппарат (для фильтрации при приёме материала).
type Destinataire string

const (
	DestinataireOfficier  Destinataire = "officier"
	DestinataireOperateur Destinataire = "operateur"
)

func ParseDestinataire(s string) (Destinataire, error) {
	switch d := Destinataire(s); d {
	case DestinataireOfficier, DestinataireOperateur:
		return d, nil
	}
	return "", fmt.Errorf("destinataire inconnu: %q", s)
}

type Appareil struct {
	ID           uint64         `json:"id" db:"id"`
	Nom          string         `json:"nom" db:"nom"`
	Type         *string        `json:"type,omitempty" db:"type"`
	Categorie    *string        `json:"categorie,omitempty" db:"categorie"`
	Destinataire *Destinataire  `json:"destinataire,omitempty" db:"destinataire"`
	NumeroSerie  *string        `json:"numero_serie,omitempty" db:"numero_serie"`
	SiteID       *uint64        `json:"site_id,omitempty" db:"site_id"`
	Statut       StatutAppareil `json:"statut" db:"statut"`
	Description  *string        `json:"description,omitempty" db:"description"`
	IsActive     bool           `json:"is_active" db:"is_active"`

	Timestamps
}

type Site struct {
	ID           uint64  `json:"id" db:"id"`
	Nom          string  `json:"nom" db:"nom"`
	Code         string  `json:"code" db:"code"`
	Localisation *string `json:"localisation,omitempty" db:"localisation"`
	Description  *string `json:"description,omitempty" db:"description"`
	IsActive     bool    `json:"is_active" db:"is_active"`

	Timestamps
}
