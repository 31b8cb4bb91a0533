package dto

import "github.com/aarondl/null/v8"

type DeviceDTO struct {
	Nom          string      `json:"nom" validate:"required,min=2"`
	Type         null.String `json:"type"`
	Categorie    null.String `json:"categorie"`
	Destinataire null.String `json:"destinataire" validate:"omitempty,destinataire"`
	NumeroSerie  null.String `json:"numero_serie"`
	SiteID       null.Uint64 `json:"site_id"`
	Statut       string      `json:"statut" validate:"omitempty,statut_appareil"`
	Description  null.String `json:"description"`
	IsActive     null.Bool   `json:"is_active"`
}

type SiteDTO struct {
	Nom          string      `json:"nom" validate:"required,min=2"`
	Code         string      `json:"code" validate:"required,min=1,max=50"`
	Localisation null.String `json:"localisation"`
	Description  null.String `json:"description"`
	IsActive     null.Bool   `json:"is_active"`
}

type SettingValueDTO struct {
	Value null.String `json:"value"`
}
