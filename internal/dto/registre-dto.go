package dto

import "github.com/aarondl/null/v8"

// LogbookEventDTO: событие журнала (relation managériale).
type LogbookEventDTO struct {
	HeureEvenement string      `json:"heure_evenement" validate:"required,hhmm"`
	Evenement      string      `json:"evenement" validate:"required,min=2"`
	EffetsOrdonnes null.String `json:"effets_ordonnes"`
	Observations   null.String `json:"observations"`
}

// EnergyReadingDTO: SousOfficierID обязателен только когда запись создаёт admin.
type EnergyReadingDTO struct {
	AppareilID         uint64      `json:"appareil_id" validate:"required,gt=0"`
	SousOfficierID     null.Uint64 `json:"sous_officier_id"`
	PourcentageEnergie *int        `json:"pourcentage_energie" validate:"required,min=0,max=100"`
	HeureReleve        string      `json:"heure_releve" validate:"required,hhmm"`
	Observations       null.String `json:"observations"`
}

type RestartRecordDTO struct {
	AppareilID         uint64      `json:"appareil_id" validate:"required,gt=0"`
	NombreRedemarrages int         `json:"nombre_redemarrages" validate:"required,min=1"`
	Motif              string      `json:"motif" validate:"required"`
	HeureDebut         string      `json:"heure_debut" validate:"required,hhmm"`
	HeureFin           null.String `json:"heure_fin" validate:"omitempty,hhmm"`
	DecisionOfficier   null.String `json:"decision_officier"`
}

type MaterialReceptionDTO struct {
	UserID             uint64      `json:"user_id" validate:"required,gt=0"`
	AppareilID         uint64      `json:"appareil_id" validate:"required,gt=0"`
	RecuIntegralite    null.Bool   `json:"recu_integralite"`
	EtatFonctionnement string      `json:"etat_fonctionnement" validate:"required,etat"`
	Commentaire        null.String `json:"commentaire"`
}
