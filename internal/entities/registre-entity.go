package entities

import "fmt"

// RelationManageriale: событие журнала permanence.
type RelationManageriale struct {
	ID             uint64  `json:"id" db:"id"`
	PermanenceID   uint64  `json:"permanence_id" db:"permanence_id"`
	AuteurID       uint64  `json:"auteur_id" db:"auteur_id"`
	HeureEvenement string  `json:"heure_evenement" db:"heure_evenement"`
	Evenement      string  `json:"evenement" db:"evenement"`
	EffetsOrdonnes *string `json:"effets_ordonnes,omitempty" db:"effets_ordonnes"`
	Observations   *string `json:"observations,omitempty" db:"observations"`

	AuteurNom  string `json:"auteur_nom,omitempty" db:"-"`
	AuteurRole Role   `json:"auteur_role,omitempty" db:"-"`

	Timestamps
}

// ReleveEnergie: показание заряда аппарата, снятое sous-officier.
type ReleveEnergie struct {
	ID                 uint64  `json:"id" db:"id"`
	PermanenceID       uint64  `json:"permanence_id" db:"permanence_id"`
	AppareilID         uint64  `json:"appareil_id" db:"appareil_id"`
	SousOfficierID     uint64  `json:"sous_officier_id" db:"sous_officier_id"`
	PourcentageEnergie int     `json:"pourcentage_energie" db:"pourcentage_energie"`
	HeureReleve        string  `json:"heure_releve" db:"heure_releve"`
	Observations       *string `json:"observations,omitempty" db:"observations"`

	SousOfficierNom string `json:"sous_officier_nom,omitempty" db:"-"`
	AppareilNom     string `json:"appareil_nom,omitempty" db:"-"`

	Timestamps
}

// RedemarrageAppareil: перезапуск аппарата; полностью невидим для sous-officier.
type RedemarrageAppareil struct {
	ID                 uint64  `json:"id" db:"id"`
	PermanenceID       uint64  `json:"permanence_id" db:"permanence_id"`
	AppareilID         uint64  `json:"appareil_id" db:"appareil_id"`
	OfficierID         uint64  `json:"officier_id" db:"officier_id"`
	NombreRedemarrages int     `json:"nombre_redemarrages" db:"nombre_redemarrages"`
	Motif              string  `json:"motif" db:"motif"`
	HeureDebut         string  `json:"heure_debut" db:"heure_debut"`
	HeureFin           *string `json:"heure_fin,omitempty" db:"heure_fin"`
	DecisionOfficier   *string `json:"decision_officier,omitempty" db:"decision_officier"`

	AppareilNom string `json:"appareil_nom,omitempty" db:"-"`

	Timestamps
}

type EtatFonctionnement string

const (
	EtatFonctionne  EtatFonctionnement = "fonctionne"
	EtatEndommage   EtatFonctionnement = "endommage"
	EtatHorsService EtatFonctionnement = "hors_service"
)

func ParseEtatFonctionnement(s string) (EtatFonctionnement, error) {
	switch e := EtatFonctionnement(s); e {
	case EtatFonctionne, EtatEndommage, EtatHorsService:
		return e, nil
	}
	return "", fmt.Errorf("état de fonctionnement inconnu: %q", s)
}

func (e EtatFonctionnement) Label() string {
	switch e {
	case EtatFonctionne:
		return "Fonctionne"
	case EtatEndommage:
		return "Endommagé"
	case EtatHorsService:
		return "Hors service"
	}
	return string(e)
}

// ReceptionMateriel: приём материала получателем (офицер или оператор).
type ReceptionMateriel struct {
	ID                 uint64             `json:"id" db:"id"`
	PermanenceID       uint64             `json:"permanence_id" db:"permanence_id"`
	UserID             uint64             `json:"user_id" db:"user_id"`
	AppareilID         uint64             `json:"appareil_id" db:"appareil_id"`
	RecuIntegralite    bool               `json:"recu_integralite" db:"recu_integralite"`
	EtatFonctionnement EtatFonctionnement `json:"etat_fonctionnement" db:"etat_fonctionnement"`
	Commentaire        *string            `json:"commentaire,omitempty" db:"commentaire"`

	UserNom     string `json:"user_nom,omitempty" db:"-"`
	UserRole    Role   `json:"user_role,omitempty" db:"-"`
	AppareilNom string `json:"appareil_nom,omitempty" db:"-"`

	Timestamps
}
