package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"permanence-system/internal/entities"
)

// hhmmRegex: время "ЧЧ:ММ" или "ЧЧ:ММ:СС".
var hhmmRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)

// registerRules регистрирует теги, которые мы используем в struct tags
func registerRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"hhmm":            isClockTime,
		"role":            isRole,
		"fonction":        isSubFunction,
		"etat":            isEtat,
		"destinataire":    isDestinataire,
		"statut_appareil": isStatutAppareil,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func isClockTime(fl validator.FieldLevel) bool {
	return hhmmRegex.MatchString(fl.Field().String())
}

func isRole(fl validator.FieldLevel) bool {
	_, err := entities.ParseRole(fl.Field().String())
	return err == nil
}

func isSubFunction(fl validator.FieldLevel) bool {
	_, err := entities.ParseSubFunction(fl.Field().String())
	return err == nil
}

func isEtat(fl validator.FieldLevel) bool {
	_, err := entities.ParseEtatFonctionnement(fl.Field().String())
	return err == nil
}

func isDestinataire(fl validator.FieldLevel) bool {
	_, err := entities.ParseDestinataire(fl.Field().String())
	return err == nil
}

func isStatutAppareil(fl validator.FieldLevel) bool {
	_, err := entities.ParseStatutAppareil(fl.Field().String())
	return err == nil
}
