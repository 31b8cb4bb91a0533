package errors

import (
	"errors"
	"fmt"
)

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("méthode de signature du jeton invalide")
	ErrInvalidToken         = fmt.Errorf("jeton invalide")
	ErrTokenExpired         = fmt.Errorf("le jeton a expiré")
	ErrTokenIsNotAccess     = fmt.Errorf("le jeton n'est pas un jeton d'accès")

	// Авторизация
	ErrEmptyAuthHeader    = fmt.Errorf("en-tête d'autorisation absent")
	ErrInvalidAuthHeader  = fmt.Errorf("format de l'en-tête d'autorisation invalide")
	ErrInvalidCredentials = fmt.Errorf("identifiants invalides")
	ErrUnauthorized       = fmt.Errorf("non authentifié")
	ErrForbidden          = fmt.Errorf("accès refusé")
	ErrUserDisabled       = fmt.Errorf("compte désactivé")
	ErrAccountLocked      = fmt.Errorf("compte temporairement bloqué, réessayez plus tard")

	// Контекст
	ErrActorNotFoundInContext = fmt.Errorf("utilisateur absent du contexte de la requête")

	// Состояние и ограничения
	ErrInvalidTransition = fmt.Errorf("transition d'état invalide")
	ErrConflict          = fmt.Errorf("violation de contrainte d'unicité")

	// Общие
	ErrNotFound       = fmt.Errorf("enregistrement introuvable")
	ErrBadRequest     = fmt.Errorf("requête invalide")
	ErrValidation     = fmt.Errorf("données invalides")
	ErrInternalServer = fmt.Errorf("erreur interne du serveur")
)

// ForbiddenError несёт имя сработавшего правила для аудита.
// Наружу отдаётся только общее сообщение ErrForbidden.
type ForbiddenError struct {
	Rule   string
	Action string
	Kind   string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%s (%s:%s, règle %s)", ErrForbidden.Error(), e.Kind, e.Action, e.Rule)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

func NewForbidden(kind, action, rule string) error {
	return &ForbiddenError{Kind: kind, Action: action, Rule: rule}
}

// RuleOf возвращает правило отказа, если ошибка: ForbiddenError.
func RuleOf(err error) string {
	var fe *ForbiddenError
	if errors.As(err, &fe) {
		return fe.Rule
	}
	return ""
}

// TransitionError: нарушение машины состояний.
type TransitionError struct {
	Verb string
	From string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s impossible depuis l'état %s", ErrInvalidTransition.Error(), e.Verb, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// InvalidInputError: ошибка бизнес-валидации входных данных.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func (e *InvalidInputError) Unwrap() error { return ErrValidation }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

// HttpError: ошибка с готовым HTTP-кодом и контекстом для логов.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Context map[string]interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, ctx map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Context: ctx}
}
