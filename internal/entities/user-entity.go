// Файл: internal/entities/user-entity.go
package entities

import "fmt"

// Role: закрытый набор ролей. Роль не меняется после создания.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleOfficier     Role = "officier"
	RoleSousOfficier Role = "sous_officier"
	RoleViewer       Role = "viewer"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleOfficier, RoleSousOfficier, RoleViewer:
		return r, nil
	}
	return "", fmt.Errorf("rôle inconnu: %q", s)
}

func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrateur"
	case RoleOfficier:
		return "Officier"
	case RoleSousOfficier:
		return "Sous-officier"
	case RoleViewer:
		return "Consultation"
	}
	return string(r)
}

func (r Role) Color() string {
	switch r {
	case RoleAdmin:
		return "danger"
	case RoleOfficier:
		return "warning"
	case RoleSousOfficier:
		return "success"
	case RoleViewer:
		return "gray"
	}
	return "gray"
}

// SubFunction: функция сous-officier (только для роли sous_officier).
type SubFunction string

const (
	FonctionOperateur SubFunction = "operateur"
	FonctionChefPoste SubFunction = "chef_poste"
)

func ParseSubFunction(s string) (SubFunction, error) {
	switch f := SubFunction(s); f {
	case FonctionOperateur, FonctionChefPoste:
		return f, nil
	}
	return "", fmt.Errorf("fonction inconnue: %q", s)
}

func (f SubFunction) Label() string {
	switch f {
	case FonctionOperateur:
		return "Opérateur"
	case FonctionChefPoste:
		return "Chef de poste"
	}
	return string(f)
}

type User struct {
	ID        uint64       `json:"id" db:"id"`
	Nom       string       `json:"nom" db:"nom"`
	Prenom    string       `json:"prenom" db:"prenom"`
	Matricule *string      `json:"matricule,omitempty" db:"matricule"`
	Email     string       `json:"email" db:"email"`
	Password  string       `json:"-" db:"password"`
	Role      Role         `json:"role" db:"role"`
	Fonction  *SubFunction `json:"fonction,omitempty" db:"fonction"`
	IsActive  bool         `json:"is_active" db:"is_active"`

	Timestamps
}

func (u *User) FullName() string {
	return u.Prenom + " " + u.Nom
}

func (u *User) IsAdmin() bool        { return u.Role == RoleAdmin }
func (u *User) IsOfficier() bool     { return u.Role == RoleOfficier }
func (u *User) IsSousOfficier() bool { return u.Role == RoleSousOfficier }
func (u *User) IsViewer() bool       { return u.Role == RoleViewer }

// IsOperateur: sous-officier с функцией оператора.
func (u *User) IsOperateur() bool {
	return u.IsSousOfficier() && u.Fonction != nil && *u.Fonction == FonctionOperateur
}

// CanReceiveMaterial: получателем материала может быть офицер или оператор, но не chef de poste.
func (u *User) CanReceiveMaterial() bool {
	return u.IsOfficier() || u.IsOperateur()
}
