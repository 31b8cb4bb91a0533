package dto

import "github.com/aarondl/null/v8"

type CreateUserDTO struct {
	Nom       string      `json:"nom" validate:"required"`
	Prenom    string      `json:"prenom" validate:"required"`
	Matricule null.String `json:"matricule"`
	Email     string      `json:"email" validate:"required,email"`
	Password  string      `json:"password" validate:"required,min=8"`
	Role      string      `json:"role" validate:"required,role"`
	Fonction  null.String `json:"fonction" validate:"omitempty,fonction"`
	IsActive  null.Bool   `json:"is_active"`
}

// UpdateUserDTO: role можно прислать, но он должен совпадать с текущим.
type UpdateUserDTO struct {
	Nom       string      `json:"nom" validate:"required"`
	Prenom    string      `json:"prenom" validate:"required"`
	Matricule null.String `json:"matricule"`
	Email     string      `json:"email" validate:"required,email"`
	Password  null.String `json:"password" validate:"omitempty,min=8"`
	Role      null.String `json:"role" validate:"omitempty,role"`
	Fonction  null.String `json:"fonction" validate:"omitempty,fonction"`
	IsActive  null.Bool   `json:"is_active"`
}
