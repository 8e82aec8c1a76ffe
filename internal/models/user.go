package models

import "strings"

type Role string

const (
	RoleAdmin      Role = "ADMINISTRADOR"
	RoleFrontDesk  Role = "RECEPCIONISTA"
	RoleTechnician Role = "TECNICO"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFrontDesk, RoleTechnician:
		return true
	default:
		return false
	}
}

func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrador"
	case RoleFrontDesk:
		return "Recepcionista"
	case RoleTechnician:
		return "Técnico"
	default:
		return string(r)
	}
}

type User struct {
	ID             int64  `json:"id"`
	Username       string `json:"username,omitempty"`
	Nombre         string `json:"nombre"`
	Apellido       string `json:"apellido"`
	NombreCompleto string `json:"nombreCompleto,omitempty"`
	Email          string `json:"email"`
	Rol            Role   `json:"rol"`
	Activo         bool   `json:"activo"`
}

func (u User) DisplayName() string {
	if u.NombreCompleto != "" {
		return u.NombreCompleto
	}
	name := strings.TrimSpace(u.Nombre + " " + u.Apellido)
	if name == "" {
		return u.Username
	}
	return name
}

// HasAnyRole is the single role check used by route guards and the ticket
// workflow. An empty role list matches nobody.
func (u User) HasAnyRole(roles ...Role) bool {
	for _, role := range roles {
		if u.Rol == role {
			return true
		}
	}
	return false
}

func (u User) HasRole(role Role) bool {
	return u.HasAnyRole(role)
}

type UserSummary struct {
	ID             int64  `json:"id"`
	NombreCompleto string `json:"nombreCompleto"`
	Rol            Role   `json:"rol,omitempty"`
}
